package cli

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/idplease/pkg/session"
)

// interactiveCommand creates the terminal UI command.
func (c *CLI) interactiveCommand() *cobra.Command {
	var noCache, noDrafts bool

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Look up handles and edit passport fields in a terminal UI",
		Long: `Interactive opens a terminal UI. Type a handle and press enter to look it
up; typing a new handle while a lookup runs abandons the old one. Field
edits re-render without network access and are kept as drafts per handle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := c.newRunner(ctx, runnerOpts{noCache: noCache})
			if err != nil {
				return err
			}
			defer runner.Close()

			var drafts draftStore
			if !noDrafts {
				store, err := session.NewFileStore(draftsDir())
				if err != nil {
					logger.Warn("drafts disabled", "err", err)
				} else {
					if err := store.Cleanup(ctx); err != nil {
						logger.Debug("draft cleanup failed", "err", err)
					}
					drafts = store
				}
			}

			// Log lines would tear the alternate screen.
			logger.SetOutput(io.Discard)
			p := tea.NewProgram(NewPassportModel(ctx, runner, drafts), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("interactive: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noDrafts, "no-drafts", false, "do not load or save field drafts")

	return cmd
}

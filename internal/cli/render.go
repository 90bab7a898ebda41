package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/io"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string             // output PNG path; derived from the handle when empty
	from      string             // saved record to re-render instead of resolving
	export    string             // write the saved record JSON here
	noCache   bool               // bypass the cache for this run
	refresh   bool               // refetch API responses but still store them
	overrides passport.Overrides // user-entered field values
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [handle]",
		Short: "Render the passport PNG for a 6529 handle",
		Long: `Render looks up a 6529 Network profile and writes its passport card as PNG.

Any field can be overridden with a flag. Dates are entered as YYYY-MM-DD and
printed on the card as "5 Mar 2024". Use --export to save what was resolved
and --from to re-render that file later without network access.`,
		Example: `  idplease render punk6529
  idplease render punk6529 --authority "6529 Museum" --mint-date 2024-03-05
  idplease render punk6529 --export punk6529.json
  idplease render --from punk6529.json --surname "6529" -o card.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var handle string
			if len(args) == 1 {
				handle = args[0]
			}
			if handle == "" && opts.from == "" {
				return fmt.Errorf("a handle is required unless --from is given")
			}
			if err := validateOverrides(opts.overrides); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), handle, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG file (default 6529-passport-<handle>.png)")
	cmd.Flags().StringVar(&opts.from, "from", "", "re-render a record saved with --export")
	cmd.Flags().StringVar(&opts.export, "export", "", "save the resolved record as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch API responses instead of using cached ones")
	addOverrideFlags(cmd, &opts.overrides)

	return cmd
}

// addOverrideFlags registers one flag per overridable card field.
func addOverrideFlags(cmd *cobra.Command, ov *passport.Overrides) {
	f := cmd.Flags()
	f.StringVar(&ov.FirstName, "first-name", "", "first name")
	f.StringVar(&ov.Surname, "surname", "", "surname (default: the handle)")
	f.StringVar(&ov.TokenID, "token-id", "", "profile picture token id")
	f.StringVar(&ov.Reputation, "reputation", "", "reputation category")
	f.StringVar(&ov.LineNumber, "line-number", "", "line number")
	f.StringVar(&ov.Authority, "authority", "", "issuing authority (default: ENS name)")
	f.StringVar(&ov.MintDate, "mint-date", "", "date of issue, YYYY-MM-DD")
	f.StringVar(&ov.ExpiryDate, "expiry-date", "", "date of expiry, YYYY-MM-DD")
	f.StringVar(&ov.PassportNumber, "passport-number", "", "passport number")
	f.StringVar(&ov.Wallet, "wallet", "", "wallet address")
	f.StringVar(&ov.Avatar, "avatar", "", "avatar image path or URL")
}

// validateOverrides rejects dates the card could not print.
func validateOverrides(ov passport.Overrides) error {
	dates := []struct{ flag, value string }{
		{"mint-date", ov.MintDate},
		{"expiry-date", ov.ExpiryDate},
	}
	for _, d := range dates {
		if d.value != "" && passport.FormatDate(d.value) == "" {
			return apperrors.New(apperrors.ErrCodeInvalidDate, "--%s must be YYYY-MM-DD, got %q", d.flag, d.value)
		}
	}
	return nil
}

// runRender resolves (or loads) the record, renders it and writes the PNG.
func (c *CLI) runRender(ctx context.Context, handle string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, offline: opts.from != ""})
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Handle:    handle,
		Overrides: opts.overrides,
		Refresh:   opts.refresh,
		Logger:    logger,
	}
	label := handle
	if opts.from != "" {
		doc, err := io.ImportRecord(opts.from)
		if err != nil {
			return err
		}
		popts.Document = doc
		label = doc.Handle
	}

	spinner := newSpinnerWithContext(ctx, "Resolving "+label+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	path := opts.output
	if path == "" {
		path = result.Filename
	}
	if err := writeFile(path, result.PNG); err != nil {
		return err
	}
	logger.Debug("wrote passport", "path", path, "bytes", len(result.PNG))

	printSuccess("Passport for %s", StyleHighlight.Render(label))
	printFile(path)
	printRunStats(result)
	if result.AvatarErr != nil {
		printWarning("Avatar unavailable: %s", apperrors.UserMessage(result.AvatarErr))
	}

	if opts.export != "" {
		if err := io.ExportRecord(result.Document(), opts.export); err != nil {
			return err
		}
		printFile(opts.export)
		printNextStep("Re-render offline", fmt.Sprintf("%s render --from %s", appName, opts.export))
	}
	return nil
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

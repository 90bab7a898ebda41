package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/idplease/pkg/io"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/pipeline"
)

type lookupOpts struct {
	json    bool
	noCache bool
	refresh bool
}

// lookupCommand creates the lookup command, which resolves a handle without
// rendering.
func (c *CLI) lookupCommand() *cobra.Command {
	var opts lookupOpts

	cmd := &cobra.Command{
		Use:   "lookup <handle>",
		Short: "Show what the 6529 API and ENS report for a handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLookup(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the saved-record JSON instead of a summary")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch API responses instead of using cached ones")

	return cmd
}

func (c *CLI) runLookup(ctx context.Context, handle string, opts *lookupOpts) error {
	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache})
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if !opts.json {
		spinner = newSpinnerWithContext(ctx, "Resolving "+handle+"...")
		spinner.Start()
	}
	ctx, cancel := context.WithTimeout(ctx, runner.Timeout)
	defer cancel()
	res, err := runner.Resolve(ctx, handle, opts.refresh)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	result := &pipeline.Result{
		RunID:      res.RunID,
		Resolution: res,
		Record:     pipeline.Build(res, passport.Overrides{}),
	}
	if opts.json {
		return io.WriteRecord(result.Document(), os.Stdout)
	}

	printResolution(res)
	printNewline()
	printRecord(result.Record)
	return nil
}

// printResolution summarizes the resolve stage.
func printResolution(res *pipeline.Resolution) {
	r := res.Resolved
	printSuccess("Resolved %s", StyleHighlight.Render(r.Handle))
	printKeyValue("Wallet", orDash(r.Wallet))
	printKeyValue("ENS", orDash(res.ENS.Name))
	if !res.ENS.Expiry.IsZero() {
		printKeyValue("ENS expiry", res.ENS.Expiry.Format(time.DateOnly))
	}
	if !r.Created.IsZero() {
		printKeyValue("Created", r.Created.Format(time.DateOnly))
	}
	printKeyValue("Log entries", strconv.Itoa(res.LogCount))
	for _, cat := range res.Reputation.Categories {
		marker := ""
		if cat.Name == res.Reputation.Highest {
			marker = " " + StyleSuccess.Render(iconSuccess)
		}
		printDetail("%-28s %s%s", cat.Name, fmt.Sprintf("%+d", cat.Total), marker)
	}
}

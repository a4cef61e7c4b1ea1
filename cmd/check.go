package cmd

import (
	"context"
	"fmt"
	"github.com/cottand/semtype/semtype"
	"github.com/cottand/semtype/typedefs"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"runtime"
)

var CheckCmd = &cobra.Command{
	Use:          "check definitions.toml",
	Short:        "Evaluate the checks of a definitions file",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	checkLogFlags *logFlags
	checkJobs     *int
	checkNoColor  *bool
)

func init() {
	checkLogFlags = addLogFlags(CheckCmd)
	checkJobs = CheckCmd.Flags().IntP("jobs", "j", 0, "checks to evaluate in parallel, 0 for GOMAXPROCS")
	checkNoColor = CheckCmd.Flags().Bool("no-color", false, "disable colored output")
}

var (
	passColor  = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	errorColor = color.New(color.FgYellow, color.Bold)
)

type checkOutcome struct {
	result bool
	err    error
}

func runCheck(cmd *cobra.Command, args []string) error {
	checkLogFlags.apply()
	if *checkNoColor {
		color.NoColor = true
	}

	defs, err := typedefs.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not load definitions:\n%w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcomes, err := evaluateChecks(ctx, defs, *checkJobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, check := range defs.Checks {
		outcome := outcomes[i]
		switch {
		case outcome.err != nil:
			failed++
			_, _ = fmt.Fprintf(out, "%s %s: %v\n", errorColor.Sprint("ERROR"), check, outcome.err)
		case outcome.result == check.Expect:
			_, _ = fmt.Fprintf(out, "%s %s\n", passColor.Sprint("PASS"), check)
		default:
			failed++
			_, _ = fmt.Fprintf(out, "%s %s\n", failColor.Sprint("FAIL"), check)
		}
	}
	_, _ = fmt.Fprintf(out, "%d/%d checks passed\n", len(defs.Checks)-failed, len(defs.Checks))

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(defs.Checks))
	}
	return nil
}

// evaluateChecks answers every check of defs, at most jobs at a time. Each
// check gets its own Context, while all of them share defs.Env.
func evaluateChecks(ctx context.Context, defs *typedefs.Definitions, jobs int) ([]checkOutcome, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]checkOutcome, len(defs.Checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(defs.Checks))))
	for i, check := range defs.Checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tc := semtype.NewContext(defs.Env)
			result, err := check.Evaluate(tc)
			// i is unique per goroutine
			outcomes[i] = checkOutcome{result: result, err: err}
			logger.Debug("evaluated check", "check", check.Name, "result", result, "expect", check.Expect)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

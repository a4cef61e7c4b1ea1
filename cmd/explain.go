package cmd

import (
	"fmt"
	"github.com/cottand/semtype/semtype"
	"github.com/cottand/semtype/typedefs"
	"github.com/spf13/cobra"
)

var ExplainCmd = &cobra.Command{
	Use:          "explain definitions.toml 'A | B & !C'",
	Short:        "Print the normal form of a type and the atoms it refers to",
	RunE:         runExplain,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
}

var explainLogFlags *logFlags

func init() {
	explainLogFlags = addLogFlags(ExplainCmd)
}

func runExplain(cmd *cobra.Command, args []string) (err error) {
	explainLogFlags.apply()

	defs, err := typedefs.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not load definitions:\n%w", err)
	}
	t, err := defs.Resolve(args[1])
	if err != nil {
		return fmt.Errorf("could not resolve '%s':\n%w", args[1], err)
	}

	defer semtype.CatchFailure(&err)
	tc := semtype.NewContext(defs.Env)
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, defs.Env.Describe(t))
	_, _ = fmt.Fprintf(out, "empty: %t\n", semtype.IsEmpty(tc, t))
	return nil
}

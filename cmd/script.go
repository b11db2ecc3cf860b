package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/jsext"
)

var scriptCmd = &cobra.Command{
	Use:   "script FILE.js",
	Short: "Run a JavaScript file with the DocrEngine class available",
	Long: `Runs a script in an embedded JavaScript runtime. The script can construct
DocrEngine instances, call print(...), and use the *Async recognition methods
to run several recognitions at once. A non-undefined completion value is
printed; a returned promise is awaited first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "script: read %s", args[0])
		}

		rec, err := newRecognizer()
		if err != nil {
			return err
		}
		host, err := jsext.New(rec,
			jsext.WithOutput(cmd.OutOrStdout()),
			jsext.WithLogger(zap.L().Named("script")),
		)
		if err != nil {
			return err
		}

		v, err := host.Run(args[0], string(src))
		if err != nil {
			return err
		}
		if v != nil {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var languagesFormat string

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages the OCR engine can recognize",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecognizer()
		if err != nil {
			return err
		}
		langs, err := rec.Catalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch languagesFormat {
		case "text":
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, l := range langs {
				fmt.Fprintf(tw, "%s\t%s\n", l.Tag, l.Direction)
			}
			return tw.Flush()
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(langs)
		case "yaml":
			enc := yaml.NewEncoder(out)
			defer enc.Close() //nolint:errcheck
			return enc.Encode(langs)
		default:
			return eris.Errorf("languages: unknown format %q (want text, json or yaml)", languagesFormat)
		}
	},
}

func init() {
	languagesCmd.Flags().StringVar(&languagesFormat, "format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(languagesCmd)
}

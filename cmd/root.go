package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/engine"
)

var cfg *config.Config

// newService builds the configured engine backend.
var newService = engine.New

var langFlag string

var rootCmd = &cobra.Command{
	Use:   "docr FILENAME",
	Short: "Recognize the text in an image",
	Long:  "Runs OCR over an image file and prints the recognized text, with right-to-left scripts reassembled in reading order.",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		applyFlags(cmd)
		return cfg.Validate(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecognizer()
		if err != nil {
			return err
		}
		text, err := rec.RecognizeImage(language(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", "en", "language tag to recognize, e.g. en, ar, zh-hans")
}

// language is the --lang flag when given, else the configured language.
func language(cmd *cobra.Command) string {
	if cmd.Flags().Changed("lang") || cfg == nil || cfg.Language == "" {
		return langFlag
	}
	return cfg.Language
}

// applyFlags copies command-line overrides into cfg so they are validated
// with the rest of the configuration.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = langFlag
	}
	if flags.Changed("concurrency") {
		cfg.Batch.Concurrency = batchConcurrency
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
}

func newRecognizer() (*docr.Recognizer, error) {
	svc, err := newService(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return docr.NewRecognizer(svc, zap.L()), nil
}

// errorMessage is the text printed for a failed run. Recognition failures
// print their classified form; everything else prints as is.
func errorMessage(err error) string {
	var de docr.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}

func execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), errorMessage(err))
		return docr.ExitCode(err)
	}
	return 0
}

func main() {
	os.Exit(execute())
}

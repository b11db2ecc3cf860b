package main

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docr/internal/docr"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch FILES...",
	Short: "Recognize many image files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecognizer()
		if err != nil {
			return err
		}
		return processBatch(rec, language(cmd), args, cfg.Batch.Concurrency, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "files recognized at once (default from config)")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	text string
	err  error
}

// processBatch recognizes files with at most concurrency calls in flight and
// prints the results in input order. A failed file does not stop the batch.
func processBatch(rec *docr.Recognizer, lang string, files []string, concurrency int, stdout, stderr io.Writer) error {
	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	var g errgroup.Group
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	results := make([]batchResult, len(files))

	for i, path := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			text, err := rec.RecognizeImage(lang, path)
			results[i] = batchResult{text: text, err: err}
			if err != nil {
				failed.Add(1)
				log.Warn("recognition failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Debug("recognition complete", zap.Int("chars", len(text)))
			return nil
		})
	}
	_ = g.Wait()

	for i, path := range files {
		fmt.Fprintf(stdout, "==> %s <==\n", path)
		if err := results[i].err; err != nil {
			fmt.Fprintf(stderr, "%s: %s\n", path, errorMessage(err))
			continue
		}
		fmt.Fprint(stdout, results[i].text)
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if n := failed.Load(); n > 0 {
		return eris.Errorf("batch: %d of %d files failed", n, len(files))
	}
	return nil
}

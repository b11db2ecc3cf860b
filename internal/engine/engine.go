// Package engine builds the OCR engine service selected by configuration.
package engine

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/engine/remote"
	"github.com/sells-group/docr/internal/engine/tesseract"
)

// New creates a docr.Service based on config.
func New(cfg config.EngineConfig) (docr.Service, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return tesseract.New(cfg.Tesseract), nil
	case "remote":
		if cfg.Remote.BaseURL == "" {
			return nil, eris.New("engine: remote provider requires engine.remote.base_url")
		}
		timeout := time.Duration(cfg.Remote.TimeoutSecs) * time.Second
		return remote.New(cfg.Remote.BaseURL, cfg.Remote.APIKey, timeout, remote.WithRetry(cfg.Remote.MaxAttempts, 0)), nil
	default:
		return nil, eris.Errorf("engine: unknown provider %q", cfg.Provider)
	}
}

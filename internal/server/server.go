// Package server is the HTTP facade of docr. It serves the same protocol the
// remote engine backend consumes, plus a convenience endpoint that accepts an
// encoded image and returns assembled text.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/engine/remote"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to a Recognizer.
type Server struct {
	rec         *docr.Recognizer
	cfg         config.ServerConfig
	defaultLang string
	limiter     *rate.Limiter
	log         *zap.Logger
}

// New creates a Server. defaultLang is used when /v1/text gets no lang
// parameter. A zero rate limit disables limiting.
func New(rec *docr.Recognizer, cfg config.ServerConfig, defaultLang string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.L()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		rec:         rec,
		cfg:         cfg,
		defaultLang: defaultLang,
		limiter:     rate.NewLimiter(limit, burst),
		log:         log,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", remote.APIKeyHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Use(s.rateLimit)
		r.Get("/languages", s.handleLanguages)
		r.Post("/recognize", s.handleRecognize)
		r.Post("/text", s.handleText)
	})

	return r
}

// ListenAndServe serves on port until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.rec.Catalog()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, langs)
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	var req remote.RecognizeRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody())
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeRequestError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	buf := docr.FromRaw(req.Pixels, req.Width, req.Height)
	res, err := s.rec.Recognize(req.Language, buf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remote.RecognizeResponse{Lines: res.Lines, Direction: res.Direction})
}

// TextResponse is the body of a successful POST /v1/text.
type TextResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.defaultLang
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBody())
	img, _, err := image.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if eris.As(err, &tooLarge) {
			writeRequestError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.fail(w, r, docr.NewOperationError("Failed to decode image"))
		return
	}

	text, err := s.rec.RecognizeImageData(lang, docr.FromImage(img))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: text})
}

func (s *Server) maxBody() int64 {
	return int64(s.cfg.MaxUploadMB) << 20
}

// fail writes err as an ErrorResponse with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := remote.ErrorResponse{Code: -1}
	switch e := docr.Classify(err).(type) {
	case *docr.RuntimeError:
		resp.Error, resp.Code, resp.Kind = e.Message, int64(e.Code), "runtime"
		s.log.Warn("engine failure",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Uint32("code", e.Code),
			zap.String("error", e.Message),
		)
	case *docr.OperationError:
		resp.Error, resp.Kind = e.Message, "operation"
	}
	writeJSON(w, docr.HTTPStatus(err), resp)
}

func writeRequestError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, remote.ErrorResponse{Error: msg, Code: -1, Kind: "request"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Package remote is an OCR engine backend that delegates recognition to a
// docr server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/docr"
)

const (
	languagesPath = "/v1/languages"
	recognizePath = "/v1/recognize"

	// APIKeyHeader carries the shared secret when the server requires one.
	APIKeyHeader = "X-Api-Key"

	defaultTimeout = 60 * time.Second
)

// RecognizeRequest is the body of POST /v1/recognize. Pixels is BGRA8 and
// base64 encoded by encoding/json.
type RecognizeRequest struct {
	Language string `json:"language"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Pixels   []byte `json:"pixels"`
}

// RecognizeResponse is the engine-level result: raw lines plus direction.
type RecognizeResponse struct {
	Lines     []string       `json:"lines"`
	Direction docr.Direction `json:"direction"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int64  `json:"code"`
	Kind  string `json:"kind"`
}

// Service is a docr.Service backed by a remote docr server.
type Service struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   retryPolicy
}

// Option configures a Service.
type Option func(*Service)

// WithRetry sets the total number of attempts per request and the initial
// backoff between them. attempts of 1 disables retries; zero values keep
// the defaults.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.retry.attempts = attempts
		}
		if backoff > 0 {
			s.retry.backoff = backoff
		}
	}
}

// New creates a remote Service. A zero timeout uses the default.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retry:   defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Languages implements docr.Service.
func (s *Service) Languages() ([]docr.LanguageInfo, error) {
	var langs []docr.LanguageInfo
	if err := s.do(http.MethodGet, languagesPath, nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// NewSession implements docr.Service. The tag must be one the server lists.
func (s *Service) NewSession(tag string) (docr.Session, error) {
	langs, err := s.Languages()
	if err != nil {
		return nil, err
	}
	for _, l := range langs {
		if strings.EqualFold(l.Tag, tag) {
			return &session{svc: s, lang: l}, nil
		}
	}
	return nil, docr.NewRuntimeError("No recognizer is available for language "+tag, docr.CodeInvalidArg)
}

type session struct {
	svc  *Service
	lang docr.LanguageInfo
}

func (s *session) Language() docr.LanguageInfo { return s.lang }

func (s *session) Recognize(buf docr.PixelBuffer) ([]string, error) {
	req := RecognizeRequest{
		Language: s.lang.Tag,
		Width:    buf.Width,
		Height:   buf.Height,
		Pixels:   buf.Pix,
	}
	var resp RecognizeResponse
	if err := s.svc.do(http.MethodPost, recognizePath, req, &resp); err != nil {
		return nil, err
	}
	s.lang.Direction = resp.Direction
	return resp.Lines, nil
}

func (s *session) Close() error { return nil }

// do sends one request and decodes the JSON response into out, repeating
// attempts the retry policy allows. Transport failures and error responses
// come back as *docr.RuntimeError.
func (s *Service) do(method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return docr.NewRuntimeError(eris.Wrap(err, "remote: marshal request").Error(), docr.CodeInvalidArg)
		}
		payload = b
	}

	var err error
	for attempt := 1; ; attempt++ {
		var retry bool
		retry, err = s.attempt(method, path, payload, out)
		if err == nil || !retry || attempt >= s.retry.attempts {
			return err
		}
		delay := s.retry.delay(attempt)
		zap.L().Warn("remote: retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
}

// attempt performs one round trip. retry reports whether the failure is
// worth repeating.
func (s *Service) attempt(method, path string, payload []byte, out any) (retry bool, err error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, s.baseURL+path, body)
	if err != nil {
		return false, docr.NewRuntimeError(eris.Wrap(err, "remote: create request").Error(), docr.CodeInvalidArg)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set(APIKeyHeader, s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return true, docr.NewRuntimeError(eris.Wrap(err, "remote: "+method+" "+path).Error(), docr.CodeUnavailable)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, docr.NewRuntimeError(eris.Wrap(err, "remote: read response").Error(), docr.CodeUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return responseError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return false, docr.NewRuntimeError(eris.Wrap(err, "remote: unmarshal response").Error(), docr.CodeFail)
	}
	return false, nil
}

// responseError converts a non-200 response. Engine failures reported by a
// docr server are final; overload and gateway responses without one are
// retryable.
func responseError(status int, body []byte) (bool, error) {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		retry := status == http.StatusTooManyRequests || status >= http.StatusBadGateway
		return retry, docr.NewRuntimeError(
			"remote: server returned "+http.StatusText(status)+": "+strings.TrimSpace(string(body)),
			docr.CodeUnavailable,
		)
	}
	code := docr.CodeFail
	if er.Code > 0 && er.Code <= 0xFFFFFFFF {
		code = uint32(er.Code)
	}
	retry := status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
	return retry, docr.NewRuntimeError(er.Error, code)
}

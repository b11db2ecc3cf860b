// Package docrtest provides an in-memory OCR engine for tests.
package docrtest

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sells-group/docr/internal/docr"
)

// Service is a scripted docr.Service. Lines maps a resolved language tag to
// the lines its sessions return; a missing entry returns DefaultLines.
type Service struct {
	Langs        []docr.LanguageInfo
	LanguagesErr error
	SessionErr   error
	RecognizeErr error
	Lines        map[string][]string
	DefaultLines []string

	// OnRecognize, if set, runs inside Session.Recognize before it returns.
	OnRecognize func(tag string, buf docr.PixelBuffer)

	enumerations atomic.Int64
	opened       atomic.Int64
	closed       atomic.Int64

	mu   sync.Mutex
	seen []docr.PixelBuffer
}

// NewService returns a Service offering the given languages.
func NewService(langs ...docr.LanguageInfo) *Service {
	return &Service{Langs: langs}
}

// LTR builds a left-to-right language entry.
func LTR(tag string) docr.LanguageInfo {
	return docr.LanguageInfo{Tag: tag, Direction: docr.LeftToRight}
}

// RTL builds a right-to-left language entry.
func RTL(tag string) docr.LanguageInfo {
	return docr.LanguageInfo{Tag: tag, Direction: docr.RightToLeft}
}

// Languages implements docr.Service.
func (s *Service) Languages() ([]docr.LanguageInfo, error) {
	s.enumerations.Add(1)
	if s.LanguagesErr != nil {
		return nil, s.LanguagesErr
	}
	return append([]docr.LanguageInfo(nil), s.Langs...), nil
}

// NewSession implements docr.Service.
func (s *Service) NewSession(tag string) (docr.Session, error) {
	if s.SessionErr != nil {
		return nil, s.SessionErr
	}
	for _, l := range s.Langs {
		if strings.EqualFold(l.Tag, tag) {
			s.opened.Add(1)
			return &session{svc: s, lang: l}, nil
		}
	}
	return nil, docr.NewRuntimeError("No recognizer for "+tag, docr.CodeInvalidArg)
}

// Enumerations is the number of Languages calls made.
func (s *Service) Enumerations() int { return int(s.enumerations.Load()) }

// Opened is the number of sessions created.
func (s *Service) Opened() int { return int(s.opened.Load()) }

// Closed is the number of sessions closed.
func (s *Service) Closed() int { return int(s.closed.Load()) }

// Buffers returns every buffer submitted for recognition.
func (s *Service) Buffers() []docr.PixelBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]docr.PixelBuffer(nil), s.seen...)
}

type session struct {
	svc  *Service
	lang docr.LanguageInfo
}

func (s *session) Language() docr.LanguageInfo { return s.lang }

func (s *session) Recognize(buf docr.PixelBuffer) ([]string, error) {
	s.svc.mu.Lock()
	s.svc.seen = append(s.svc.seen, buf)
	s.svc.mu.Unlock()

	if s.svc.OnRecognize != nil {
		s.svc.OnRecognize(s.lang.Tag, buf)
	}
	if s.svc.RecognizeErr != nil {
		return nil, s.svc.RecognizeErr
	}
	if lines, ok := s.svc.Lines[strings.ToLower(s.lang.Tag)]; ok {
		return lines, nil
	}
	return s.svc.DefaultLines, nil
}

func (s *session) Close() error {
	s.svc.closed.Add(1)
	return nil
}

// Buffer returns a valid width x height buffer filled with opaque white.
func Buffer(width, height int) docr.PixelBuffer {
	pix := make([]byte, width*height*docr.BytesPerPixel)
	for i := range pix {
		pix[i] = 0xff
	}
	return docr.FromRaw(pix, width, height)
}

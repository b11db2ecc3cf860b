package docr

import "go.uber.org/zap"

// Recognition is the raw engine output for one image.
type Recognition struct {
	Lines     []string
	Direction Direction
}

// Text assembles the recognized lines.
func (r Recognition) Text() string {
	return Assemble(r.Lines, r.Direction.IsRTL())
}

// Recognizer runs recognition calls against an engine Service. It holds no
// per-call state: every call resolves the language and opens a new session.
type Recognizer struct {
	svc Service
	log *zap.Logger
}

// NewRecognizer creates a Recognizer. A nil logger uses the global zap logger.
func NewRecognizer(svc Service, log *zap.Logger) *Recognizer {
	if log == nil {
		log = zap.L()
	}
	return &Recognizer{svc: svc, log: log}
}

// Languages returns the supported language tags in engine order.
func (r *Recognizer) Languages() ([]string, error) {
	return SupportedLanguages(r.svc)
}

// Catalog returns the supported languages with their reading direction.
func (r *Recognizer) Catalog() ([]LanguageInfo, error) {
	return enumerate(r.svc)
}

// Resolve resolves a requested language tag against the engine.
func (r *Recognizer) Resolve(lang string) (LanguageInfo, error) {
	return ResolveLanguage(r.svc, lang)
}

// Recognize runs the engine over buf with the language resolved from lang.
// It blocks until the engine completes.
func (r *Recognizer) Recognize(lang string, buf PixelBuffer) (Recognition, error) {
	if err := buf.Validate(); err != nil {
		return Recognition{}, err
	}

	resolved, err := ResolveLanguage(r.svc, lang)
	if err != nil {
		return Recognition{}, err
	}
	log := r.log.With(zap.String("requested", lang), zap.String("language", resolved.Tag))
	log.Debug("language resolved", zap.Stringer("direction", resolved.Direction))

	sess, err := r.svc.NewSession(resolved.Tag)
	if err != nil {
		return Recognition{}, Classify(err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("close engine session", zap.Error(cerr))
		}
	}()

	lines, err := sess.Recognize(buf)
	if err != nil {
		return Recognition{}, Classify(err)
	}
	log.Debug("recognition complete",
		zap.Int("width", buf.Width),
		zap.Int("height", buf.Height),
		zap.Int("lines", len(lines)),
	)

	return Recognition{Lines: lines, Direction: sess.Language().Direction}, nil
}

// RecognizeImageData recognizes a BGRA8 buffer and returns the assembled text.
func (r *Recognizer) RecognizeImageData(lang string, buf PixelBuffer) (string, error) {
	rec, err := r.Recognize(lang, buf)
	if err != nil {
		return "", err
	}
	return rec.Text(), nil
}

// RecognizeImage decodes an image file and returns the assembled text.
func (r *Recognizer) RecognizeImage(lang, path string) (string, error) {
	buf, err := FromFile(path)
	if err != nil {
		return "", err
	}
	return r.RecognizeImageData(lang, buf)
}

// Package tesseract is the local OCR engine backend built on libtesseract
// through gosseract.
package tesseract

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
)

// Service implements docr.Service using installed Tesseract trained data.
type Service struct {
	tessdataPrefix string
	pageSegMode    gosseract.PageSegMode
	clientFactory  func() *gosseract.Client
	trainedData    func() ([]string, error)
}

// New constructs a Tesseract-backed engine service.
func New(cfg config.TesseractConfig) *Service {
	s := &Service{
		tessdataPrefix: cfg.TessdataPrefix,
		pageSegMode:    gosseract.PageSegMode(cfg.PageSegMode),
		clientFactory:  gosseract.NewClient,
	}
	s.trainedData = s.listTrainedData
	return s
}

// Version reports the linked libtesseract version.
func Version() string { return gosseract.Version() }

// Languages implements docr.Service. Trained-data files are listed in the
// order the filesystem glob returns them; codes with no usable tag are skipped.
func (s *Service) Languages() ([]docr.LanguageInfo, error) {
	codes, err := s.trainedData()
	if err != nil {
		return nil, docr.NewRuntimeError("Could not enumerate Tesseract languages: "+err.Error(), docr.CodeUnavailable)
	}

	seen := make(map[string]bool, len(codes))
	langs := make([]docr.LanguageInfo, 0, len(codes))
	for _, code := range codes {
		tag, ok := TagForCode(code)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		langs = append(langs, docr.LanguageInfo{Tag: tag, Direction: DirectionOf(tag)})
	}
	return langs, nil
}

// NewSession implements docr.Service. Each session owns one gosseract client.
func (s *Service) NewSession(tag string) (docr.Session, error) {
	code, err := s.codeFor(tag)
	if err != nil {
		return nil, err
	}

	c := s.clientFactory()
	if s.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(s.tessdataPrefix); err != nil {
			c.Close() //nolint:errcheck
			return nil, docr.NewRuntimeError("set tessdata prefix: "+err.Error(), docr.CodeInvalidArg)
		}
	}
	if err := c.SetLanguage(code); err != nil {
		c.Close() //nolint:errcheck
		return nil, docr.NewRuntimeError("set language: "+err.Error(), docr.CodeInvalidArg)
	}
	if s.pageSegMode > 0 {
		if err := c.SetPageSegMode(s.pageSegMode); err != nil {
			c.Close() //nolint:errcheck
			return nil, docr.NewRuntimeError("set page segmentation mode: "+err.Error(), docr.CodeInvalidArg)
		}
	}

	lang := docr.LanguageInfo{Tag: strings.ToLower(tag), Direction: DirectionOf(tag)}
	return &session{client: c, lang: lang}, nil
}

func (s *Service) codeFor(tag string) (string, error) {
	codes, err := s.trainedData()
	if err != nil {
		return "", docr.NewRuntimeError("Could not enumerate Tesseract languages: "+err.Error(), docr.CodeUnavailable)
	}
	for _, code := range codes {
		if t, ok := TagForCode(code); ok && strings.EqualFold(t, tag) {
			return code, nil
		}
	}
	return "", docr.NewRuntimeError("No trained data is installed for language "+tag, docr.CodeInvalidArg)
}

func (s *Service) listTrainedData() ([]string, error) {
	if s.tessdataPrefix == "" {
		return gosseract.GetAvailableLanguages()
	}
	return listDir(s.tessdataPrefix)
}

func listDir(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.traineddata"))
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(files))
	for _, f := range files {
		codes = append(codes, strings.TrimSuffix(filepath.Base(f), ".traineddata"))
	}
	return codes, nil
}

type session struct {
	client *gosseract.Client
	lang   docr.LanguageInfo
}

func (s *session) Language() docr.LanguageInfo { return s.lang }

// Recognize encodes the buffer losslessly and reads back one string per
// Tesseract text line.
func (s *session) Recognize(buf docr.PixelBuffer) ([]string, error) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, buf.Image()); err != nil {
		return nil, docr.NewRuntimeError("encode image: "+err.Error(), docr.CodeInvalidArg)
	}
	if err := s.client.SetImageFromBytes(encoded.Bytes()); err != nil {
		return nil, docr.NewRuntimeError("set image: "+err.Error(), docr.CodeInvalidArg)
	}

	boxes, err := s.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, docr.NewRuntimeError("recognize text: "+err.Error(), docr.CodeFail)
	}
	lines := make([]string, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, strings.TrimRight(b.Word, "\r\n"))
	}
	return lines, nil
}

func (s *session) Close() error {
	return s.client.Close()
}

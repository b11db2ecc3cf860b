// Package abi holds the marshaling rules of the C-callable library: wide
// string encoding into caller-owned buffers, pixel-length preconditions and
// return codes. It does no unsafe memory access itself; the cgo entry points
// hand it views over foreign memory.
//
// Wide strings are written little-endian, NUL-terminated, in the platform's
// wchar_t width.
package abi

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/docr/internal/docr"
)

// DefaultLanguage replaces a language argument that is not valid UTF-8.
const DefaultLanguage = "en"

// Unbounded marks an output buffer whose size the caller vouches for.
const Unbounded = -1

// OutBuffer is a capacity-bounded view over a caller-owned wide-character
// buffer. view returns a writable slice of exactly n bytes.
type OutBuffer struct {
	capacity int
	view     func(n int) []byte
}

// NewOutBuffer returns a view with the given capacity in bytes, or Unbounded.
func NewOutBuffer(capacity int, view func(n int) []byte) *OutBuffer {
	return &OutBuffer{capacity: capacity, view: view}
}

// SliceBuffer wraps Go memory as an output buffer.
func SliceBuffer(mem []byte) *OutBuffer {
	return &OutBuffer{capacity: len(mem), view: func(n int) []byte { return mem[:n] }}
}

// WriteString encodes s and copies it into the buffer. Strings containing NUL
// cannot be represented and are replaced by fallback. Nothing is written when
// the encoded string does not fit.
func (o *OutBuffer) WriteString(s, fallback string) int32 {
	if strings.ContainsRune(s, 0) {
		s = fallback
	}
	enc, err := EncodeWide(s)
	if err != nil {
		if enc, err = EncodeWide(fallback); err != nil {
			return docr.ABIPrecondition
		}
	}
	if o.capacity != Unbounded && len(enc) > o.capacity {
		return docr.ABIBufferTooSmall
	}
	copy(o.view(len(enc)), enc)
	return docr.ABISuccess
}

// EncodeWide returns s as a NUL-terminated wide string.
func EncodeWide(s string) ([]byte, error) {
	enc, err := wideEncoding().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(enc, make([]byte, WCharSize)...), nil
}

// DecodeWide reads a NUL-terminated wide string.
func DecodeWide(b []byte) (string, error) {
	for i := 0; i+WCharSize <= len(b); i += WCharSize {
		if isZero(b[i : i+WCharSize]) {
			b = b[:i]
			break
		}
	}
	out, err := wideEncoding().NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// NormalizeLanguage returns the language argument, or DefaultLanguage when
// it is not valid UTF-8.
func NormalizeLanguage(lang string) string {
	if !utf8.ValidString(lang) {
		return DefaultLanguage
	}
	return lang
}

// PixelLen is the number of bytes to read from a foreign pixel pointer.
// available is the caller-declared buffer length, or Unbounded when the
// caller did not declare one.
func PixelLen(width, height uint32, available int64) (int, error) {
	n, err := docr.RequiredLen(int(width), int(height))
	if err != nil {
		return 0, err
	}
	if available != Unbounded && available < int64(n) {
		return 0, docr.Operationf("Pixel buffer holds %d bytes, %dx%d image needs %d", available, width, height, n)
	}
	return n, nil
}

// GetRecognizableLanguages writes the supported tags as a JSON array.
func GetRecognizableLanguages(rec *docr.Recognizer, out *OutBuffer) int32 {
	if out == nil {
		return docr.ABIPrecondition
	}
	tags, err := rec.Languages()
	if err != nil {
		return docr.ABICode(err)
	}
	data, err := json.Marshal(tags)
	if err != nil {
		data = []byte("[]")
	}
	return out.WriteString(string(data), "[]")
}

// RecognizeImage recognizes a BGRA8 buffer and writes the assembled text.
// pix must already be exactly width*height*4 bytes (see PixelLen).
func RecognizeImage(rec *docr.Recognizer, lang string, pix []byte, width, height uint32, out *OutBuffer) int32 {
	if out == nil || pix == nil {
		return docr.ABIPrecondition
	}
	buf := docr.FromRaw(pix, int(width), int(height))
	text, err := rec.RecognizeImageData(NormalizeLanguage(lang), buf)
	if err != nil {
		return docr.ABICode(err)
	}
	return out.WriteString(text, "")
}

package docr

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Direction is the reading direction of a recognizer language.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// IsRTL reports whether d is RightToLeft.
func (d Direction) IsRTL() bool { return d == RightToLeft }

// ParseDirection parses "ltr" or "rtl" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr", "":
		return LeftToRight, nil
	case "rtl":
		return RightToLeft, nil
	default:
		return LeftToRight, eris.Errorf("docr: unknown reading direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// LanguageInfo is one recognizer language offered by an engine.
type LanguageInfo struct {
	Tag       string    `json:"tag" yaml:"tag"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Service is an OCR engine: it enumerates its installed recognizer languages
// and opens recognition sessions bound to one of them.
type Service interface {
	Languages() ([]LanguageInfo, error)
	NewSession(tag string) (Session, error)
}

// Session is a recognizer bound to a single language. Recognize blocks until
// the engine has finished and returns the recognized lines top to bottom.
type Session interface {
	Language() LanguageInfo
	Recognize(buf PixelBuffer) ([]string, error)
	Close() error
}

//go:build !windows

package abi

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode/utf32"
)

// WCharSize is sizeof(wchar_t): UTF-32 code units outside Windows.
const WCharSize = 4

func wideEncoding() encoding.Encoding {
	return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
}

package abi

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// WCharSize is sizeof(wchar_t): UTF-16 code units on Windows.
const WCharSize = 2

func wideEncoding() encoding.Encoding {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

// Command libdocr builds the C-callable docr library:
//
//	go build -buildmode=c-shared -o libdocr.so ./cmd/libdocr
//
// Output buffers are owned and sized by the caller. recognize_image and
// get_recognizable_languages trust the caller to have allocated enough
// wchar_t for the result plus its terminator; the _n variants take explicit
// capacities and return -2 instead of writing past them.
package main

/*
#include <stddef.h>
#include <stdint.h>
#include <wchar.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/abi"
	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/engine"
)

var (
	cfgOnce sync.Once
	cfg     *config.Config
	cfgErr  error
)

func loadConfig() (*config.Config, error) {
	cfgOnce.Do(func() {
		cfg, cfgErr = config.Load()
		if cfgErr == nil {
			cfgErr = config.InitLogger(cfg.Log)
		}
	})
	return cfg, cfgErr
}

// recognizer builds a fresh engine service for every call.
func recognizer() (*docr.Recognizer, int32) {
	c, err := loadConfig()
	if err != nil {
		return nil, docr.ABIPrecondition
	}
	svc, err := engine.New(c.Engine)
	if err != nil {
		zap.L().Error("libdocr: create engine", zap.Error(err))
		return nil, docr.ABIPrecondition
	}
	return docr.NewRecognizer(svc, zap.L()), docr.ABISuccess
}

func wideView(out *C.wchar_t) func(n int) []byte {
	return func(n int) []byte {
		return unsafe.Slice((*byte)(unsafe.Pointer(out)), n)
	}
}

func boundedOut(out *C.wchar_t, capacity C.size_t) *abi.OutBuffer {
	if out == nil {
		return nil
	}
	return abi.NewOutBuffer(int(capacity)*abi.WCharSize, wideView(out))
}

func unboundedOut(out *C.wchar_t) *abi.OutBuffer {
	if out == nil {
		return nil
	}
	return abi.NewOutBuffer(abi.Unbounded, wideView(out))
}

func recognize(lang *C.char, pix *C.uint8_t, pixLen int64, width, height C.uint32_t, out *abi.OutBuffer) C.int32_t {
	if lang == nil || pix == nil || out == nil {
		return C.int32_t(docr.ABIPrecondition)
	}
	n, err := abi.PixelLen(uint32(width), uint32(height), pixLen)
	if err != nil {
		return C.int32_t(docr.ABICode(err))
	}
	rec, code := recognizer()
	if code != docr.ABISuccess {
		return C.int32_t(code)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(pix)), n)
	return C.int32_t(abi.RecognizeImage(rec, C.GoString(lang), data, uint32(width), uint32(height), out))
}

func languages(out *abi.OutBuffer) C.int32_t {
	if out == nil {
		return C.int32_t(docr.ABIPrecondition)
	}
	rec, code := recognizer()
	if code != docr.ABISuccess {
		return C.int32_t(code)
	}
	return C.int32_t(abi.GetRecognizableLanguages(rec, out))
}

//export get_recognizable_languages
func get_recognizable_languages(out *C.wchar_t) C.int32_t {
	return languages(unboundedOut(out))
}

//export get_recognizable_languages_n
func get_recognizable_languages_n(out *C.wchar_t, outCap C.size_t) C.int32_t {
	return languages(boundedOut(out, outCap))
}

//export recognize_image
func recognize_image(lang *C.char, pix *C.uint8_t, width, height C.uint32_t, out *C.wchar_t) C.int32_t {
	return recognize(lang, pix, abi.Unbounded, width, height, unboundedOut(out))
}

//export recognize_image_n
func recognize_image_n(lang *C.char, pix *C.uint8_t, pixLen C.size_t, width, height C.uint32_t, out *C.wchar_t, outCap C.size_t) C.int32_t {
	return recognize(lang, pix, int64(pixLen), width, height, boundedOut(out, outCap))
}

func main() {}

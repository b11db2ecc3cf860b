package jsext

import (
	"fmt"
	"math"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/sells-group/docr/internal/docr"
)

// prelude declares the error classes DocrEngine throws. code is set only for
// engine failures.
const prelude = `
globalThis.OSError = class OSError extends Error {
	constructor(message, code) {
		super(message);
		this.name = 'OSError';
		if (code !== undefined) this.code = code;
	}
};
globalThis.ValueError = class ValueError extends Error {
	constructor(message) {
		super(message);
		this.name = 'ValueError';
	}
};
globalThis.RuntimeError = class RuntimeError extends Error {
	constructor(message, code) {
		super(message);
		this.name = 'RuntimeError';
		if (code !== undefined) this.code = code;
	}
};
`

const (
	dataPrefix = "Error recognizing image data. "
	filePrefix = "Error recognizing image '%s'. "
)

func (s *script) installEngine() error {
	if err := s.vm.Set("DocrEngine", s.construct); err != nil {
		return err
	}
	ctor := s.vm.Get("DocrEngine").ToObject(s.vm)
	return ctor.Set("getSupportedLanguages", s.supportedLanguages)
}

// construct implements new DocrEngine(lang). The language is checked against
// the engine immediately; the instance keeps the tag as given.
func (s *script) construct(call goja.ConstructorCall) *goja.Object {
	lang := call.Argument(0).String()
	if _, err := s.rec.Resolve(lang); err != nil {
		panic(s.exception(err, ""))
	}

	this := call.This
	must(this.DefineDataProperty("language", s.vm.ToValue(lang), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE))
	must(this.Set("toString", func(goja.FunctionCall) goja.Value {
		return s.vm.ToValue(fmt.Sprintf("DocrEngine(language='%s')", lang))
	}))
	must(this.Set("recognize", func(c goja.FunctionCall) goja.Value {
		buf := s.pixelArgs(c)
		text, err := s.rec.RecognizeImageData(lang, buf)
		if err != nil {
			panic(s.exception(err, dataPrefix))
		}
		return s.vm.ToValue(text)
	}))
	must(this.Set("recognizeImageFile", func(c goja.FunctionCall) goja.Value {
		path := c.Argument(0).String()
		text, err := s.rec.RecognizeImage(lang, path)
		if err != nil {
			panic(s.exception(err, fmt.Sprintf(filePrefix, path)))
		}
		return s.vm.ToValue(text)
	}))
	must(this.Set("recognizeAsync", func(c goja.FunctionCall) goja.Value {
		buf := s.pixelArgs(c)
		return s.async(func() (string, error) {
			return s.rec.RecognizeImageData(lang, buf)
		}, func(err error) goja.Value {
			return s.exception(err, dataPrefix)
		})
	}))
	must(this.Set("recognizeImageFileAsync", func(c goja.FunctionCall) goja.Value {
		path := c.Argument(0).String()
		return s.async(func() (string, error) {
			return s.rec.RecognizeImage(lang, path)
		}, func(err error) goja.Value {
			return s.exception(err, fmt.Sprintf(filePrefix, path))
		})
	}))
	return nil
}

// supportedLanguages implements DocrEngine.getSupportedLanguages().
func (s *script) supportedLanguages(goja.FunctionCall) goja.Value {
	tags, err := s.rec.Languages()
	if err != nil {
		kind, msg := docr.EnumerationException(err)
		panic(s.newError(kind, msg, err))
	}
	items := make([]any, len(tags))
	for i, t := range tags {
		items[i] = t
	}
	return s.vm.NewArray(items...)
}

// pixelArgs reads (imagedata, width, height). imagedata may be an ArrayBuffer,
// a typed array or an array of byte values. The bytes are copied so the
// engine never sees memory the script can still mutate.
func (s *script) pixelArgs(c goja.FunctionCall) docr.PixelBuffer {
	width := int(c.Argument(1).ToInteger())
	height := int(c.Argument(2).ToInteger())

	need, err := docr.RequiredLen(width, height)
	if err != nil {
		panic(s.exception(err, dataPrefix))
	}
	data, err := bytesOf(c.Argument(0).Export())
	if err != nil {
		panic(s.exception(err, dataPrefix))
	}
	if len(data) < need {
		err := docr.Operationf("Image data holds %d bytes, %dx%d image needs %d", len(data), width, height, need)
		panic(s.exception(err, dataPrefix))
	}

	pix := make([]byte, need)
	copy(pix, data)
	return docr.FromRaw(pix, width, height)
}

// bytesOf accepts only integers in 0..255 from plain arrays.
func bytesOf(v any) ([]byte, error) {
	switch d := v.(type) {
	case goja.ArrayBuffer:
		return d.Bytes(), nil
	case []byte:
		return d, nil
	case []any:
		out := make([]byte, len(d))
		for i, x := range d {
			var n int64
			switch x := x.(type) {
			case int64:
				n = x
			case float64:
				if x != math.Trunc(x) {
					return nil, docr.Operationf("imagedata[%d] is %v, not a byte value", i, x)
				}
				n = int64(x)
			default:
				return nil, docr.Operationf("imagedata[%d] is %v, not a byte value", i, x)
			}
			if n < 0 || n > math.MaxUint8 {
				return nil, docr.Operationf("imagedata[%d] is %d, not a byte value", i, n)
			}
			out[i] = byte(n)
		}
		return out, nil
	default:
		return nil, docr.NewOperationError("imagedata must be an ArrayBuffer, Uint8Array or array of bytes")
	}
}

// exception converts err into the thrown error object, prefixing its message.
func (s *script) exception(err error, prefix string) goja.Value {
	kind, msg := docr.Exception(err)
	s.log.Debug("jsext: throwing", zap.String("kind", string(kind)), zap.Error(err))
	return s.newError(kind, prefix+msg, err)
}

func (s *script) newError(kind docr.ExceptionKind, msg string, cause error) goja.Value {
	args := []goja.Value{s.vm.ToValue(msg)}
	if re, ok := docr.Classify(cause).(*docr.RuntimeError); ok && kind != docr.ExceptionValue {
		args = append(args, s.vm.ToValue(re.Code))
	}
	obj, err := s.vm.New(s.vm.Get(string(kind)), args...)
	if err != nil {
		return s.vm.NewGoError(err)
	}
	return obj
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

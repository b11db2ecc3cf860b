package docr

import (
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// BytesPerPixel is the size of one BGRA8 pixel.
const BytesPerPixel = 4

// PixelBuffer is an image in BGRA8 layout: Pix holds Width*Height pixels,
// four bytes each (blue, green, red, alpha), rows top to bottom. Alpha is
// straight, not premultiplied.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// RequiredLen returns the byte length a width x height BGRA8 buffer must have.
func RequiredLen(width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, Operationf("Invalid image dimensions %dx%d", width, height)
	}
	if width > math.MaxInt/BytesPerPixel/height {
		return 0, Operationf("Image dimensions %dx%d are too large", width, height)
	}
	return width * height * BytesPerPixel, nil
}

// Validate checks that Pix holds exactly Width*Height*4 bytes.
func (b PixelBuffer) Validate() error {
	n, err := RequiredLen(b.Width, b.Height)
	if err != nil {
		return err
	}
	if len(b.Pix) != n {
		return Operationf("Pixel buffer holds %d bytes, %dx%d image needs %d", len(b.Pix), b.Width, b.Height, n)
	}
	return nil
}

// FromRaw wraps caller-supplied pixels without copying them. Length checks
// belong to the caller that owns the memory; the invoker re-validates before
// the engine sees the buffer.
func FromRaw(pix []byte, width, height int) PixelBuffer {
	return PixelBuffer{Width: width, Height: height, Pix: pix}
}

// FromFile decodes an image file into a BGRA8 buffer. Any open or decode
// failure is reported as an OperationError naming the path.
func FromFile(path string) (PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return PixelBuffer{}, Operationf("Failed to open image file: %s", path)
	}
	defer f.Close() //nolint:errcheck

	img, _, err := image.Decode(f)
	if err != nil {
		return PixelBuffer{}, Operationf("Failed to open image file: %s", path)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image to BGRA8 with straight alpha.
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	pix := make([]byte, len(rgba.Pix))
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = rgba.Pix[i+2]
		pix[i+1] = rgba.Pix[i+1]
		pix[i+2] = rgba.Pix[i]
		pix[i+3] = rgba.Pix[i+3]
	}
	return PixelBuffer{Width: bounds.Dx(), Height: bounds.Dy(), Pix: pix}
}

// Image returns the buffer as an *image.NRGBA.
func (b PixelBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i := 0; i+3 < len(b.Pix) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = b.Pix[i+2]
		img.Pix[i+1] = b.Pix[i+1]
		img.Pix[i+2] = b.Pix[i]
		img.Pix[i+3] = b.Pix[i+3]
	}
	return img
}

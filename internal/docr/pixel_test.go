package docr_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docr/internal/docr"
)

func TestRequiredLen(t *testing.T) {
	n, err := docr.RequiredLen(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	_, err = docr.RequiredLen(0, 2)
	assert.True(t, docr.IsOperation(err))

	_, err = docr.RequiredLen(4, -1)
	assert.True(t, docr.IsOperation(err))
}

func TestPixelBuffer_Validate(t *testing.T) {
	assert.NoError(t, docr.FromRaw(make([]byte, 16), 2, 2).Validate())

	err := docr.FromRaw(make([]byte, 15), 2, 2).Validate()
	require.Error(t, err)
	assert.True(t, docr.IsOperation(err))

	err = docr.FromRaw(make([]byte, 20), 2, 2).Validate()
	assert.True(t, docr.IsOperation(err))
}

func TestFromRaw_DoesNotCopy(t *testing.T) {
	pix := make([]byte, 4)
	buf := docr.FromRaw(pix, 1, 1)
	pix[0] = 9
	assert.Equal(t, byte(9), buf.Pix[0])
}

func TestFromFile_DecodesToBGRA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	path := filepath.Join(t.TempDir(), "px.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	buf, err := docr.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Width)
	assert.Equal(t, 1, buf.Height)
	assert.Equal(t, []byte{30, 20, 10, 255, 50, 100, 200, 255}, buf.Pix)
	assert.NoError(t, buf.Validate())
}

func TestFromFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.png")
	_, err := docr.FromFile(path)
	require.Error(t, err)

	var oe *docr.OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "Failed to open image file: "+path, oe.Message)
}

func TestFromFile_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jpg")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := docr.FromFile(path)
	require.Error(t, err)
	assert.Equal(t, "Error: Failed to open image file: "+path, err.Error())
}

func TestFromImage_OffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(6, 5, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	buf := docr.FromImage(src)
	assert.Equal(t, 2, buf.Width)
	assert.Equal(t, 1, buf.Height)
	assert.Equal(t, []byte{3, 2, 1, 255, 6, 5, 4, 255}, buf.Pix)
}

func TestPixelBuffer_ImageRoundTrip(t *testing.T) {
	buf := docr.FromRaw([]byte{3, 2, 1, 255}, 1, 1)
	img := buf.Image()
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, img.NRGBAAt(0, 0))
}

func TestPixelBuffer_StraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})

	buf := docr.FromImage(src)
	assert.Equal(t, []byte{50, 100, 200, 128, 255, 255, 255, 0}, buf.Pix)

	img := buf.Image()
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 128}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, img.NRGBAAt(1, 0))
}

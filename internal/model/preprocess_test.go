package model

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertTensorLayout(t *testing.T, tensor *Tensor) {
	t.Helper()
	require.Equal(t, []int64{1, 224, 224, 3}, tensor.Shape)
	require.Len(t, tensor.Data, 224*224*3)
	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value %f at %d outside [0,1]", v, i)
		}
	}
}

func TestNormalize_Formats(t *testing.T) {
	gradient := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			gradient.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, gradient, &jpeg.Options{Quality: 90}))

	var bm bytes.Buffer
	require.NoError(t, bmp.Encode(&bm, gradient))

	gray := image.NewGray(image.Rect(0, 0, 100, 300))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}

	tests := []struct {
		name string
		raw  []byte
	}{
		{"png landscape", encodePNG(t, gradient)},
		{"jpeg", jpg.Bytes()},
		{"bmp", bm.Bytes()},
		{"grayscale portrait", encodePNG(t, gray)},
		{"tiny", encodePNG(t, solidImage(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := Normalize(tt.raw)
			require.NoError(t, err)
			assertTensorLayout(t, tensor)
		})
	}
}

func TestNormalize_SolidColorScaling(t *testing.T) {
	raw := encodePNG(t, solidImage(300, 150, color.NRGBA{R: 255, G: 0, B: 51, A: 255}))

	tensor, err := Normalize(raw)
	require.NoError(t, err)
	assertTensorLayout(t, tensor)

	for _, px := range []int{0, 224*112 + 112, 224*224 - 1} {
		assert.InDelta(t, 1.0, tensor.Data[px*3+0], 1e-6)
		assert.InDelta(t, 0.0, tensor.Data[px*3+1], 1e-6)
		assert.InDelta(t, 0.2, tensor.Data[px*3+2], 1e-6)
	}
}

func TestNormalize_DropsAlphaWithoutCompositing(t *testing.T) {
	raw := encodePNG(t, solidImage(50, 50, color.NRGBA{R: 0, G: 255, B: 0, A: 64}))

	tensor, err := Normalize(raw)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, tensor.Data[0], 1e-6)
	assert.InDelta(t, 1.0, tensor.Data[1], 1e-6)
	assert.InDelta(t, 0.0, tensor.Data[2], 1e-6)
}

func TestNormalize_NHWCLayout(t *testing.T) {
	// Left half red, right half blue: channel order must be R,G,B per pixel.
	img := image.NewNRGBA(image.Rect(0, 0, 224, 224))
	for y := 0; y < 224; y++ {
		for x := 0; x < 224; x++ {
			if x < 112 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
			}
		}
	}

	tensor, err := NormalizeImage(img)
	require.NoError(t, err)

	left := (10*224 + 5) * 3
	right := (10*224 + 220) * 3
	assert.InDelta(t, 1.0, tensor.Data[left+0], 1e-6)
	assert.InDelta(t, 0.0, tensor.Data[left+2], 1e-6)
	assert.InDelta(t, 0.0, tensor.Data[right+0], 1e-6)
	assert.InDelta(t, 1.0, tensor.Data[right+2], 1e-6)
}

func TestNormalize_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", encodePNG(t, solidImage(20, 20, color.NRGBA{A: 255}))[:30]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := Normalize(tt.raw)
			require.Error(t, err)
			assert.Nil(t, tensor)
			assert.ErrorIs(t, err, apperror.ErrInvalidImage)
			assert.Equal(t, apperror.CodeInvalidInput, apperror.CodeOf(err))
		})
	}
}

// withDimensions rewrites the IHDR chunk of a PNG so it declares w x h pixels.
func withDimensions(t *testing.T, raw []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(raw[12:16]))
	out := bytes.Clone(raw)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestNormalize_RejectsOversizedDimensions(t *testing.T) {
	small := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))

	tests := []struct {
		name string
		w, h uint32
	}{
		{"12000 square", 12000, 12000},
		{"very wide", 1_000_000, 41},
		{"just over", 8000, 5001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := Normalize(withDimensions(t, small, tt.w, tt.h))
			require.Error(t, err)
			assert.Nil(t, tensor)
			assert.ErrorIs(t, err, apperror.ErrInvalidImage)
			assert.Contains(t, err.Error(), "pixel limit")
		})
	}
}

func TestNormalize_WithinPixelBudget(t *testing.T) {
	tensor, err := Normalize(encodePNG(t, image.NewGray(image.Rect(0, 0, 2000, 1500))))
	require.NoError(t, err)
	assertTensorLayout(t, tensor)
}

func TestOpaque(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	assert.Same(t, gray, opaque(gray).(*image.Gray))

	solid := solidImage(4, 4, color.NRGBA{R: 1, A: 255})
	assert.Same(t, solid, opaque(solid).(*image.NRGBA))

	translucent := solidImage(4, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 10})
	view := opaque(translucent)
	require.IsType(t, rgbView{}, view)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, view.At(1, 1))
}

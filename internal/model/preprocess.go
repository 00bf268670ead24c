package model

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
)

const (
	// InputSize is the square edge the model was trained on.
	InputSize = 224
	// Channels is the number of color channels fed to the model.
	Channels = 3
)

// InputShape is the NHWC shape produced by Normalize.
var InputShape = []int64{1, InputSize, InputSize, Channels}

// MaxPixels bounds the decoded size of an upload. The byte limit on the request
// does not bound it, since compressed formats can declare huge dimensions.
const MaxPixels = 40_000_000

// Normalize decodes raw image bytes into a [1,224,224,3] tensor with values in
// [0,1]. The image is stretched to 224x224; aspect ratio is not preserved.
func Normalize(raw []byte) (*Tensor, error) {
	if len(raw) == 0 {
		return nil, apperror.InvalidImage(errors.New("empty image data"))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apperror.InvalidImage(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperror.InvalidImage(errors.New("image has no pixels"))
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, apperror.InvalidImage(
			fmt.Errorf("image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, MaxPixels))
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperror.InvalidImage(err)
	}

	return NormalizeImage(img)
}

// NormalizeImage converts an already decoded image.
func NormalizeImage(img image.Image) (*Tensor, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperror.InvalidImage(errors.New("image has no pixels"))
	}

	resized := resize.Resize(InputSize, InputSize, opaque(img), resize.Bilinear)
	return tensorFromImage(resized), nil
}

// opaque drops alpha without compositing: color channels are taken
// un-premultiplied, matching what a plain RGB conversion of the upload does.
// Images that are already opaque are returned unchanged; the rest are wrapped
// so the resizer samples converted pixels without a full-size copy.
func opaque(img image.Image) image.Image {
	switch img.(type) {
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return img
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	return rgbView{img}
}

type rgbView struct {
	image.Image
}

func (v rgbView) ColorModel() color.Model {
	return color.RGBAModel
}

func (v rgbView) At(x, y int) color.Color {
	c := color.NRGBAModel.Convert(v.Image.At(x, y)).(color.NRGBA)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func tensorFromImage(img image.Image) *Tensor {
	t := NewTensor(InputShape...)
	b := img.Bounds()

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < InputSize; y++ {
			for x := 0; x < InputSize; x++ {
				src := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				dst := (y*InputSize + x) * Channels
				t.Data[dst+0] = float32(rgba.Pix[src+0]) / 255.0
				t.Data[dst+1] = float32(rgba.Pix[src+1]) / 255.0
				t.Data[dst+2] = float32(rgba.Pix[src+2]) / 255.0
			}
		}
		return t
	}

	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			dst := (y*InputSize + x) * Channels
			t.Data[dst+0] = float32(r>>8) / 255.0
			t.Data[dst+1] = float32(g>>8) / 255.0
			t.Data[dst+2] = float32(bl>>8) / 255.0
		}
	}
	return t
}

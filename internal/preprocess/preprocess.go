// Package preprocess turns an encoded image into the classifier's input
// tensor: decode, force three opaque channels, Lanczos resize, scale to
// [0,1], add a batch dimension.
package preprocess

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
)

// Channels is the channel count of every tensor produced here.
const Channels = 3

// Tensor is a float32 NHWC tensor of shape [1, H, W, 3].
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// NewZeroTensor allocates a zero-filled [1, size, size, 3] tensor, used for
// warm-up passes.
func NewZeroTensor(size int) *Tensor {
	return &Tensor{
		Shape: [4]int64{1, int64(size), int64(size), Channels},
		Data:  make([]float32, size*size*Channels),
	}
}

// Release drops the backing buffer. Safe to call more than once and on nil.
func (t *Tensor) Release() {
	if t == nil {
		return
	}
	t.Data = nil
}

// At returns the value at (y, x, c) of the single batch entry.
func (t *Tensor) At(y, x, c int) float32 {
	w := int(t.Shape[2])
	return t.Data[(y*w+x)*Channels+c]
}

// ImageDecodeError reports input bytes that are not a usable image.
type ImageDecodeError struct {
	Reason string
	Err    error
}

func (e *ImageDecodeError) Error() string {
	if e.Err != nil {
		return "image decode: " + e.Reason + ": " + e.Err.Error()
	}
	return "image decode: " + e.Reason
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// IsImageDecodeError reports whether err (or anything it wraps) is an
// ImageDecodeError.
func IsImageDecodeError(err error) bool {
	var de *ImageDecodeError
	return errors.As(err, &de)
}

// Options tune Preprocess. Zero MaxPixels disables the size check.
type Options struct {
	Size      int
	MaxPixels int
}

// Validate checks that raw carries a decodable image header within the size
// limit without decoding pixel data.
func Validate(raw []byte, opts Options) error {
	if opts.Size <= 0 {
		return fmt.Errorf("preprocess: invalid target size %d", opts.Size)
	}
	if len(raw) == 0 {
		return &ImageDecodeError{Reason: "empty input"}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return &ImageDecodeError{Reason: "unrecognised image data", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &ImageDecodeError{Reason: fmt.Sprintf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if opts.MaxPixels > 0 && cfg.Width*cfg.Height > opts.MaxPixels {
		return &ImageDecodeError{Reason: fmt.Sprintf("image too large: %dx%d", cfg.Width, cfg.Height)}
	}
	return nil
}

// Preprocess decodes raw and returns a [1, Size, Size, 3] tensor with values
// in [0,1]. It holds no shared state. Undecodable input yields an
// ImageDecodeError before any tensor is allocated.
func Preprocess(raw []byte, opts Options) (*Tensor, error) {
	if err := Validate(raw, opts); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &ImageDecodeError{Reason: "decode failed", Err: err}
	}

	// Channel conversion happens before resizing so resampling sees the
	// final channel count.
	rgb := toOpaqueRGB(img)
	size := uint(opts.Size)
	resized := resize.Resize(size, size, rgb, resize.Lanczos3)
	return toTensor(resized, opts.Size), nil
}

// toOpaqueRGB converts any colour model to three channels with alpha
// discarded (not composited), matching an RGBA→RGB mode conversion.
func toOpaqueRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			out.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return out
}

func toTensor(img image.Image, size int) *Tensor {
	t := NewZeroTensor(size)
	b := img.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*size + x) * Channels
			t.Data[i] = float32(r>>8) / 255
			t.Data[i+1] = float32(g>>8) / 255
			t.Data[i+2] = float32(bl>>8) / 255
		}
	}
	return t
}

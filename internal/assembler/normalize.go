package assembler

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Flatten returns img as opaque RGB. Transparent and translucent pixels are
// composited over white; grayscale, paletted and CMYK images are converted.
// YCbCr images are already 3-channel and opaque and are returned unchanged.
func Flatten(img image.Image) image.Image {
	if _, ok := img.(*image.YCbCr); ok {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)

	return dst
}

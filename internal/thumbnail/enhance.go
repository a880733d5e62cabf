package thumbnail

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// smoothKernel is the 3x3 smoothing filter used as the sharpness baseline.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// saturate blends img against its luminance by factor. Alpha is kept.
func saturate(img *image.NRGBA, factor float64) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := float64(out.Pix[i]), float64(out.Pix[i+1]), float64(out.Pix[i+2])
		gray := (299*r + 587*g + 114*b) / 1000
		out.Pix[i] = blend(gray, r, factor)
		out.Pix[i+1] = blend(gray, g, factor)
		out.Pix[i+2] = blend(gray, b, factor)
	}
	return out
}

// sharpen blends img against a smoothed copy by factor. Alpha is kept.
func sharpen(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = blend(float64(smooth.Pix[i+c]), float64(out.Pix[i+c]), factor)
		}
	}
	return out
}

// blend returns base + factor*(value-base) clamped to a byte.
func blend(base, value, factor float64) uint8 {
	return uint8(math.Round(clamp(base+factor*(value-base), 0, 255)))
}

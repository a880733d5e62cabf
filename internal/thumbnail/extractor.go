package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"

	"reelpress/internal/logging"
)

// Size is a target bounding box in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is the standard video thumbnail size.
var DefaultSize = Size{Width: 1920, Height: 1080}

// Segmenter removes the background of an image, returning RGBA with the
// subject opaque.
type Segmenter interface {
	RemoveBackground(ctx context.Context, img image.Image) (*image.NRGBA, error)
}

// Extractor runs the cut-out pipeline.
type Extractor struct {
	Segmenter Segmenter
	Logger    *slog.Logger
}

// New returns an Extractor using seg.
func New(seg Segmenter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{Segmenter: seg, Logger: logger}
}

const (
	alphaBlurSigma   = 0.5
	saturationFactor = 1.1
	sharpnessFactor  = 1.1
)

// Extract returns a PNG cut-out of frame fitted into target. Undecodable
// input yields (nil, nil); segmentation failures are returned.
func (e *Extractor) Extract(ctx context.Context, frame []byte, target Size, preserveLighting bool) ([]byte, error) {
	if e.Segmenter == nil {
		return nil, errors.New("thumbnail: segmenter not configured")
	}
	original, ok := decodeOpaque(frame)
	if !ok {
		e.logger().Debug("frame could not be decoded", logging.Int("bytes", len(frame)))
		return nil, nil
	}
	if target.Width <= 0 || target.Height <= 0 {
		target = DefaultSize
	}

	enhanced := EnhanceContrast(original)
	w, h := FitSize(original.Bounds().Dx(), original.Bounds().Dy(), target)

	var out *image.NRGBA
	if preserveLighting {
		resizedOriginal := imaging.Resize(original, w, h, imaging.Lanczos)
		segInput := imaging.Resize(enhanced, w, h, imaging.Lanczos)
		mask, err := e.Segmenter.RemoveBackground(ctx, segInput)
		if err != nil {
			return nil, err
		}
		out = applyAlpha(resizedOriginal, mask)
	} else {
		segInput := imaging.Resize(enhanced, w, h, imaging.Lanczos)
		segmented, err := e.Segmenter.RemoveBackground(ctx, segInput)
		if err != nil {
			return nil, err
		}
		if segmented.Bounds().Dx() != w || segmented.Bounds().Dy() != h {
			segmented = imaging.Resize(segmented, w, h, imaging.Lanczos)
		}
		out = sharpen(saturate(segmented, saturationFactor), sharpnessFactor)
	}
	out = softenAlpha(out, alphaBlurSigma)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

// FitSize scales (w, h) to fit target while keeping the aspect ratio.
func FitSize(w, h int, target Size) (int, int) {
	if w <= 0 || h <= 0 {
		return target.Width, target.Height
	}
	aspect := float64(w) / float64(h)
	targetAspect := float64(target.Width) / float64(target.Height)
	if aspect > targetAspect {
		return target.Width, max(1, int(float64(target.Width)/aspect))
	}
	return max(1, int(float64(target.Height)*aspect)), target.Height
}

// decodeOpaque decodes data and drops any alpha channel.
func decodeOpaque(data []byte) (*image.NRGBA, bool) {
	if len(data) == 0 {
		return nil, false
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, false
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out, true
}

// applyAlpha combines rgb's colour with mask's alpha. A mask of a different
// size is resampled to rgb's bounds.
func applyAlpha(rgb, mask *image.NRGBA) *image.NRGBA {
	w, h := rgb.Bounds().Dx(), rgb.Bounds().Dy()
	if mask.Bounds().Dx() != w || mask.Bounds().Dy() != h {
		mask = imaging.Resize(mask, w, h, imaging.Lanczos)
	}
	out := imaging.Clone(rgb)
	for y := 0; y < h; y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			dst[x*4+3] = src[x*4+3]
		}
	}
	return out
}

// softenAlpha blurs only the alpha channel.
func softenAlpha(img *image.NRGBA, sigma float64) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	alpha := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		alpha.Pix[i], alpha.Pix[i+1], alpha.Pix[i+2], alpha.Pix[i+3] = a, a, a, 0xff
	}
	blurred := imaging.Blur(alpha, sigma)
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+3] = blurred.Pix[i]
	}
	return out
}

package thumbnail

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	claheTiles     = 8
	claheClipLimit = 2.0
	histBins       = 256
)

// EnhanceContrast applies CLAHE to the lightness channel in CIE Lab (D65)
// and converts back to sRGB. Alpha is preserved.
func EnhanceContrast(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return src
	}
	lightness := make([]uint8, w*h)
	as := make([]float64, w*h)
	bs := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4:]
			c := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
			l, a, b := c.Lab()
			i := y*w + x
			lightness[i] = uint8(math.Round(clamp01(l) * 255))
			as[i], bs[i] = a, b
		}
	}

	equalized := clahe(lightness, w, h, claheTiles, claheTiles, claheClipLimit)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, b := colorful.Lab(float64(equalized[i])/255, as[i], bs[i]).Clamped().RGB255()
			dstRow[x*4], dstRow[x*4+1], dstRow[x*4+2], dstRow[x*4+3] = r, g, b, srcRow[x*4+3]
		}
	}
	return out
}

// clahe equalizes an 8-bit plane with contrast-limited adaptive histogram
// equalization over a tilesX by tilesY grid, interpolating the per-tile
// lookup tables bilinearly between tile centres.
func clahe(plane []uint8, w, h, tilesX, tilesY int, clipLimit float64) []uint8 {
	tilesX = min(tilesX, w)
	tilesY = min(tilesY, h)
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	luts := make([][histBins]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			luts[ty*tilesX+tx] = tileLUT(plane, w, x0, y0, x1, y1, clipLimit)
		}
	}

	out := make([]uint8, len(plane))
	for y := 0; y < h; y++ {
		fy := float64(y)/float64(tileH) - 0.5
		ty1 := int(math.Floor(fy))
		ty2 := ty1 + 1
		ya := fy - float64(ty1)
		ty1 = max(ty1, 0)
		ty2 = min(ty2, tilesY-1)
		for x := 0; x < w; x++ {
			fx := float64(x)/float64(tileW) - 0.5
			tx1 := int(math.Floor(fx))
			tx2 := tx1 + 1
			xa := fx - float64(tx1)
			tx1 = max(tx1, 0)
			tx2 = min(tx2, tilesX-1)

			v := plane[y*w+x]
			top := (1-xa)*float64(luts[ty1*tilesX+tx1][v]) + xa*float64(luts[ty1*tilesX+tx2][v])
			bottom := (1-xa)*float64(luts[ty2*tilesX+tx1][v]) + xa*float64(luts[ty2*tilesX+tx2][v])
			out[y*w+x] = uint8(math.Round(clamp((1-ya)*top+ya*bottom, 0, 255)))
		}
	}
	return out
}

func tileLUT(plane []uint8, w, x0, y0, x1, y1 int, clipLimit float64) [histBins]uint8 {
	var hist [histBins]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[plane[y*w+x]]++
		}
	}
	area := (x1 - x0) * (y1 - y0)
	var lut [histBins]uint8
	if area == 0 {
		return lut
	}

	limit := max(int(clipLimit*float64(area)/histBins), 1)
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	batch := excess / histBins
	residual := excess - batch*histBins
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(histBins/residual, 1)
		for i := 0; i < histBins && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}

	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = uint8(math.Round(clamp(float64(sum)*scale, 0, 255)))
	}
	return lut
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

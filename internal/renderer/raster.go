package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/conneroisu/virsqr/internal/errors"
	"github.com/conneroisu/virsqr/internal/qr"
)

func renderRaster(m qr.Matrix, l layout, p palette, cfg Config) (*Output, error) {
	img := image.NewRGBA(image.Rect(0, 0, l.pixels, l.pixels))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.back), image.Point{}, draw.Src)

	fill := image.NewUniform(p.fill)
	for gy := 0; gy < l.side; gy++ {
		for gx := 0; gx < l.side; gx++ {
			x, y, ok := l.matrixCoord(gx, gy)
			if !ok || !m[y][x] {
				continue
			}
			r := image.Rect(gx*l.box, gy*l.box, (gx+1)*l.box, (gy+1)*l.box)
			draw.Draw(img, r, fill, image.Point{}, draw.Src)
		}
	}

	if cfg.Logo != nil {
		coverage := cfg.LogoCoverage
		if coverage == 0 {
			coverage = DefaultLogoCoverage
		}
		if err := overlayLogo(img, cfg.Logo, coverage); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.RenderConfig("raster", "PNG encoding failed").WithCause(err)
	}

	return &Output{
		Format:      FormatRaster,
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Width:       l.pixels,
		Height:      l.pixels,
	}, nil
}

// logoFit is the placement of a scaled logo and its white pad.
type logoFit struct {
	width, height int // scaled logo
	pad           int
}

func (f logoFit) footprint() (int, int) {
	return f.width + 2*f.pad, f.height + 2*f.pad
}

func logoPad(longSide int) int {
	pad := longSide * 8 / 100
	if pad < 2 {
		pad = 2
	}
	return pad
}

// fitLogo finds the largest scale, never above 1, at which a w×h logo plus
// its pad fits within coverage of a side×side image.
func fitLogo(w, h, side int, coverage float64) (logoFit, bool) {
	if w <= 0 || h <= 0 {
		return logoFit{}, false
	}

	long, short := w, h
	if h > w {
		long, short = h, w
	}
	budget := coverage * float64(side) * float64(side)

	at := func(l int) logoFit {
		s := short * l / long
		if s < 1 {
			s = 1
		}
		f := logoFit{width: l, height: s, pad: logoPad(l)}
		if h > w {
			f.width, f.height = s, l
		}
		return f
	}
	fits := func(f logoFit) bool {
		fw, fh := f.footprint()
		return fw <= side && fh <= side && float64(fw)*float64(fh) <= budget
	}

	lo, hi := 0, long
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(at(mid)) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return logoFit{}, false
	}
	return at(lo), true
}

// overlayLogo composites logo over the centre of img after the grid has
// been drawn.
func overlayLogo(img *image.RGBA, logo image.Image, coverage float64) error {
	side := img.Bounds().Dx()
	src := logo.Bounds()

	fit, ok := fitLogo(src.Dx(), src.Dy(), side, coverage)
	if !ok {
		return errors.RenderConfig("logo_coverage", "logo does not fit within the configured coverage").
			WithContext("coverage", coverage).
			WithContext("image_side", side)
	}

	fw, fh := fit.footprint()
	x0 := (side - fw) / 2
	y0 := (side - fh) / 2

	padRect := image.Rect(x0, y0, x0+fw, y0+fh)
	draw.Draw(img, padRect, image.NewUniform(color.White), image.Point{}, draw.Src)

	logoRect := image.Rect(x0+fit.pad, y0+fit.pad, x0+fit.pad+fit.width, y0+fit.pad+fit.height)
	if fit.width == src.Dx() && fit.height == src.Dy() {
		draw.Draw(img, logoRect, logo, src.Min, draw.Over)
		return nil
	}
	draw.CatmullRom.Scale(img, logoRect, logo, src, draw.Over, nil)
	return nil
}

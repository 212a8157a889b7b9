package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// EnhanceConfig tunes the four enhancement steps. Zero values take defaults.
type EnhanceConfig struct {
	BlockSize      int     // adaptive threshold neighbourhood, odd, default 11
	ThresholdC     float64 // subtracted from the gaussian mean, default 2
	DenoiseH       float64 // NL-means filter strength, default 3
	TemplateWindow int     // NL-means patch size, odd, default 7
	SearchWindow   int     // NL-means search area, odd, default 21
	Contrast       float64 // linear gain, default 1.5
}

func (c EnhanceConfig) withDefaults() EnhanceConfig {
	if c.BlockSize <= 0 {
		c.BlockSize = 11
	}
	if c.ThresholdC == 0 {
		c.ThresholdC = 2
	}
	if c.DenoiseH <= 0 {
		c.DenoiseH = 3
	}
	if c.TemplateWindow <= 0 {
		c.TemplateWindow = 7
	}
	if c.SearchWindow <= 0 {
		c.SearchWindow = 21
	}
	if c.Contrast <= 0 {
		c.Contrast = 1.5
	}
	return c
}

// Step is one named image transform.
type Step struct {
	Name  string
	Apply func(context.Context, image.Image) (image.Image, error)
}

// Enhancer prepares an image for OCR. Enhance never fails: if any step errors,
// panics or runs past ctx, the caller gets the input image back untouched.
type Enhancer struct {
	steps  []Step
	logger *slog.Logger
}

// NewEnhancer builds the standard pipeline: grayscale, adaptive gaussian
// threshold, non-local-means denoise, contrast.
func NewEnhancer(cfg EnhanceConfig, logger *slog.Logger) *Enhancer {
	cfg = cfg.withDefaults()
	return NewEnhancerWithSteps(logger,
		Step{Name: "grayscale", Apply: grayscaleStep},
		Step{Name: "adaptive_threshold", Apply: func(_ context.Context, img image.Image) (image.Image, error) {
			return AdaptiveThreshold(asGray(img), cfg.BlockSize, cfg.ThresholdC)
		}},
		Step{Name: "denoise", Apply: func(ctx context.Context, img image.Image) (image.Image, error) {
			return DenoiseNLMeans(ctx, asGray(img), cfg.DenoiseH, cfg.TemplateWindow, cfg.SearchWindow)
		}},
		Step{Name: "contrast", Apply: func(_ context.Context, img image.Image) (image.Image, error) {
			return ScaleContrast(img, cfg.Contrast, 0), nil
		}},
	)
}

// NewEnhancerWithSteps is used by tests to inject a failing step.
func NewEnhancerWithSteps(logger *slog.Logger, steps ...Step) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{steps: steps, logger: logger}
}

func (e *Enhancer) Enhance(ctx context.Context, src image.Image) (out image.Image) {
	if src == nil {
		return nil
	}
	step := ""
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("ocr.enhance.panic", "step", step, "panic", fmt.Sprint(r))
			out = src
		}
	}()

	img := src
	for _, s := range e.steps {
		step = s.Name
		if err := ctx.Err(); err != nil {
			e.logger.Warn("ocr.enhance.cancelled", "step", s.Name, "error", err)
			return src
		}
		next, err := s.Apply(ctx, img)
		if err == nil && next == nil {
			err = errors.New("step returned no image")
		}
		if err != nil {
			e.logger.Warn("ocr.enhance.failed", "step", s.Name, "error", err)
			return src
		}
		img = next
	}
	return img
}

func grayscaleStep(_ context.Context, img image.Image) (image.Image, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty image")
	}
	return asGray(imaging.Grayscale(img)), nil
}

// asGray returns img as an 8-bit gray image with bounds starting at (0,0).
func asGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return g
}

// ScaleContrast computes saturate(|p*alpha + beta|) per channel.
func ScaleContrast(img image.Image, alpha, beta float64) *image.NRGBA {
	scale := func(v uint8) uint8 {
		return saturate(math.Abs(float64(v)*alpha + beta))
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

package ocr

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solidGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func sampleRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: 200, A: 255})
		}
	}
	return img
}

type stubEngine struct {
	method constants.ExtractionMethod
	text   string
	err    error
	panics bool
	calls  atomic.Int32
}

func (s *stubEngine) Method() constants.ExtractionMethod { return s.method }

func (s *stubEngine) Recognize(_ context.Context, _ image.Image) (string, error) {
	s.calls.Add(1)
	if s.panics {
		panic("engine exploded")
	}
	return s.text, s.err
}

func colorGray(v uint8) color.Gray { return color.Gray{Y: v} }

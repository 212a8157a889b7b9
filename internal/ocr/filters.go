package ocr

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AdaptiveThreshold binarizes src against a gaussian-weighted local mean:
// a pixel becomes 255 when it is brighter than mean-c, else 0. The kernel
// sigma follows the usual 0.3*((block-1)*0.5-1)+0.8 rule and borders are
// replicated.
func AdaptiveThreshold(src *image.Gray, block int, c float64) (*image.Gray, error) {
	if block < 3 || block%2 == 0 {
		return nil, fmt.Errorf("adaptive threshold: block size must be odd and >= 3, got %d", block)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("adaptive threshold: empty image")
	}

	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	kernel := gaussianKernel(block, sigma)
	r := block / 2

	// horizontal pass
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * float64(row[clamp(x+k, 0, w-1)])
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * tmp[clamp(y+k, 0, h-1)*w+x]
			}
			mean := math.Round(acc)
			if float64(src.Pix[y*src.Stride+x]) > mean-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst, nil
}

// DenoiseNLMeans is non-local-means denoising for 8-bit gray images. Each
// output pixel is the weighted average of pixels in a search x search window,
// weighted by exp(-d/h^2) where d is the mean squared difference of the
// template x template patches around them. Rows are split into bands that
// run concurrently; ctx is checked once per search offset.
func DenoiseNLMeans(ctx context.Context, src *image.Gray, h float64, template, search int) (*image.Gray, error) {
	if template < 1 || template%2 == 0 || search < 1 || search%2 == 0 {
		return nil, fmt.Errorf("nl-means: window sizes must be odd, got template=%d search=%d", template, search)
	}
	if h <= 0 {
		return nil, fmt.Errorf("nl-means: filter strength must be positive")
	}
	w, ht := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || ht == 0 {
		return nil, fmt.Errorf("nl-means: empty image")
	}

	rt, rs := template/2, search/2
	n := &nlMeans{
		w:        w,
		template: template,
		rt:       rt,
		rs:       rs,
		pad:      rt + rs,
		area:     int64(template * template),
		lut:      nlMeansWeights(h),
	}
	n.pw = w + 2*n.pad
	ph := ht + 2*n.pad

	// replicate-padded copy
	n.padded = make([]int32, n.pw*ph)
	for y := 0; y < ph; y++ {
		sy := clamp(y-n.pad, 0, ht-1)
		for x := 0; x < n.pw; x++ {
			sx := clamp(x-n.pad, 0, w-1)
			n.padded[y*n.pw+x] = int32(src.Pix[sy*src.Stride+sx])
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, ht))
	bands := min(runtime.GOMAXPROCS(0), ht)
	rows := (ht + bands - 1) / bands

	g, gctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < ht; y0 += rows {
		y1 := min(y0+rows, ht)
		g.Go(func() error { return n.band(gctx, dst, y0, y1) })
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("nl-means: %w", err)
	}
	return dst, nil
}

// nlMeansWeights maps a mean squared patch difference (0..255^2) to its weight.
func nlMeansWeights(h float64) []float64 {
	h2 := h * h
	lut := make([]float64, 255*255+1)
	for d := range lut {
		lut[d] = math.Exp(-float64(d) / h2)
	}
	return lut
}

type nlMeans struct {
	padded   []int32
	pw       int
	w        int
	template int
	rt, rs   int
	pad      int
	area     int64
	lut      []float64
}

// band denoises output rows [y0, y1) into dst.
func (n *nlMeans) band(ctx context.Context, dst *image.Gray, y0, y1 int) error {
	rows := y1 - y0
	// diff grid covers every pixel a template around an output pixel can touch
	dw, dh := n.w+2*n.rt, rows+2*n.rt
	stride := dw + 1
	integral := make([]int64, stride*(dh+1))
	sumW := make([]float64, n.w*rows)
	sumV := make([]float64, n.w*rows)

	for dy := -n.rs; dy <= n.rs; dy++ {
		for dx := -n.rs; dx <= n.rs; dx++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			// integral image of squared differences for this offset
			for b := 0; b < dh; b++ {
				var rowSum int64
				py := y0 + b + n.rs
				for a := 0; a < dw; a++ {
					px := a + n.rs
					d := int64(n.padded[py*n.pw+px] - n.padded[(py+dy)*n.pw+px+dx])
					rowSum += d * d
					integral[(b+1)*stride+a+1] = integral[b*stride+a+1] + rowSum
				}
			}
			for y := 0; y < rows; y++ {
				ty := y + n.template
				src := (y0+y+n.pad+dy)*n.pw + n.pad + dx
				for x := 0; x < n.w; x++ {
					tx := x + n.template
					ssd := integral[ty*stride+tx] - integral[y*stride+tx] - integral[ty*stride+x] + integral[y*stride+x]
					wt := n.lut[ssd/n.area]
					i := y*n.w + x
					sumW[i] += wt
					sumV[i] += wt * float64(n.padded[src+x])
				}
			}
		}
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < n.w; x++ {
			i := y*n.w + x
			dst.Pix[(y0+y)*dst.Stride+x] = saturate(sumV[i] / sumW[i])
		}
	}
	return nil
}

func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	r := size / 2
	var sum float64
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

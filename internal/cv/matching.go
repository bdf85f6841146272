package cv

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
)

// Error types
var (
	ErrTemplateTooLarge = errors.New("template larger than search area")
	ErrInvalidImage     = errors.New("invalid image provided")
)

// MatchResult is the outcome of one matching attempt
type MatchResult struct {
	Found      bool
	Center     image.Point // center of the matched box, frame coordinates
	Location   image.Point // top-left of the matched box, frame coordinates
	Confidence float64     // best correlation, clamped to [0, 1]
}

// Matcher finds a template in a frame
type Matcher interface {
	Match(frame, tmpl *image.Gray, threshold float64, region *Region) (MatchResult, error)
}

// searchArea validates inputs and returns the rectangle to scan
func searchArea(frame, tmpl *image.Gray, region *Region) (image.Rectangle, error) {
	if frame == nil || tmpl == nil || frame.Bounds().Empty() || tmpl.Bounds().Empty() {
		return image.Rectangle{}, ErrInvalidImage
	}

	search := frame.Bounds()
	if region != nil {
		search = region.Rect().Intersect(search)
	}

	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	if tw > search.Dx() || th > search.Dy() {
		return image.Rectangle{}, fmt.Errorf("%w: template %dx%d, search area %dx%d",
			ErrTemplateTooLarge, tw, th, search.Dx(), search.Dy())
	}
	return search, nil
}

// result builds a MatchResult from a best location relative to search
func result(search image.Rectangle, tmpl *image.Gray, loc image.Point, score, threshold float64) MatchResult {
	confidence := math.Max(0, math.Min(1, score))
	abs := search.Min.Add(loc)
	return MatchResult{
		Found:      confidence >= threshold,
		Location:   abs,
		Center:     abs.Add(image.Pt(tmpl.Bounds().Dx()/2, tmpl.Bounds().Dy()/2)),
		Confidence: confidence,
	}
}

// NCCMatcher is a pure Go zero-mean normalized cross-correlation matcher
// (the TM_CCOEFF_NORMED score). Rows of the correlation surface are split
// across Workers goroutines.
type NCCMatcher struct {
	Workers int
}

// NewNCCMatcher returns a matcher using one worker per CPU
func NewNCCMatcher() *NCCMatcher {
	return &NCCMatcher{Workers: runtime.NumCPU()}
}

type candidate struct {
	loc   image.Point
	score float64
}

// better orders by score, then row-major position
func (c candidate) better(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	if c.loc.Y != o.loc.Y {
		return c.loc.Y < o.loc.Y
	}
	return c.loc.X < o.loc.X
}

// Match implements Matcher
func (m *NCCMatcher) Match(frame, tmpl *image.Gray, threshold float64, region *Region) (MatchResult, error) {
	search, err := searchArea(frame, tmpl, region)
	if err != nil {
		return MatchResult{}, err
	}

	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	sw, sh := search.Dx(), search.Dy()
	n := float64(tw * th)

	// zero-mean template
	tvals := make([]float64, tw*th)
	var tsum float64
	for y := 0; y < th; y++ {
		row := tmpl.Pix[y*tmpl.Stride : y*tmpl.Stride+tw]
		for x, v := range row {
			tvals[y*tw+x] = float64(v)
			tsum += float64(v)
		}
	}
	tmean := tsum / n
	var tnorm float64
	for i := range tvals {
		tvals[i] -= tmean
		tnorm += tvals[i] * tvals[i]
	}
	tnorm = math.Sqrt(tnorm)

	// search area pixels plus integral images of I and I^2
	pix := make([]float64, sw*sh)
	sum := make([]float64, (sw+1)*(sh+1))
	sq := make([]float64, (sw+1)*(sh+1))
	for y := 0; y < sh; y++ {
		off := (search.Min.Y+y-frame.Rect.Min.Y)*frame.Stride + (search.Min.X - frame.Rect.Min.X)
		var rowSum, rowSq float64
		for x := 0; x < sw; x++ {
			v := float64(frame.Pix[off+x])
			pix[y*sw+x] = v
			rowSum += v
			rowSq += v * v
			sum[(y+1)*(sw+1)+x+1] = sum[y*(sw+1)+x+1] + rowSum
			sq[(y+1)*(sw+1)+x+1] = sq[y*(sw+1)+x+1] + rowSq
		}
	}
	box := func(table []float64, x, y int) float64 {
		w := sw + 1
		return table[(y+th)*w+x+tw] - table[y*w+x+tw] - table[(y+th)*w+x] + table[y*w+x]
	}

	rows := sh - th + 1
	cols := sw - tw + 1

	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > rows {
		workers = rows
	}

	bests := make([]candidate, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			best := candidate{score: math.Inf(-1)}
			for y := w; y < rows; y += workers {
				for x := 0; x < cols; x++ {
					score := 0.0
					if tnorm > 0 {
						s := box(sum, x, y)
						variance := box(sq, x, y) - s*s/n
						if variance > 1e-6 {
							var num float64
							for j := 0; j < th; j++ {
								frow := pix[(y+j)*sw+x : (y+j)*sw+x+tw]
								trow := tvals[j*tw : (j+1)*tw]
								for i, v := range frow {
									num += v * trow[i]
								}
							}
							score = num / (tnorm * math.Sqrt(variance))
						}
					}
					c := candidate{loc: image.Pt(x, y), score: score}
					if c.better(best) {
						best = c
					}
				}
			}
			bests[w] = best
		}(w)
	}
	wg.Wait()

	best := bests[0]
	for _, c := range bests[1:] {
		if c.better(best) {
			best = c
		}
	}

	return result(search, tmpl, best.loc, best.score, threshold), nil
}

// ToGray converts any image to 8-bit luminance using the 299/587/114 weights
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < bounds.Dy(); y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b := row[x*4], row[x*4+1], row[x*4+2]
				gray.Pix[y*gray.Stride+x] = uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)
			}
		}
	case *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b := row[x*4], row[x*4+1], row[x*4+2]
				gray.Pix[y*gray.Stride+x] = uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)
			}
		}
	default:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				gray.Pix[y*gray.Stride+x] = uint8(((r>>8)*299 + (g>>8)*587 + (b>>8)*114) / 1000)
			}
		}
	}

	return gray
}

// Crop copies a rectangle out of img into a new image anchored at (0,0)
func Crop(img *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(img.Bounds())
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		src := img.Pix[(rect.Min.Y+y-img.Rect.Min.Y)*img.Stride+(rect.Min.X-img.Rect.Min.X):]
		copy(out.Pix[y*out.Stride:y*out.Stride+rect.Dx()], src[:rect.Dx()])
	}
	return out
}

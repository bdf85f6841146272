//go:build gocv

package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultMatcher returns the OpenCV matcher
func DefaultMatcher() Matcher {
	return OpenCVMatcher{}
}

// OpenCVMatcher runs cv::matchTemplate with TM_CCOEFF_NORMED
type OpenCVMatcher struct{}

// Match implements Matcher
func (OpenCVMatcher) Match(frame, tmpl *image.Gray, threshold float64, region *Region) (MatchResult, error) {
	search, err := searchArea(frame, tmpl, region)
	if err != nil {
		return MatchResult{}, err
	}

	src, err := gocv.ImageGrayToMatGray(Crop(frame, search))
	if err != nil {
		return MatchResult{}, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer src.Close()

	tm, err := gocv.ImageGrayToMatGray(Crop(tmpl, tmpl.Bounds()))
	if err != nil {
		return MatchResult{}, fmt.Errorf("failed to convert template: %w", err)
	}
	defer tm.Close()

	surface := gocv.NewMat()
	defer surface.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(src, tm, &surface, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(surface)

	return result(search, tmpl, maxLoc, float64(maxVal), threshold), nil
}

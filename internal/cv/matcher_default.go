//go:build !gocv

package cv

// DefaultMatcher returns the pure Go matcher. Build with -tags gocv to use
// OpenCV instead.
func DefaultMatcher() Matcher {
	return NewNCCMatcher()
}

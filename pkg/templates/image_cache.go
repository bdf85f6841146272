package templates

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	"jordanella.com/clan-bot-go/internal/cv"
)

// ImageCache keeps decoded grayscale template images keyed by path and size
type ImageCache struct {
	images map[string]*image.Gray
	mu     sync.RWMutex
	stats  CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
	Loads   int64
	Evicted int64
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.Gray),
	}
}

func cacheKey(path string, size image.Point) string {
	if size == (image.Point{}) {
		return path
	}
	return fmt.Sprintf("%s@%dx%d", path, size.X, size.Y)
}

// Get returns the template at path as grayscale. A non-zero size resizes it
// to exactly size.
func (ic *ImageCache) Get(path string, size image.Point) (*image.Gray, error) {
	key := cacheKey(path, size)

	ic.mu.RLock()
	img, ok := ic.images[key]
	ic.mu.RUnlock()
	if ok {
		ic.mu.Lock()
		ic.stats.Hits++
		ic.mu.Unlock()
		return img, nil
	}

	img, err := loadGray(path)
	if err != nil {
		return nil, err
	}
	if size != (image.Point{}) && size != img.Bounds().Size() {
		img = cv.ToGray(resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear))
	}

	ic.mu.Lock()
	ic.images[key] = img
	ic.stats.Misses++
	ic.stats.Loads++
	ic.mu.Unlock()

	return img, nil
}

// Invalidate drops every cached variant of path
func (ic *ImageCache) Invalidate(path string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	for key := range ic.images {
		if key == path || strings.HasPrefix(key, path+"@") {
			delete(ic.images, key)
			ic.stats.Evicted++
		}
	}
}

// Clear drops everything
func (ic *ImageCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.stats.Evicted += int64(len(ic.images))
	ic.images = make(map[string]*image.Gray)
}

// Stats returns a snapshot of the counters
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	s := ic.stats
	s.Entries = len(ic.images)
	return s
}

// loadGray decodes an image file into grayscale
func loadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", path, err)
	}
	return cv.ToGray(img), nil
}

package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/internal/logging"
)

// MetadataFile is the region hint file inside the templates directory
const MetadataFile = "templates.json"

// ErrTemplateMissing is returned when a template image does not exist
var ErrTemplateMissing = errors.New("template image not found")

// RegionHint narrows where a template is searched for. Region is expressed
// in ScreenSize coordinates.
type RegionHint struct {
	Region     cv.Region
	ScreenSize image.Point
	UseRegion  bool
}

// Registry resolves template names ("menu/bt_ok.png") to images and region
// hints
type Registry struct {
	mu     sync.RWMutex
	dir    string
	hints  map[string]RegionHint
	cache  *ImageCache
	logger *logging.Logger
}

// NewRegistry creates a registry rooted at dir. Call Load to read hints.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		hints:  make(map[string]RegionHint),
		cache:  NewImageCache(),
		logger: logging.NewLogger("Templates"),
	}
}

// Dir returns the templates directory
func (r *Registry) Dir() string {
	return r.dir
}

// MetadataPath returns the full path of templates.json
func (r *Registry) MetadataPath() string {
	return filepath.Join(r.dir, MetadataFile)
}

// Path returns the image path for a template name
func (r *Registry) Path(name string) string {
	return filepath.Join(r.dir, filepath.FromSlash(name))
}

// Cache exposes the image cache
func (r *Registry) Cache() *ImageCache {
	return r.cache
}

// Load reads templates.json. A missing or malformed file leaves the registry
// without hints; individual malformed entries are skipped.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.MetadataPath())
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn(fmt.Sprintf("Cannot read %s, continuing without region hints: %v", r.MetadataPath(), err))
		}
		r.replaceHints(map[string]RegionHint{})
		return nil
	}

	hints, skipped := ParseHints(data)
	if hints == nil {
		r.logger.Warn(fmt.Sprintf("Malformed %s, continuing without region hints", r.MetadataPath()))
		hints = map[string]RegionHint{}
	}
	for _, name := range skipped {
		r.logger.Warn(fmt.Sprintf("Ignoring malformed region hint for %s", name))
	}

	r.replaceHints(hints)
	r.logger.InfoWithContext("Loaded region hints", map[string]interface{}{"count": len(hints)})
	return nil
}

func (r *Registry) replaceHints(hints map[string]RegionHint) {
	r.mu.Lock()
	r.hints = hints
	r.mu.Unlock()
}

// ParseHints decodes the templates.json document. It returns nil for a
// document that is not a JSON object, plus the names of skipped entries.
func ParseHints(data []byte) (map[string]RegionHint, []string) {
	if !gjson.ValidBytes(data) {
		return nil, nil
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil
	}

	hints := make(map[string]RegionHint)
	var skipped []string
	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		region := value.Get("region").Array()
		if len(region) != 4 {
			skipped = append(skipped, name)
			return true
		}
		hint := RegionHint{
			Region:    cv.NewRegion(int(region[0].Int()), int(region[1].Int()), int(region[2].Int()), int(region[3].Int())),
			UseRegion: value.Get("use_region").Bool(),
		}
		if size := value.Get("screen_size").Array(); len(size) == 2 {
			hint.ScreenSize = image.Pt(int(size[0].Int()), int(size[1].Int()))
		}
		hints[name] = hint
		return true
	})
	sort.Strings(skipped)
	return hints, skipped
}

// Hint returns the stored hint for a template
func (r *Registry) Hint(name string) (RegionHint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hints[name]
	return h, ok
}

// SetHint stores a hint in memory; call Save to persist it
func (r *Registry) SetHint(name string, hint RegionHint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints[name] = hint
}

type hintJSON struct {
	Region     [4]int `json:"region"`
	ScreenSize [2]int `json:"screen_size"`
	UseRegion  bool   `json:"use_region"`
}

// Save writes all hints back to templates.json
func (r *Registry) Save() error {
	r.mu.RLock()
	out := make(map[string]hintJSON, len(r.hints))
	for name, h := range r.hints {
		out[name] = hintJSON{
			Region:     [4]int{h.Region.X1, h.Region.Y1, h.Region.X2, h.Region.Y2},
			ScreenSize: [2]int{h.ScreenSize.X, h.ScreenSize.Y},
			UseRegion:  h.UseRegion,
		}
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode region hints: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	if err := os.WriteFile(r.MetadataPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.MetadataPath(), err)
	}
	return nil
}

// SearchRegion returns the hint region scaled to frameSize, or nil when the
// template has no hint or its hint is disabled
func (r *Registry) SearchRegion(name string, frameSize image.Point) *cv.Region {
	h, ok := r.Hint(name)
	if !ok || !h.UseRegion {
		return nil
	}
	region := h.Region.Scale(h.ScreenSize, frameSize)
	return &region
}

// Resolve loads a template image for a frame of the given size, together
// with its search region. Templates captured at a different resolution are
// resized by the same ratio.
func (r *Registry) Resolve(name string, frameSize image.Point) (*image.Gray, *cv.Region, error) {
	path := r.Path(name)

	var size image.Point
	if h, ok := r.Hint(name); ok && h.ScreenSize.X > 0 && h.ScreenSize.Y > 0 && h.ScreenSize != frameSize && frameSize.X > 0 {
		base, err := r.cache.Get(path, image.Point{})
		if err != nil {
			return nil, nil, err
		}
		b := base.Bounds().Size()
		size = image.Pt(
			max(1, b.X*frameSize.X/h.ScreenSize.X),
			max(1, b.Y*frameSize.Y/h.ScreenSize.Y),
		)
	}

	img, err := r.cache.Get(path, size)
	if err != nil {
		return nil, nil, err
	}
	return img, r.SearchRegion(name, frameSize), nil
}

// List returns template names under a subdirectory (e.g. "troops"),
// without extension, sorted
func (r *Registry) List(subdir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, filepath.FromSlash(subdir)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isImage(e.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}

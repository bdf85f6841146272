package templates

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"jordanella.com/clan-bot-go/internal/cv"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestParseHints(t *testing.T) {
	doc := `{
		"menu/bt_ok.png": {"region": [10, 20, 110, 70], "screen_size": [860, 732], "use_region": true},
		"menu/bt_off.png": {"region": [0, 0, 5, 5], "screen_size": [860, 732], "use_region": false},
		"broken.png": {"region": [1, 2, 3]},
		"also_broken.png": "nope"
	}`

	hints, skipped := ParseHints([]byte(doc))
	if hints == nil {
		t.Fatal("expected hints")
	}
	if len(hints) != 2 {
		t.Fatalf("expected 2 hints, got %d", len(hints))
	}

	ok := hints["menu/bt_ok.png"]
	if ok.Region != (cv.Region{X1: 10, Y1: 20, X2: 110, Y2: 70}) {
		t.Errorf("unexpected region %v", ok.Region)
	}
	if ok.ScreenSize != image.Pt(860, 732) || !ok.UseRegion {
		t.Errorf("unexpected hint %+v", ok)
	}
	if hints["menu/bt_off.png"].UseRegion {
		t.Error("use_region false was not honored")
	}

	if len(skipped) != 2 || skipped[0] != "also_broken.png" || skipped[1] != "broken.png" {
		t.Errorf("unexpected skipped list %v", skipped)
	}
}

func TestParseHintsMalformed(t *testing.T) {
	tests := []string{`{not json`, `[1, 2, 3]`, `"text"`}
	for _, doc := range tests {
		if hints, _ := ParseHints([]byte(doc)); hints != nil {
			t.Errorf("ParseHints(%q) = %v, want nil", doc, hints)
		}
	}
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)
	if err := r.Load(); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if _, ok := r.Hint("anything.png"); ok {
		t.Error("expected no hints")
	}

	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte("{oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(); err != nil {
		t.Fatalf("malformed file should not fail: %v", err)
	}
	if _, ok := r.Hint("anything.png"); ok {
		t.Error("expected no hints after malformed load")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)
	r.SetHint("a.png", RegionHint{Region: cv.NewRegion(1, 2, 30, 40), ScreenSize: image.Pt(860, 732), UseRegion: true})
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	loaded := NewRegistry(dir)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	h, ok := loaded.Hint("a.png")
	if !ok {
		t.Fatal("hint not persisted")
	}
	if h.Region != cv.NewRegion(1, 2, 30, 40) || h.ScreenSize != image.Pt(860, 732) || !h.UseRegion {
		t.Errorf("unexpected hint after reload: %+v", h)
	}
}

func TestSearchRegion(t *testing.T) {
	r := NewRegistry(t.TempDir())
	r.SetHint("on.png", RegionHint{Region: cv.NewRegion(100, 100, 200, 200), ScreenSize: image.Pt(800, 600), UseRegion: true})
	r.SetHint("off.png", RegionHint{Region: cv.NewRegion(100, 100, 200, 200), ScreenSize: image.Pt(800, 600)})

	if got := r.SearchRegion("missing.png", image.Pt(800, 600)); got != nil {
		t.Errorf("expected nil region for unknown template, got %v", got)
	}
	if got := r.SearchRegion("off.png", image.Pt(800, 600)); got != nil {
		t.Errorf("expected nil region for disabled hint, got %v", got)
	}

	same := r.SearchRegion("on.png", image.Pt(800, 600))
	if same == nil || *same != cv.NewRegion(100, 100, 200, 200) {
		t.Errorf("unexpected region at reference size: %v", same)
	}

	doubled := r.SearchRegion("on.png", image.Pt(1600, 1200))
	if doubled == nil || *doubled != cv.NewRegion(200, 200, 400, 400) {
		t.Errorf("unexpected scaled region: %v", doubled)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "menu", "bt_ok.png"), 20, 10)
	r := NewRegistry(dir)

	img, region, err := r.Resolve("menu/bt_ok.png", image.Pt(860, 732))
	if err != nil {
		t.Fatal(err)
	}
	if region != nil {
		t.Errorf("expected no region without a hint, got %v", region)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("unexpected size %v", img.Bounds())
	}

	r.SetHint("menu/bt_ok.png", RegionHint{Region: cv.NewRegion(0, 0, 100, 100), ScreenSize: image.Pt(430, 366), UseRegion: true})
	img, region, err = r.Resolve("menu/bt_ok.png", image.Pt(860, 732))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("expected template scaled to 40x20, got %v", img.Bounds())
	}
	if region == nil || *region != cv.NewRegion(0, 0, 200, 200) {
		t.Errorf("unexpected region %v", region)
	}
}

func TestResolveMissing(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, _, err := r.Resolve("nope.png", image.Pt(860, 732))
	if !errors.Is(err, ErrTemplateMissing) {
		t.Errorf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestImageCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")
	writePNG(t, path, 8, 8)

	c := NewImageCache()
	if _, err := c.Get(path, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(path, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(path, image.Pt(4, 4)); err != nil {
		t.Fatal(err)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Loads != 2 || s.Entries != 2 {
		t.Errorf("unexpected stats %+v", s)
	}

	c.Invalidate(path)
	if s := c.Stats(); s.Entries != 0 || s.Evicted != 2 {
		t.Errorf("unexpected stats after invalidate %+v", s)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "troops", "giant.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "troops", "archer.png"), 2, 2)
	if err := os.WriteFile(filepath.Join(dir, "troops", "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(dir)
	names, err := r.List("troops")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "archer" || names[1] != "giant" {
		t.Errorf("unexpected names %v", names)
	}

	names, err = r.List("spells")
	if err != nil || names != nil {
		t.Errorf("expected empty list for missing dir, got %v, %v", names, err)
	}
}

package main

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"jordanella.com/clan-bot-go/internal/cv"
	"jordanella.com/clan-bot-go/pkg/templates"
)

// safeFilename keeps letters, digits, '_', '-' and '.'
func safeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ensurePNG(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return name
	}
	return name + ".png"
}

// uniquePath returns dir/filename, or dir/base_N.ext for the first N that
// does not exist yet
func uniquePath(dir, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	candidate := filepath.Join(dir, filename)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// parseRegion reads "x1,y1,x2,y2"
func parseRegion(s string) (cv.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return cv.Region{}, fmt.Errorf("region must be x1,y1,x2,y2, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return cv.Region{}, fmt.Errorf("invalid region coordinate %q", p)
		}
		v[i] = n
	}
	return cv.NewRegion(v[0], v[1], v[2], v[3]), nil
}

// cropRegion copies region out of img. The region must lie inside the image
// and not be empty.
func cropRegion(img image.Image, region cv.Region) (*image.RGBA, error) {
	rect := image.Rect(region.X1, region.Y1, region.X2, region.Y2).Add(img.Bounds().Min)
	if rect.Empty() {
		return nil, fmt.Errorf("empty region %v", rect)
	}
	if !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("region %v outside screenshot %v", rect, img.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out, nil
}

func loadImage(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

func savePNG(filename string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// preview scales img up so small templates can be inspected
func preview(img image.Image, scale int) image.Image {
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*scale), uint(b.Dy()*scale), img, resize.NearestNeighbor)
}

type grabRequest struct {
	Screenshot image.Image
	Region     cv.Region
	Name       string // as typed; sanitized before use
	Subdir     string
	UseRegion  bool
}

// grab crops the template, writes it under the registry and records its
// region hint in templates.json. It returns the template name.
func grab(reg *templates.Registry, req grabRequest) (string, error) {
	crop, err := cropRegion(req.Screenshot, req.Region)
	if err != nil {
		return "", err
	}

	filename := ensurePNG(safeFilename(req.Name))
	if strings.TrimSuffix(filename, ".png") == "" {
		return "", fmt.Errorf("invalid template name %q", req.Name)
	}

	target := uniquePath(reg.Path(req.Subdir), filename)
	if err := savePNG(target, crop); err != nil {
		return "", fmt.Errorf("failed to save template: %w", err)
	}

	name := path.Join(filepath.ToSlash(req.Subdir), filepath.Base(target))
	size := req.Screenshot.Bounds().Size()
	reg.SetHint(name, templates.RegionHint{
		Region:     req.Region,
		ScreenSize: size,
		UseRegion:  req.UseRegion,
	})
	if err := reg.Save(); err != nil {
		return name, err
	}
	return name, nil
}

package device

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"jordanella.com/clan-bot-go/internal/cv"
)

// Capture takes a screenshot and returns it as grayscale. Every call
// captures a fresh frame.
func (s *Session) Capture(ctx context.Context) (*image.Gray, error) {
	f, err := os.CreateTemp(s.config.Touch.LocalTempDir, "screen-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create screenshot file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := s.adb.Screenshot(ctx, path); err != nil {
		return nil, err
	}
	return decodeGray(path)
}

// CaptureToFile saves a screenshot at path
func (s *Session) CaptureToFile(ctx context.Context, path string) error {
	return s.adb.Screenshot(ctx, path)
}

func decodeGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return cv.ToGray(img), nil
}

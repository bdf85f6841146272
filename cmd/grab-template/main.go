package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jordanella.com/clan-bot-go/internal/adb"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/logging"
	"jordanella.com/clan-bot-go/pkg/templates"
)

func main() {
	settingsPath := flag.String("settings", "Settings.ini", "path to Settings.ini")
	screenshot := flag.String("screenshot", "", "screenshot to crop (default: capture from the device)")
	regionFlag := flag.String("region", "", "area to crop as x1,y1,x2,y2")
	name := flag.String("name", "", "template name")
	subdir := flag.String("subdir", "", "subdirectory of the templates directory, e.g. menu")
	useRegion := flag.Bool("use-region", true, "restrict matching to the cropped area")
	previewScale := flag.Int("preview", 0, "also write an enlarged preview at this scale")
	flag.Parse()

	logger := logging.NewLogger("Grab")

	if *regionFlag == "" || *name == "" {
		flag.Usage()
		os.Exit(2)
	}
	region, err := parseRegion(*regionFlag)
	if err != nil {
		logger.Fatal("Bad region", err)
	}

	settings, err := config.Load(*settingsPath)
	if err != nil {
		logger.Fatal("Failed to load settings", err)
	}

	source := *screenshot
	if source == "" {
		source, err = captureFromDevice(settings)
		if err != nil {
			logger.Fatal("Failed to capture screenshot", err)
		}
		defer os.Remove(source)
	}

	img, err := loadImage(source)
	if err != nil {
		logger.Fatal("Failed to load screenshot", err)
	}

	reg := templates.NewRegistry(settings.Game.TemplatesDir)
	if err := reg.Load(); err != nil {
		logger.Fatal("Failed to read region hints", err)
	}

	saved, err := grab(reg, grabRequest{
		Screenshot: img,
		Region:     region,
		Name:       *name,
		Subdir:     *subdir,
		UseRegion:  *useRegion,
	})
	if err != nil {
		logger.Fatal("Failed to grab template", err)
	}
	logger.InfoWithContext("Saved template", map[string]interface{}{
		"template": saved,
		"region":   region.String(),
	})

	if *previewScale > 1 {
		crop, err := loadImage(reg.Path(saved))
		if err != nil {
			logger.Fatal("Failed to reload template", err)
		}
		out := strings.TrimSuffix(reg.Path(saved), ".png") + fmt.Sprintf(".preview_x%d.png", *previewScale)
		out = filepath.Join(os.TempDir(), filepath.Base(out))
		if err := savePNG(out, preview(crop, *previewScale)); err != nil {
			logger.Fatal("Failed to write preview", err)
		}
		logger.Info(fmt.Sprintf("Preview written to %s", out))
	}
}

func captureFromDevice(settings *config.Settings) (string, error) {
	adbPath, err := adb.FindADB(settings.ADB.Path)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ctrl := adb.NewController(adbPath, settings.ADB.Host, settings.ADB.Port, nil)
	if err := ctrl.Connect(ctx); err != nil {
		return "", err
	}
	target := filepath.Join(os.TempDir(), fmt.Sprintf("grab_%d.png", time.Now().UnixNano()))
	if err := ctrl.Screenshot(ctx, target); err != nil {
		return "", err
	}
	return target, nil
}

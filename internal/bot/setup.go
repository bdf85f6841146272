package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/logging"
)

// SetupEmulator restarts the emulator at the target resolution, connects a
// device through connect, opens the game and, once the village shows,
// applies the in-game settings. The returned chores are bound to the new
// device; loaded reports whether the village was detected.
func SetupEmulator(ctx context.Context, emu Emulator, connect Connector, cfg Config, screen config.ScreenSettings) (chores *Chores, loaded bool, err error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger("Bot")
	}
	logger := cfg.Logger

	logger.Info(fmt.Sprintf("Restarting emulator at %dx%d", screen.Width, screen.Height))
	info, err := emu.Setup(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("emulator setup failed: %w", err)
	}
	logger.InfoWithContext("Emulator is up", map[string]interface{}{
		"width":   info.Width,
		"height":  info.Height,
		"density": info.Density,
	})

	dev, err := connect(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to connect device: %w", err)
	}
	cfg.Device = dev
	chores = New(cfg)

	if err := dev.SetScreenSize(ctx, screen.Width, screen.Height); err != nil {
		return chores, false, err
	}
	if err := dev.SetDensity(ctx, screen.DPI); err != nil {
		return chores, false, err
	}
	if err := dev.Sleep(ctx, time.Second); err != nil {
		return chores, false, err
	}

	if err := chores.InitGame(ctx); err != nil {
		return chores, false, err
	}

	loaded, err = chores.CheckVillageLoaded(ctx)
	if err != nil {
		return chores, false, err
	}
	if !loaded {
		logger.Warn("Village not detected, check the emulator manually")
		return chores, false, nil
	}

	if err := chores.ConfigLanguage(ctx); err != nil {
		return chores, true, err
	}
	if err := chores.ConfigAttackLayout(ctx); err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			return chores, true, err
		}
		logger.Warn("Attack layout setting not found, leaving it unchanged")
	}
	logger.Info("Emulator setup complete")
	return chores, true, nil
}

package bot

import (
	"context"
	"errors"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
)

const (
	gameLoadTimeout = 50 * time.Second
	zoomSteps       = 15
	zoomDuration    = 500 * time.Millisecond
	villageRetries  = 5
)

// InitGame launches the game, waits for the village and frames it: two
// full zoom-outs followed by a centering drag.
func (c *Chores) InitGame(ctx context.Context) error {
	c.logger.Info("Initializing game")

	if err := c.dev.OpenApp(ctx, c.config.Package); err != nil {
		return err
	}

	_, err := c.dev.WaitImage(ctx, tmplArmy, gameLoadTimeout, actions.WithThreshold(menuThreshold))
	switch {
	case errors.Is(err, actions.ErrTimeout):
		c.logger.Warn("Army button did not show up, continuing anyway")
	case err != nil:
		if err := c.skip(tmplArmy, err); err != nil {
			return err
		}
	}

	for _, pause := range []time.Duration{500 * time.Millisecond, 300 * time.Millisecond} {
		if err := c.dev.ZoomOut(ctx, zoomSteps, zoomDuration); err != nil {
			return err
		}
		if err := c.dev.Sleep(ctx, pause); err != nil {
			return err
		}
	}

	return c.dev.CenterView(ctx, c.config.MoveRight, c.config.MoveDown)
}

// CheckVillageLoaded looks for the army button a few times, then for the
// attack button as a fallback
func (c *Chores) CheckVillageLoaded(ctx context.Context) (bool, error) {
	for i := 0; i < villageRetries; i++ {
		found, err := c.find(ctx, tmplArmy)
		if err != nil || found {
			return found, err
		}
		if err := c.dev.Sleep(ctx, 2*time.Second); err != nil {
			return false, err
		}
	}
	return c.find(ctx, tmplAttack)
}

func (c *Chores) find(ctx context.Context, name string) (bool, error) {
	res, err := c.dev.FindTemplate(ctx, name, villageThreshold)
	if err != nil {
		return false, c.skip(name, err)
	}
	return res.Found, nil
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/adb"
)

// ErrSettingNotFound is returned when a settings entry never scrolls into view
var ErrSettingNotFound = errors.New("setting not found")

const (
	settingsScrolls = 3
	settingsHold    = 300 * time.Millisecond
	englishLabel    = "English"
)

var (
	languageDragTarget = image.Pt(731, 700)
	barSizeDragTarget  = image.Pt(115, 472)
)

// ConfigLanguage switches the game to English. The template flow is tried
// first; the uiautomator text lookup is the fallback.
func (c *Chores) ConfigLanguage(ctx context.Context) error {
	if err := c.openSettings(ctx); err != nil {
		return err
	}

	done, err := c.exists(ctx, tmplEnglishOK, menuThreshold)
	if err != nil {
		return err
	}
	if done {
		c.logger.Info("Game language is already English")
		_, err := c.goHome(ctx)
		return err
	}

	if _, err := c.tap(ctx, tmplLanguage, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}
	if err := c.dev.Sleep(ctx, time.Second); err != nil {
		return err
	}

	english, err := c.exists(ctx, tmplEnglish, menuThreshold)
	if err != nil {
		return err
	}
	for i := 0; !english && i < settingsScrolls; i++ {
		if err := c.drag(ctx, tmplDragLanguage, languageDragTarget); err != nil {
			return err
		}
		if err := c.dev.Sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
		if english, err = c.exists(ctx, tmplEnglish, menuThreshold); err != nil {
			return err
		}
	}

	if english {
		if _, err := c.tap(ctx, tmplEnglish, actions.WithThreshold(menuThreshold)); err != nil {
			return err
		}
	} else if err := c.dev.TapText(ctx, englishLabel); err != nil {
		if !errors.Is(err, adb.ErrNodeNotFound) {
			return err
		}
		c.logger.Warn(fmt.Sprintf("%q not found in the language list", englishLabel))
	}

	if err := c.dev.Sleep(ctx, time.Second); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplOKAll, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}
	_, err = c.goHome(ctx)
	return err
}

// ConfigAttackLayout drags the troop bar size slider to its default
func (c *Chores) ConfigAttackLayout(ctx context.Context) error {
	if err := c.openSettings(ctx); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplMoreSettings, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}

	for i := 0; i < settingsScrolls; i++ {
		visible, err := c.tapIfVisible(ctx, tmplBarSizeMenu)
		if err != nil {
			return err
		}
		if visible {
			if err := c.dev.Sleep(ctx, time.Second); err != nil {
				return err
			}
			if err := c.drag(ctx, tmplBarSize, barSizeDragTarget); err != nil {
				return err
			}
			if err := c.dev.Sleep(ctx, 2*time.Second); err != nil {
				return err
			}
			_, err := c.goHome(ctx)
			return err
		}

		if err := c.dev.ScrollVertical(ctx, 50, nil); err != nil {
			return err
		}
		if err := c.dev.Sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrSettingNotFound, tmplBarSizeMenu)
}

func (c *Chores) openSettings(ctx context.Context) error {
	if _, err := c.goHome(ctx); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplSettings, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}
	return c.dev.Sleep(ctx, time.Second)
}

func (c *Chores) drag(ctx context.Context, name string, target image.Point) error {
	_, err := c.dev.DragFromImage(ctx, name, target, settingsHold, actions.WithThreshold(menuThreshold))
	if err != nil {
		return c.skip(name, err)
	}
	return nil
}

package bot

import (
	"context"
	"errors"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
)

const (
	keycodeBack    = 4
	maxBackPresses = 10
)

// ErrChatUnavailable is returned when the clan chat button cannot be found
var ErrChatUnavailable = errors.New("clan chat is not reachable")

// GoHome presses BACK until the army button shows up. A cancel button
// (the "exit game?" prompt) is tapped and counts as home.
func (c *Chores) GoHome(ctx context.Context) error {
	home, err := c.goHome(ctx)
	if err != nil {
		return err
	}
	if !home {
		return ErrNotHome
	}
	return nil
}

func (c *Chores) goHome(ctx context.Context) (bool, error) {
	if ok, err := c.exists(ctx, tmplArmy, menuThreshold); err != nil || ok {
		return ok, err
	}

	for i := 0; i < maxBackPresses; i++ {
		if err := c.dev.KeyEvent(ctx, keycodeBack); err != nil {
			return false, err
		}
		if err := c.dev.Sleep(ctx, 500*time.Millisecond); err != nil {
			return false, err
		}

		if ok, err := c.exists(ctx, tmplArmy, menuThreshold); err != nil || ok {
			return ok, err
		}
		cancel, err := c.exists(ctx, tmplCancel, menuThreshold)
		if err != nil {
			return false, err
		}
		if cancel {
			_, err := c.tap(ctx, tmplCancel, actions.WithThreshold(menuThreshold))
			return err == nil, err
		}

		if err := c.dev.Sleep(ctx, time.Second); err != nil {
			return false, err
		}
	}

	c.logger.Warn("Village screen not reached after pressing BACK")
	return false, nil
}

// OpenArmy opens the army window unless it is already open
func (c *Chores) OpenArmy(ctx context.Context) error {
	open, err := c.exists(ctx, tmplArmyOpen, menuThreshold)
	if err != nil {
		return err
	}
	if !open {
		if _, err := c.goHome(ctx); err != nil {
			return err
		}
		if _, err := c.tap(ctx, tmplArmy, actions.WithThreshold(menuThreshold)); err != nil {
			return err
		}
	}
	return c.dev.Sleep(ctx, 500*time.Millisecond)
}

// OpenChat opens the clan chat, going home first if the button is hidden
func (c *Chores) OpenChat(ctx context.Context) error {
	opened, err := c.tapIfVisible(ctx, tmplChat)
	if err != nil || opened {
		return err
	}

	// already open
	open, err := c.exists(ctx, tmplCloseChat, menuThreshold)
	if err != nil || open {
		return err
	}

	home, err := c.goHome(ctx)
	if err != nil {
		return err
	}
	if home {
		opened, err := c.tapIfVisible(ctx, tmplChat)
		if err != nil || opened {
			return err
		}
	}
	return ErrChatUnavailable
}

// CloseChat closes the clan chat if it is open
func (c *Chores) CloseChat(ctx context.Context) error {
	_, err := c.tap(ctx, tmplCloseChat, actions.WithThreshold(menuThreshold))
	return err
}

// tapIfVisible taps name only if a single capture shows it
func (c *Chores) tapIfVisible(ctx context.Context, name string) (bool, error) {
	visible, err := c.exists(ctx, name, menuThreshold)
	if err != nil || !visible {
		return false, err
	}
	return c.tap(ctx, name, actions.WithThreshold(menuThreshold))
}

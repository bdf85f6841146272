package bot

import (
	"context"
	"fmt"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
)

// maxDonations bounds one DonateCastle pass
const maxDonations = 50

// DonateCastle fills open castle requests from the chat. Super troops are
// preferred over spells, spells over troops. Returns the number of taps
// that donated something.
func (c *Chores) DonateCastle(ctx context.Context) (int, error) {
	c.logger.Info("Starting castle donation")

	if err := c.OpenChat(ctx); err != nil {
		return 0, err
	}
	if _, err := c.tap(ctx, tmplDonateCastle, actions.WithThreshold(menuThreshold)); err != nil {
		return 0, err
	}
	if err := c.dev.Sleep(ctx, 2*time.Second); err != nil {
		return 0, err
	}

	donations := 0
	for donations < maxDonations {
		donated, err := c.donateOnce(ctx)
		if err != nil {
			return donations, err
		}
		if !donated {
			break
		}
		donations++
		if err := c.dev.Sleep(ctx, 500*time.Millisecond); err != nil {
			return donations, err
		}
	}

	c.logger.Info(fmt.Sprintf("Donation complete, %d donations", donations))
	return donations, nil
}

func (c *Chores) donateOnce(ctx context.Context) (bool, error) {
	for _, name := range []string{tmplDonateSuperTroop, tmplDonateSpell, tmplDonateTroop} {
		tapped, err := c.tap(ctx, name, actions.WithThreshold(menuThreshold), actions.WithRetries(1))
		if err != nil || tapped {
			return tapped, err
		}
	}
	return false, nil
}

// RequestCastle sends a castle troop request from the army window
func (c *Chores) RequestCastle(ctx context.Context) error {
	c.logger.Info("Requesting castle troops")

	if err := c.OpenArmy(ctx); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplRequestCastle, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}
	if err := c.dev.Sleep(ctx, 2*time.Second); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplSendTroops, actions.WithThreshold(menuThreshold)); err != nil {
		return err
	}
	return c.dev.Sleep(ctx, time.Second)
}

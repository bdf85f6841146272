package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/config"
)

// Troop list geometry in the army window at 860x732
const (
	troopScrollX      = 750
	troopScrollY      = 617
	troopScrollPixels = 150
	troopMaxScrolls   = 5
)

// DeleteArmy empties the trained army. Castle troops are removed only
// when castle is set.
func (c *Chores) DeleteArmy(ctx context.Context, castle bool) error {
	if err := c.OpenArmy(ctx); err != nil {
		return err
	}
	if err := c.dev.Sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}

	buttons := []string{tmplDeleteMachine, tmplDeleteSpell, tmplDeleteTroop}
	if castle {
		buttons = append([]string{tmplDeleteCastle}, buttons...)
	}

	for _, button := range buttons {
		tapped, err := c.tap(ctx, button, actions.WithRetries(1))
		if err != nil {
			return err
		}
		if !tapped {
			continue
		}
		if err := c.dev.Sleep(ctx, 300*time.Millisecond); err != nil {
			return err
		}
		if _, err := c.tap(ctx, tmplOK, actions.WithRetries(1)); err != nil {
			return err
		}
	}
	return nil
}

// CreateArmy queues every troop of army, scrolling the troop list to find
// each one. Troops that cannot be found are skipped.
func (c *Chores) CreateArmy(ctx context.Context, army *config.Army) error {
	if army == nil || len(army.Troops) == 0 {
		c.logger.Warn("No troops configured in army.json")
		return nil
	}

	if err := c.OpenArmy(ctx); err != nil {
		return err
	}
	if _, err := c.tap(ctx, tmplTroopsCreate, actions.WithThreshold(createThreshold)); err != nil {
		return err
	}
	if err := c.dev.Sleep(ctx, time.Second); err != nil {
		return err
	}

	c.logger.Info(fmt.Sprintf("Creating army with %d troop types", len(army.Troops)))

	for _, troop := range army.Troops {
		if troop.Name == "" {
			continue
		}
		quantity := troop.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		c.logger.InfoWithContext("Adding troop", map[string]interface{}{
			"troop":    troop.Name,
			"quantity": quantity,
		})

		if err := c.addTroop(ctx, troop, quantity); err != nil {
			return err
		}
	}

	c.logger.Info("Army creation complete")
	return nil
}

func (c *Chores) addTroop(ctx context.Context, troop config.Unit, quantity int) error {
	name := troop.TemplateName(TroopKind)
	for i := 0; i < quantity; i++ {
		_, err := c.dev.FindAndTapWithScroll(ctx, name,
			actions.WithThreshold(troopThreshold),
			actions.WithAnchor(troopScrollX, troopScrollY),
			actions.WithScroll(troopScrollPixels),
			actions.WithMaxScrolls(troopMaxScrolls),
			actions.WithSettle(2*time.Second),
		)
		if err != nil {
			if errors.Is(err, actions.ErrNotFound) {
				c.logger.Warn(fmt.Sprintf("Could not find %s, skipping", troop.Name))
				return nil
			}
			return c.skip(name, err)
		}
		if err := c.dev.Sleep(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// TrainArmy replaces the current army with army and closes the window
func (c *Chores) TrainArmy(ctx context.Context, army *config.Army) error {
	c.logger.Info("Training new army")

	if err := c.DeleteArmy(ctx, false); err != nil {
		return err
	}
	if err := c.dev.Sleep(ctx, time.Second); err != nil {
		return err
	}
	if err := c.CreateArmy(ctx, army); err != nil {
		return err
	}
	_, err := c.tap(ctx, tmplClose, actions.WithThreshold(createThreshold))
	return err
}

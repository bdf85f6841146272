package bot

import (
	"context"
	"errors"
	"fmt"

	"jordanella.com/clan-bot-go/internal/actions"
	"jordanella.com/clan-bot-go/internal/config"
	"jordanella.com/clan-bot-go/internal/logging"
	"jordanella.com/clan-bot-go/pkg/templates"
)

// Chore names. They double as translation keys under gui.buttons.
const (
	ChoreGoHome             = "go_home"
	ChoreInitGame           = "init_game"
	ChoreCenterView         = "center_view"
	ChoreDeleteArmy         = "delete_army"
	ChoreCreateArmy         = "create_army"
	ChoreTrainArmy          = "train_army"
	ChoreDonateCastle       = "donate_castle"
	ChoreRequestCastle      = "request_castle"
	ChoreConfigLanguage     = "config_language"
	ChoreConfigAttackLayout = "config_attack_layout"
)

// ErrNotHome is returned when the village screen could not be reached
var ErrNotHome = errors.New("could not return to the village screen")

// Config wires the chores
type Config struct {
	Device  Device
	Package string

	// Army returns the composition to train. Nil means an empty army.
	Army func() *config.Army

	// CenterView offsets used by InitGame
	MoveRight int
	MoveDown  int

	Logger *logging.Logger
}

// Chores runs game flows on top of a device
type Chores struct {
	dev    Device
	config Config
	logger *logging.Logger
}

// New creates the chores for cfg.Device
func New(cfg Config) *Chores {
	if cfg.MoveRight == 0 && cfg.MoveDown == 0 {
		cfg.MoveRight, cfg.MoveDown = 100, 50
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("Bot")
	}
	return &Chores{
		dev:    cfg.Device,
		config: cfg,
		logger: logger,
	}
}

// Chore is a named operation for the runner
type Chore struct {
	Name string
	Run  func(ctx context.Context) error
}

// Catalog lists the chores in the order the control panel shows them
func (c *Chores) Catalog() []Chore {
	return []Chore{
		{ChoreInitGame, c.InitGame},
		{ChoreCenterView, func(ctx context.Context) error {
			return c.dev.CenterView(ctx, c.config.MoveRight, c.config.MoveDown)
		}},
		{ChoreGoHome, c.GoHome},
		{ChoreDeleteArmy, func(ctx context.Context) error { return c.DeleteArmy(ctx, true) }},
		{ChoreCreateArmy, func(ctx context.Context) error { return c.CreateArmy(ctx, c.army()) }},
		{ChoreTrainArmy, func(ctx context.Context) error { return c.TrainArmy(ctx, c.army()) }},
		{ChoreDonateCastle, func(ctx context.Context) error {
			_, err := c.DonateCastle(ctx)
			return err
		}},
		{ChoreRequestCastle, c.RequestCastle},
		{ChoreConfigLanguage, c.ConfigLanguage},
		{ChoreConfigAttackLayout, c.ConfigAttackLayout},
	}
}

func (c *Chores) army() *config.Army {
	if c.config.Army == nil {
		return &config.Army{}
	}
	if a := c.config.Army(); a != nil {
		return a
	}
	return &config.Army{}
}

// tap taps name if it shows up. A miss or a missing template file is
// reported as false, not as an error.
func (c *Chores) tap(ctx context.Context, name string, opts ...actions.Option) (bool, error) {
	if _, err := c.dev.TapImage(ctx, name, opts...); err != nil {
		return false, c.skip(name, err)
	}
	return true, nil
}

// exists checks for name in a single capture
func (c *Chores) exists(ctx context.Context, name string, threshold float64) (bool, error) {
	found, err := c.dev.ImageExists(ctx, name, actions.WithThreshold(threshold))
	if err != nil {
		return false, c.skip(name, err)
	}
	return found, nil
}

// skip swallows the errors that only mean "not there"
func (c *Chores) skip(name string, err error) error {
	switch {
	case errors.Is(err, actions.ErrNotFound):
		c.logger.Debug(fmt.Sprintf("%s not on screen, skipping", name))
		return nil
	case errors.Is(err, templates.ErrTemplateMissing):
		c.logger.Warn(fmt.Sprintf("Template %s is missing, skipping", name))
		return nil
	}
	return err
}

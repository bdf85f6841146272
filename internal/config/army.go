package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"jordanella.com/clan-bot-go/internal/logging"
)

// Unit is one troop or spell and how many to train
type Unit struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Army is the composition trained by the army chores
type Army struct {
	Troops []Unit `json:"troops"`
	Spells []Unit `json:"spells"`
}

// TemplateName returns the template identifier for a troop
func (u Unit) TemplateName(kind string) string {
	return kind + "/" + u.Name + ".png"
}

// Empty reports whether nothing would be trained
func (a *Army) Empty() bool {
	return len(a.Troops) == 0 && len(a.Spells) == 0
}

// LoadArmy reads army.json. A missing or malformed file gives an empty
// army; entries without a name or with a non-positive quantity are dropped.
func LoadArmy(path string) *Army {
	logger := logging.NewLogger("Config")
	army := &Army{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(fmt.Sprintf("Cannot read %s: %v", path, err))
		}
		return army
	}
	if !gjson.ValidBytes(data) {
		logger.Warn(fmt.Sprintf("Malformed %s, using an empty army", path))
		return army
	}

	doc := gjson.ParseBytes(data)
	army.Troops = parseUnits(doc.Get("troops"))
	army.Spells = parseUnits(doc.Get("spells"))
	return army
}

func parseUnits(list gjson.Result) []Unit {
	var units []Unit
	for _, item := range list.Array() {
		name := strings.TrimSpace(item.Get("name").String())
		qty := int(item.Get("quantity").Int())
		if name == "" || qty <= 0 {
			continue
		}
		units = append(units, Unit{Name: name, Quantity: qty})
	}
	return units
}

// SaveArmy writes army.json
func SaveArmy(path string, army *Army) error {
	out := *army
	if out.Troops == nil {
		out.Troops = []Unit{}
	}
	if out.Spells == nil {
		out.Spells = []Unit{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode army: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

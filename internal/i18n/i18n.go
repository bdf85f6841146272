// Package i18n translates GUI and log strings. Keys are dotted paths into
// the locale files, e.g. "gui.buttons.create_army".
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
	"jordanella.com/clan-bot-go/internal/logging"
)

const (
	DefaultLanguage  = "pt-BR"
	FallbackLanguage = "en-US"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves keys in the current language, falling back to en-US
// and finally to the key itself
type Translator struct {
	mu        sync.RWMutex
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
	current   string
	languages map[string]bool
	logger    *logging.Logger
}

// New loads the built-in locales and selects lang
func New(lang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.MustParse(FallbackLanguage))
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	t := &Translator{
		bundle:    bundle,
		languages: make(map[string]bool),
		logger:    logging.NewLogger("I18n"),
	}

	entries, err := builtin.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		file, err := bundle.LoadMessageFileFS(builtin, "locales/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", e.Name(), err)
		}
		t.languages[file.Tag.String()] = true
	}

	t.SetLanguage(lang)
	return t, nil
}

// LoadDir adds every *.yaml locale found in dir. Later files override
// built-in messages with the same key.
func (t *Translator) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, path := range files {
		file, err := t.bundle.LoadMessageFile(path)
		if err != nil {
			t.logger.Warn(fmt.Sprintf("Skipping locale %s: %v", path, err))
			continue
		}
		t.languages[file.Tag.String()] = true
	}
	t.localizer = goi18n.NewLocalizer(t.bundle, t.current, FallbackLanguage)
	return nil
}

// SetLanguage switches language. Unknown codes select the fallback.
func (t *Translator) SetLanguage(lang string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lang == "" {
		lang = DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil || !t.languages[tag.String()] {
		t.logger.Warn(fmt.Sprintf("Language '%s' not found, using fallback '%s'", lang, FallbackLanguage))
		lang = FallbackLanguage
	} else {
		lang = tag.String()
	}

	t.current = lang
	t.localizer = goi18n.NewLocalizer(t.bundle, lang, FallbackLanguage)
}

// Language returns the active language code
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Languages lists the loaded language codes
func (t *Translator) Languages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.languages))
	for l := range t.languages {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// T translates key. data fills {{.Name}} placeholders.
func (t *Translator) T(key string, data ...map[string]interface{}) string {
	t.mu.RLock()
	localizer := t.localizer
	t.mu.RUnlock()

	cfg := &goi18n.LocalizeConfig{MessageID: key}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	// A key missing in the active language comes back with the fallback
	// text and a MessageNotFoundErr.
	msg, err := localizer.Localize(cfg)
	var notFound *goi18n.MessageNotFoundErr
	if msg == "" || (err != nil && !errors.As(err, &notFound)) {
		return key
	}
	return msg
}

// Exists reports whether key has a translation in any loaded language
func (t *Translator) Exists(key string) bool {
	return t.T(key) != key
}

// WriteDefaults exports the built-in locales into dir for editing. Existing
// files are left alone.
func WriteDefaults(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entries, err := builtin.ReadDir("locales")
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(dir, e.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		data, err := builtin.ReadFile("locales/" + e.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// ParseTag normalizes a language code such as "pt_br" to "pt-BR"
func ParseTag(code string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

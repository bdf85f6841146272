package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLanguage(t *testing.T) {
	tr, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Language() != "pt-BR" {
		t.Errorf("expected pt-BR, got %s", tr.Language())
	}
	if got := tr.T("gui.buttons.create_army"); got != "Criar Exército" {
		t.Errorf("unexpected translation %q", got)
	}
}

func TestSetLanguage(t *testing.T) {
	tr, err := New("pt-BR")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lang string
		want string
		key  string
		text string
	}{
		{"en-US", "en-US", "gui.tabs.army", "Army"},
		{"pt-BR", "pt-BR", "gui.tabs.army", "Exército"},
		{"xx-YY", "en-US", "gui.tabs.army", "Army"},
		{"not a tag!", "en-US", "gui.tabs.log", "Log"},
	}
	for _, tt := range tests {
		tr.SetLanguage(tt.lang)
		if tr.Language() != tt.want {
			t.Errorf("SetLanguage(%q) selected %s, want %s", tt.lang, tr.Language(), tt.want)
		}
		if got := tr.T(tt.key); got != tt.text {
			t.Errorf("%s: T(%s) = %q, want %q", tt.lang, tt.key, got, tt.text)
		}
	}
}

func TestTemplateData(t *testing.T) {
	tr, err := New("en-US")
	if err != nil {
		t.Fatal(err)
	}
	got := tr.T("gui.messages.troop_already_in_army", map[string]interface{}{"Troop": "giant"})
	if got != "giant is already in army!" {
		t.Errorf("unexpected %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	tr, err := New("pt-BR")
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.T("gui.nope"); got != "gui.nope" {
		t.Errorf("missing key should return the key, got %q", got)
	}
	if tr.Exists("gui.nope") || !tr.Exists("gui.title") {
		t.Error("Exists() is wrong")
	}
}

func TestLoadDirFallback(t *testing.T) {
	dir := t.TempDir()
	content := "gui:\n  title: \"Panneau\"\n"
	if err := os.WriteFile(filepath.Join(dir, "fr-FR.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := New("pt-BR")
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	tr.SetLanguage("fr-FR")

	if tr.Language() != "fr-FR" {
		t.Fatalf("expected fr-FR, got %s", tr.Language())
	}
	if got := tr.T("gui.title"); got != "Panneau" {
		t.Errorf("unexpected title %q", got)
	}
	if got := tr.T("gui.tabs.army"); got != "Army" {
		t.Errorf("expected en-US fallback, got %q", got)
	}
}

func TestWriteDefaults(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "en-US.yaml")
	if err := os.WriteFile(existing, []byte("gui:\n  title: \"mine\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefaults(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pt-BR.yaml")); err != nil {
		t.Error("pt-BR.yaml not exported")
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "gui:\n  title: \"mine\"\n" {
		t.Error("existing file was overwritten")
	}
}

func TestParseTag(t *testing.T) {
	got, err := ParseTag("pt_br")
	if err != nil || got != "pt-BR" {
		t.Errorf("ParseTag(pt_br) = %s, %v", got, err)
	}
}

func TestPartialLocaleFallsBackPerKey(t *testing.T) {
	dir := t.TempDir()
	content := "gui:\n  title: \"Panel\"\n"
	if err := os.WriteFile(filepath.Join(dir, "es-ES.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tr, err := New("pt-BR")
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	tr.SetLanguage("es-ES")

	tests := []struct {
		key  string
		want string
	}{
		{"gui.title", "Panel"},
		{"gui.tabs.army", "Army"},
		{"gui.no.such.key", "gui.no.such.key"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tr.T(tt.key); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
	if !tr.Exists("gui.tabs.army") {
		t.Error("fallback key should exist")
	}
}

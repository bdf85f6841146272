package adb

import (
	"context"
	"errors"
	"image"
	"testing"
)

const sampleDump = `UI hierchary dumped to: /data/local/tmp/window_dump.xml
<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0">
<node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.android.settings" content-desc="" clickable="false" bounds="[0,0][860,732]">
  <node index="0" text="Display" resource-id="android:id/title" class="android.widget.TextView" package="com.android.settings" content-desc="" clickable="true" bounds="[40,100][240,150]" />
  <node index="1" text="Languages &amp; input" resource-id="com.android.settings:id/lang" class="android.widget.TextView" package="com.android.settings" content-desc="Language settings" clickable="true" bounds="[40,200][300,260]" />
</node>
</hierarchy>`

func TestParseUIDumpAndFind(t *testing.T) {
	root, err := ParseUIDump(sampleDump)
	if err != nil {
		t.Fatalf("ParseUIDump() error = %v", err)
	}

	tests := []struct {
		name   string
		query  Query
		center image.Point
		ok     bool
	}{
		{"exact text", Query{Text: "Display"}, image.Pt(140, 125), true},
		{"contains text", Query{Contains: "Languages"}, image.Pt(170, 230), true},
		{"contains desc", Query{Contains: "Language settings"}, image.Pt(170, 230), true},
		{"short id", Query{ResourceID: "lang"}, image.Pt(170, 230), true},
		{"full id", Query{ResourceID: "android:id/title"}, image.Pt(140, 125), true},
		{"class and text", Query{Class: "android.widget.TextView", Text: "Display"}, image.Pt(140, 125), true},
		{"missing", Query{Text: "Wi-Fi"}, image.Point{}, false},
		{"empty query", Query{}, image.Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, ok := root.Find(tt.query)
			if ok != tt.ok {
				t.Fatalf("Find() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			c, ok := node.Center()
			if !ok || c != tt.center {
				t.Errorf("Center() = %v, want %v", c, tt.center)
			}
		})
	}
}

func TestParseUIDumpRejectsGarbage(t *testing.T) {
	if _, err := ParseUIDump("ERROR: null root node returned by UiTestAutomationBridge."); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindNodeNotFound(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) { return sampleDump, nil }}
	_, err := newTestController(r).FindNode(context.Background(), Query{Text: "Bluetooth"})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("FindNode() error = %v, want ErrNodeNotFound", err)
	}
}

package emulator

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

const instancePrefix = "bst.instance."

var (
	// ErrConfNotFound is returned when bluestacks.conf does not exist
	ErrConfNotFound = errors.New("bluestacks.conf not found")
	// ErrNoInstance is returned when no instance with an adb_port is defined
	ErrNoInstance = errors.New("could not detect BlueStacks instance")
)

// Resolution is the framebuffer forced on the instance
type Resolution struct {
	Width  int
	Height int
	DPI    int
}

// Conf is an in-memory bluestacks.conf. Reads go through ini; writes edit
// the original lines so untouched keys keep their exact formatting.
type Conf struct {
	path  string
	lines []string
	file  *ini.File
}

// LoadConf reads the conf file at path
func LoadConf(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfNotFound, path)
		}
		return nil, err
	}
	return ParseConf(path, data)
}

// ParseConf parses conf contents. path is used by Save.
func ParseConf(path string, data []byte) (*Conf, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	c := &Conf{path: path, lines: lines}
	if err := c.reparse(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conf) reparse() error {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, []byte(strings.Join(c.lines, "\n")))
	if err != nil {
		return fmt.Errorf("failed to parse bluestacks.conf: %w", err)
	}
	c.file = f
	return nil
}

// Path returns where Save writes
func (c *Conf) Path() string {
	return c.path
}

// Get returns a raw key without quotes
func (c *Conf) Get(key string) (string, bool) {
	section := c.file.Section(ini.DefaultSection)
	if !section.HasKey(key) {
		return "", false
	}
	return section.Key(key).String(), true
}

// Instances lists instance names that define an adb_port, sorted
func (c *Conf) Instances() []string {
	var names []string
	for _, key := range c.file.Section(ini.DefaultSection).KeyStrings() {
		if !strings.HasPrefix(key, instancePrefix) || !strings.HasSuffix(key, ".adb_port") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, instancePrefix), ".adb_port")
		if name != "" && !strings.Contains(name, ".") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DetectInstance returns the instance listening on port, or the first one
// when port is 0 or no instance matches
func (c *Conf) DetectInstance(port int) (string, error) {
	names := c.Instances()
	if len(names) == 0 {
		return "", ErrNoInstance
	}
	if port > 0 {
		for _, name := range names {
			if p, ok := c.ADBPort(name); ok && p == port {
				return name, nil
			}
		}
	}
	return names[0], nil
}

// ADBPort returns the adb port of an instance
func (c *Conf) ADBPort(instance string) (int, bool) {
	v, ok := c.Get(instanceKey(instance, "adb_port"))
	if !ok {
		return 0, false
	}
	var port int
	if _, err := fmt.Sscanf(v, "%d", &port); err != nil {
		return 0, false
	}
	return port, true
}

// InstanceValue reads bst.instance.<instance>.<key>
func (c *Conf) InstanceValue(instance, key string) (string, bool) {
	return c.Get(instanceKey(instance, key))
}

// SetInstanceValue replaces bst.instance.<instance>.<key> or appends it
func (c *Conf) SetInstanceValue(instance, key, value string) error {
	full := instanceKey(instance, key)
	pattern := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(full) + `\s*=`)
	line := fmt.Sprintf(`%s="%s"`, full, value)

	replaced := false
	for i, l := range c.lines {
		if pattern.MatchString(l) {
			c.lines[i] = line
			replaced = true
		}
	}
	if !replaced {
		c.lines = append(c.lines, line)
	}
	return c.reparse()
}

// ApplyResolution writes the framebuffer keys for instance
func (c *Conf) ApplyResolution(instance string, res Resolution) error {
	values := []struct{ key, value string }{
		{"fb_width", fmt.Sprint(res.Width)},
		{"fb_height", fmt.Sprint(res.Height)},
		{"dpi", fmt.Sprint(res.DPI)},
		{"gl_win_height", fmt.Sprint(res.Height)},
		{"show_sidebar", "0"},
		{"display_name", "BlueStacks5-" + instance},
	}
	for _, v := range values {
		if err := c.SetInstanceValue(instance, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

// Bytes renders the conf with a trailing newline
func (c *Conf) Bytes() []byte {
	return []byte(strings.Join(c.lines, "\n") + "\n")
}

// Save writes the conf back to its path
func (c *Conf) Save() error {
	return os.WriteFile(c.path, c.Bytes(), 0644)
}

func instanceKey(instance, key string) string {
	return instancePrefix + instance + "." + key
}

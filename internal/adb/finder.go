package adb

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindADB locates the adb executable. preferred may be the binary itself or
// a directory containing it; it is checked first.
func FindADB(preferred string) (string, error) {
	exe := "adb"
	if runtime.GOOS == "windows" {
		exe = "adb.exe"
	}

	if preferred != "" {
		if info, err := os.Stat(preferred); err == nil {
			if !info.IsDir() {
				return preferred, nil
			}
			candidate := filepath.Join(preferred, exe)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	commonPaths := []string{
		// BlueStacks ships its own adb
		`C:\Program Files\BlueStacks_nxt\HD-Adb.exe`,
		`C:\Program Files\BlueStacks\HD-Adb.exe`,

		// Android SDK
		`${LOCALAPPDATA}\Android\Sdk\platform-tools\adb.exe`,
		`C:\Android\sdk\platform-tools\adb.exe`,

		// PATH
		"adb.exe",
	}

	if runtime.GOOS != "windows" {
		commonPaths = []string{
			"/usr/bin/adb",
			"/usr/local/bin/adb",
			"${HOME}/Android/Sdk/platform-tools/adb",
			"${HOME}/Library/Android/sdk/platform-tools/adb",
			"adb",
		}
	}

	for _, path := range commonPaths {
		expandedPath := os.ExpandEnv(path)

		if strings.ContainsAny(path, `/\`) {
			if _, err := os.Stat(expandedPath); err == nil {
				return expandedPath, nil
			}
			continue
		}

		if adbPath, err := exec.LookPath(path); err == nil {
			return adbPath, nil
		}
	}

	return "", fmt.Errorf("adb not found, please specify path in config")
}

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileWriter appends to <dir>/<name>.log and rotates it once it passes
// maxSizeMB, keeping at most maxBackups rotated files.
type FileWriter struct {
	mu         sync.Mutex
	dir        string
	name       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
}

// NewFileWriter creates the log directory and opens the current log file
func NewFileWriter(dir, name string, maxSizeMB, maxBackups int) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fw := &FileWriter{
		dir:        dir,
		name:       name,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := fw.open(); err != nil {
		return nil, err
	}
	return fw, nil
}

// Path returns the current log file path
func (fw *FileWriter) Path() string {
	return filepath.Join(fw.dir, fw.name+".log")
}

func (fw *FileWriter) open() error {
	file, err := os.OpenFile(fw.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	fw.file = file
	fw.size = info.Size()
	return nil
}

// Write implements io.Writer
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.maxBytes > 0 && fw.size+int64(len(p)) > fw.maxBytes {
		if err := fw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := fw.file.Write(p)
	fw.size += int64(n)
	return n, err
}

func (fw *FileWriter) rotate() error {
	if fw.file != nil {
		fw.file.Close()
	}

	rotated := filepath.Join(fw.dir, fmt.Sprintf("%s_%s.log", fw.name, time.Now().Format("2006-01-02_15-04-05.000000000")))
	if err := os.Rename(fw.Path(), rotated); err != nil {
		return fw.open()
	}

	fw.prune()
	return fw.open()
}

// prune deletes the oldest rotated files beyond maxBackups
func (fw *FileWriter) prune() {
	if fw.maxBackups <= 0 {
		return
	}
	files, err := filepath.Glob(filepath.Join(fw.dir, fw.name+"_*.log"))
	if err != nil || len(files) <= fw.maxBackups {
		return
	}

	// timestamped names sort chronologically
	sort.Strings(files)
	for _, f := range files[:len(files)-fw.maxBackups] {
		os.Remove(f)
	}
}

// Close closes the current file
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.file != nil {
		err := fw.file.Close()
		fw.file = nil
		return err
	}
	return nil
}

// Package log builds the shared slog logger writing to both console and
// a per-session log file. The file writer is buffered; FlushLog and
// FlushAndClose exist so panic paths can force the tail out to disk.
package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logFile *os.File
	writer  *bufio.Writer
)

func NewLogger(debug bool, saveDirectory string) (*slog.Logger, error) {
	if saveDirectory == "" {
		saveDirectory = "logs"
	}
	if err := os.MkdirAll(saveDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	name := fmt.Sprintf("barkeep-%s.log", time.Now().Format("2006-01-02-15-04-05"))
	file, err := os.Create(filepath.Join(saveDirectory, name))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}

	mu.Lock()
	logFile = file
	writer = bufio.NewWriter(file)
	out := io.MultiWriter(os.Stdout, writer)
	mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(&syncWriter{w: out}, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// syncWriter serializes writes from concurrent goroutines onto the
// shared buffered writer.
type syncWriter struct {
	w io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	return s.w.Write(p)
}

func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		writer.Flush()
	}
}

func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	if writer != nil {
		writer.Flush()
		writer = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Package runlog appends scenario results as JSON lines under
// <baseDir>/<date>/<runID>.jsonl.
package runlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// StepRecord is the outcome of one step.
type StepRecord struct {
	Text     string `json:"text"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Record is the outcome of one scenario.
type Record struct {
	RunID      string       `json:"run_id"`
	Env        string       `json:"env"`
	Feature    string       `json:"feature"`
	Scenario   string       `json:"scenario"`
	Tags       []string     `json:"tags,omitempty"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Steps      []StepRecord `json:"steps,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`
	Duration   string       `json:"duration"`
}

// Writer handles async writing of records to date-organized files.
type Writer struct {
	baseDir     string
	runID       string
	maxSizeMB   int
	writeCh     chan any
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
}

// NewWriter starts a writer whose files are named after runID.
func NewWriter(baseDir, runID string, bufferSize int, maxSizeMB int) *Writer {
	if bufferSize < 1 {
		bufferSize = 1
	}
	w := &Writer{
		baseDir:   baseDir,
		runID:     runID,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan any, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Write queues a record for async writing.
func (w *Writer) Write(record any) error {
	select {
	case <-w.done:
		return fmt.Errorf("run log writer is closed")
	default:
	}
	select {
	case w.writeCh <- record:
		return nil
	default:
		slog.Warn("run log buffer full, dropping record", "run_id", w.runID)
		return fmt.Errorf("buffer full")
	}
}

// Path returns the file currently written, or "" before the first record.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.logger == nil {
		return ""
	}
	return w.logger.Filename
}

// Close stops the writer after flushing queued records.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()

		// Drain what the loop left behind.
		for {
			select {
			case record := <-w.writeCh:
				w.writeRecord(record)
				continue
			default:
			}
			break
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.logger != nil {
			err = w.logger.Close()
		}
	})
	return err
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case record := <-w.writeCh:
			w.writeRecord(record)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) writeRecord(record any) {
	data, err := json.Marshal(record)
	if err != nil {
		slog.Error("run log marshal failed", "error", err, "run_id", w.runID)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != w.currentDate || w.logger == nil {
		if err := w.rotateForDate(currentDate); err != nil {
			slog.Error("run log rotate failed", "error", err, "run_id", w.runID)
			return
		}
	}

	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("run log write failed", "error", err, "run_id", w.runID)
	}
}

func (w *Writer) rotateForDate(date string) error {
	if w.logger != nil {
		if err := w.logger.Close(); err != nil {
			slog.Debug("run log close failed", "error", err)
		}
	}

	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filename := filepath.Join(dir, w.runID+".jsonl")
	w.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false,
	}

	w.currentDate = date
	slog.Info("opened run log", "file", filename)
	return nil
}

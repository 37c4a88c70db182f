package output

import (
	"fmt"
	"os"

	"github.com/August26/proxyprobe/internal/model"
)

const (
	DefaultActiveFile = "aktif.txt"
	DefaultDeadFile   = "dead.txt"
)

// Recorder appends each probed proxy to the active or the dead list.
//
// Every Record opens, writes and closes its file, so nothing is buffered
// between calls and earlier runs are never truncated. It is not safe for
// concurrent use; checker.RunBatch calls it from a single goroutine.
type Recorder struct {
	ActiveFile string
	DeadFile   string
	// AnnotateType writes "address,type" instead of the bare address.
	AnnotateType bool
}

// NewRecorder returns a Recorder. Empty paths fall back to DefaultActiveFile and DefaultDeadFile.
func NewRecorder(activeFile, deadFile string) *Recorder {
	if activeFile == "" {
		activeFile = DefaultActiveFile
	}
	if deadFile == "" {
		deadFile = DefaultDeadFile
	}
	return &Recorder{ActiveFile: activeFile, DeadFile: deadFile}
}

func (r *Recorder) Record(res model.ProbeResult) error {
	path := r.DeadFile
	if res.Success {
		path = r.ActiveFile
	}

	line := string(res.Address)
	if r.AnnotateType {
		line += "," + string(res.NetworkType)
	}
	return appendLine(path, line)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

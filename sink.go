package seaward

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink writes report blocks as timestamped CSV files under a fixed
// directory, creating it on first use.
type FileSink struct {
	Dir string

	now func() time.Time
}

// NewFileSink returns a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, now: time.Now}
}

// WriteReport implements Sink. The filename carries a second-resolution
// timestamp so repeated captures never collide in practice.
func (f *FileSink) WriteReport(report []byte) (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}
	name := "seaward_" + f.now().Format("2006_01_02_150405") + ".csv"
	path := filepath.Join(f.Dir, name)
	if err := os.WriteFile(path, report, 0o644); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}
	return path, nil
}

package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
)

// Writer 每轮扫描覆盖写出一个 CSV 文件，列顺序同 model.CSVHeader
type Writer struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Writer {
	return &Writer{path: path}
}

// WriteScan 先写临时文件再 rename，读者不会看到半个文件
func (w *Writer) WriteScan(report *model.ScanReport) error {
	if report == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, report.Opportunities); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), w.path)
}

// Encode 表头 + 每条机会一行
func Encode(out io.Writer, opps []model.OpportunityRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(model.CSVHeader()); err != nil {
		return err
	}
	for i := range opps {
		if err := cw.Write(opps[i].CSVRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var _ port.Sink = (*Writer)(nil)

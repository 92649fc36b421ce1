package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

var _ ports.Notifier = (*JSONExporter)(nil)

// Report es el documento que exporta JSONExporter.
type Report struct {
	Run        domain.RunMeta    `json:"run"`
	Comparison domain.Comparison `json:"comparison"`
}

// JSONExporter escribe cada comparación como JSON indentado en Path.
type JSONExporter struct {
	Path string
}

// NewJSONExporter crea un exportador que sobrescribe path en cada notificación.
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{Path: path}
}

// NotifyComparison implementa ports.Notifier.
func (j *JSONExporter) NotifyComparison(_ context.Context, meta domain.RunMeta, cmp domain.Comparison) error {
	f, err := os.Create(j.Path)
	if err != nil {
		return fmt.Errorf("notify.JSONExporter: %w", err)
	}
	if err := WriteJSON(f, meta, cmp); err != nil {
		f.Close()
		return fmt.Errorf("notify.JSONExporter: %s: %w", j.Path, err)
	}
	return f.Close()
}

// WriteJSON codifica el reporte en w.
func WriteJSON(w io.Writer, meta domain.RunMeta, cmp domain.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Run: meta, Comparison: cmp})
}

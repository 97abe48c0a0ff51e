// Package metrics exposes Prometheus collectors for worklist activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Worklist metrics
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparelist_items_total",
			Help: "Worklist mutations by operation and outcome",
		},
		[]string{"op", "status"},
	)

	WorklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sparelist_worklist_entries",
			Help: "Number of entries currently in the worklist",
		},
	)

	// Spreadsheet metrics
	SheetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparelist_sheets_total",
			Help: "Spreadsheets produced by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	SheetDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparelist_sheet_duration_seconds",
			Help:    "Time taken to render a spreadsheet",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sparelist_merge_duplicates_total",
			Help: "Entries skipped during merge because the sheet already had them",
		},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordItem records a worklist mutation and the resulting list size.
func RecordItem(op string, size int, err error) {
	ItemsTotal.WithLabelValues(op, status(err)).Inc()
	if err == nil {
		WorklistSize.Set(float64(size))
	}
}

// RecordSheet records a rendered export or merge.
func RecordSheet(kind string, duplicates int, duration time.Duration, err error) {
	SheetsTotal.WithLabelValues(kind, status(err)).Inc()
	if err != nil {
		return
	}
	SheetDuration.WithLabelValues(kind).Observe(duration.Seconds())
	DuplicatesSkipped.Add(float64(duplicates))
}

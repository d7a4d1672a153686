// Package io defines the interfaces between data sources, trained
// classifiers, and result sinks.
package io

import "context"

// Reader is the interface for sources that yield feature vectors.
type Reader interface {
	// Read returns the complete dataset.
	Read() ([][]float64, error)

	// Stream returns a channel of samples for real-time scoring.
	Stream(ctx context.Context) (<-chan []float64, error)

	// Close releases resources.
	Close() error
}

// Writer is the interface for classification result sinks.
type Writer interface {
	// Write outputs a single result.
	Write(result Result) error

	// Close flushes and releases resources.
	Close() error
}

// Result is one scored sample.
type Result struct {
	Timestamp int64     `json:"timestamp"`
	Label     int       `json:"label"`
	Anomalous bool      `json:"anomalous"`
	Score     float64   `json:"score"`
	Features  []float64 `json:"features,omitempty"`
}

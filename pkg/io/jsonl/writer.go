// Package jsonl writes classification results as JSON Lines.
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"

	flowio "github.com/flowsift/flowsift/pkg/io"
)

// Writer appends one JSON object per result to a file or stream.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewWriter creates a writer that appends to the named file. The file is
// created when missing.
func NewWriter(filename string) (*Writer, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(f)
	return &Writer{
		file: f,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

// NewStdoutWriter creates a writer that emits to standard output.
func NewStdoutWriter() *Writer {
	buf := bufio.NewWriter(os.Stdout)
	return &Writer{
		buf: buf,
		enc: json.NewEncoder(buf),
	}
}

// Write outputs a single result.
func (w *Writer) Write(result flowio.Result) error {
	return w.enc.Encode(result)
}

// Close flushes buffered output and closes the file when present.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

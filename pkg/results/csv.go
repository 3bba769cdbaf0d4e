package results

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
)

// CSVSink buffers rows and writes them as one table on Close. The first
// column is an unnamed zero-based row index.
type CSVSink struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	rows   []Row
	closed bool
}

// NewCSV writes to w. w is not closed by the sink.
func NewCSV(w io.Writer) *CSVSink {
	return &CSVSink{out: w}
}

// CreateCSV creates or truncates the file at path.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &CSVSink{out: f, closer: f}, nil
}

// Write implements Sink.
func (s *CSVSink) Write(ctx context.Context, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

// Close writes the table and closes the file, if the sink opened one.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *CSVSink) flush() error {
	if len(s.rows) == 0 {
		return nil
	}
	header, records := Table(s.rows)

	w := csv.NewWriter(s.out)
	if err := w.Write(append([]string{""}, header...)); err != nil {
		return writeError("csv", err)
	}
	for i, rec := range records {
		if err := w.Write(append([]string{strconv.Itoa(i)}, rec...)); err != nil {
			return writeError("csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeError("csv", err)
	}
	return nil
}

// Package records logs long lived orbits as newline delimited JSON.
package records

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	buddha "github.com/marben/buddhabrot"
)

// Record is the on-disk form of a qualifying point.
type Record struct {
	Point      [2]float64 `json:"point"`
	Iterations uint64     `json:"iterations"`
}

func FromPoint(p buddha.QualifyingPoint) Record {
	return Record{Point: [2]float64{real(p.Point), imag(p.Point)}, Iterations: p.Iterations}
}

func (r Record) QualifyingPoint() buddha.QualifyingPoint {
	return buddha.QualifyingPoint{Point: complex(r.Point[0], r.Point[1]), Iterations: r.Iterations}
}

// JSONL appends one record per line. Earlier lines are never rewritten.
type JSONL struct {
	w   *bufio.Writer
	enc *json.Encoder
	c   io.Closer
}

// NewJSONL writes records to w. If w is an io.Closer, Close closes it.
func NewJSONL(w io.Writer) *JSONL {
	bw := bufio.NewWriter(w)
	j := &JSONL{w: bw, enc: json.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		j.c = c
	}
	return j
}

// Create opens path for appending, creating it if needed.
func Create(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open records %q: %w", path, err)
	}
	return NewJSONL(f), nil
}

// WriteRecords appends points and flushes them, so a crash loses at most the batch in flight.
func (j *JSONL) WriteRecords(points []buddha.QualifyingPoint) error {
	for _, p := range points {
		if err := j.enc.Encode(FromPoint(p)); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return j.Flush()
}

func (j *JSONL) Flush() error {
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

func (j *JSONL) Close() error {
	err := j.Flush()
	if j.c != nil {
		if cerr := j.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Read decodes every record in r.
func Read(r io.Reader) ([]Record, error) {
	var out []Record
	dec := json.NewDecoder(r)
	for {
		var rec Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

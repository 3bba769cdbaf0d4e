package results

import (
	"bytes"
	"encoding/json"
)

// Row is an ordered set of named cells.
type Row struct {
	names  []string
	values map[string]string
}

// Set assigns a cell, appending the column if it is new.
func (r *Row) Set(name, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// Get returns a cell and whether the row has that column.
func (r Row) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Columns returns the column names in insertion order.
func (r Row) Columns() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.names)
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string cells, keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.Set(name, value)
	}
	_, err := dec.Token()
	return err
}

// Table merges rows into a header and records. The header is the union of
// every row's columns in first-seen order; missing cells are empty.
func Table(rows []Row) (header []string, records [][]string) {
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, name := range row.names {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}

	records = make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(header))
		for j, name := range header {
			rec[j] = row.values[name]
		}
		records[i] = rec
	}
	return header, records
}

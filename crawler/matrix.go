package crawler

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Matrix is a keyword-frequency table: one row per article key, one column
// per keyword label.
type Matrix struct {
	Labels []string
	Keys   []string
	Rows   [][]int
}

// NewMatrix creates an all-zero matrix.
func NewMatrix(keys, labels []string) *Matrix {
	rows := make([][]int, len(keys))
	for i := range rows {
		rows[i] = make([]int, len(labels))
	}
	return &Matrix{Labels: labels, Keys: keys, Rows: rows}
}

// NonZero returns the number of positive cells.
func (m *Matrix) NonZero() int {
	n := 0
	for _, row := range m.Rows {
		for _, c := range row {
			if c > 0 {
				n++
			}
		}
	}
	return n
}

// WriteCSV writes the matrix as a header of labels followed by one
// "key,count,..." row per article.
func (m *Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"url"}, m.Labels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(m.Labels)+1)
	for i, key := range m.Keys {
		record[0] = key
		for j, c := range m.Rows[i] {
			record[j+1] = strconv.Itoa(c)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

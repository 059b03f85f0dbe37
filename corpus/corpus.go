// Package corpus loads the keyword-frequency table and the article
// allow-list, and filters the table down to the rating engine's input.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"keyword_tiers/rating"
)

var (
	ErrNoHeader = errors.New("frequency table has no header row")
	ErrBadRow   = errors.New("malformed row")
)

// ParseError reports a cell that is not an integer count.
type ParseError struct {
	File   string
	Line   int
	Column int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	name := e.File
	if name == "" {
		name = "input"
	}
	return fmt.Sprintf("%s:%d: column %d: invalid count %q: %v", name, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AllowEntry is one row of the allow-list.
type AllowEntry struct {
	Key string
	ID  string
}

// AllowList selects articles and assigns their IDs.
type AllowList struct {
	Entries []AllowEntry
	ids     map[string]string
}

// Size is the number of allow-list rows, which is the corpus size used
// for inverse document frequency.
func (a *AllowList) Size() int { return len(a.Entries) }

// Lookup returns the ID assigned to key. When a key repeats, the last
// row wins.
func (a *AllowList) Lookup(key string) (string, bool) {
	id, ok := a.ids[key]
	return id, ok
}

// Keys returns the article keys in file order.
func (a *AllowList) Keys() []string {
	keys := make([]string, len(a.Entries))
	for i, entry := range a.Entries {
		keys[i] = entry.Key
	}
	return keys
}

// FrequencyTable is the parsed keyword-frequency matrix.
type FrequencyTable struct {
	Labels []string
	Keys   []string
	Rows   [][]int
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return cr
}

func trimAll(record []string) []string {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}

// LoadAllowList reads rows of "article_key,assigned_id".
func LoadAllowList(r io.Reader) (*AllowList, error) {
	cr := newReader(r)
	allow := &AllowList{ids: make(map[string]string)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading allow-list: %w", err)
		}
		record = trimAll(record)
		line, _ := cr.FieldPos(0)
		if len(record) < 2 || record[0] == "" {
			return nil, fmt.Errorf("%w: allow-list line %d: want key and id, got %d fields", ErrBadRow, line, len(record))
		}
		entry := AllowEntry{Key: record[0], ID: record[1]}
		allow.Entries = append(allow.Entries, entry)
		allow.ids[entry.Key] = entry.ID
	}
	return allow, nil
}

// LoadFrequencyTable reads a header of keyword labels followed by rows of
// "article_key,count_1,count_2,...". The header's first cell is ignored.
func LoadFrequencyTable(r io.Reader) (*FrequencyTable, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading frequency header: %w", err)
	}
	header = trimAll(header)
	if len(header) == 0 {
		return nil, ErrNoHeader
	}

	table := &FrequencyTable{Labels: header[1:]}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading frequency table: %w", err)
		}
		record = trimAll(record)
		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			return nil, fmt.Errorf("frequency table line %d: %w",
				line, &rating.ShapeError{Row: len(table.Rows), Got: len(record) - 1, Want: len(table.Labels)})
		}

		counts := make([]int, len(table.Labels))
		for j, cell := range record[1:] {
			n, err := strconv.Atoi(cell)
			if err != nil {
				return nil, &ParseError{Line: line, Column: j + 2, Value: cell, Err: err}
			}
			counts[j] = n
		}
		table.Keys = append(table.Keys, record[0])
		table.Rows = append(table.Rows, counts)
	}
	return table, nil
}

// Filter keeps the table rows whose key is allow-listed, in table order.
func Filter(table *FrequencyTable, allow *AllowList) rating.Input {
	in := rating.Input{
		Labels:     table.Labels,
		CorpusSize: allow.Size(),
	}
	for i, key := range table.Keys {
		id, ok := allow.Lookup(key)
		if !ok {
			continue
		}
		in.Articles = append(in.Articles, rating.ArticleRef{ID: id, Name: key})
		in.Rows = append(in.Rows, table.Rows[i])
	}
	return in
}

// LoadFiles reads both inputs from disk and returns the filtered corpus.
func LoadFiles(frequencyPath, allowPath string) (rating.Input, error) {
	allow, err := loadFile(allowPath, LoadAllowList)
	if err != nil {
		return rating.Input{}, err
	}
	table, err := loadFile(frequencyPath, LoadFrequencyTable)
	if err != nil {
		return rating.Input{}, err
	}
	return Filter(table, allow), nil
}

// LoadAllowListFile reads an allow-list from path.
func LoadAllowListFile(path string) (*AllowList, error) {
	return loadFile(path, LoadAllowList)
}

func loadFile[T any](path string, load func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	v, err := load(f)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.File = path
			return zero, parseErr
		}
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

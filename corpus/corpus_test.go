package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword_tiers/rating"
)

const frequencyCSV = `url,词一,词二
https://a.example/1, 2, 0
https://b.example/2,0,3
https://skip.example/x,9,9
https://c.example/3,1,1
`

const allowCSV = `https://a.example/1,11
https://b.example/2,22
https://c.example/3,33
`

func TestLoadAllowList(t *testing.T) {
	t.Run("keeps order and size", func(t *testing.T) {
		allow, err := LoadAllowList(strings.NewReader(allowCSV))
		require.NoError(t, err)

		assert.Equal(t, 3, allow.Size())
		assert.Equal(t, []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"}, allow.Keys())

		id, ok := allow.Lookup("https://b.example/2")
		assert.True(t, ok)
		assert.Equal(t, "22", id)

		_, ok = allow.Lookup("https://nope.example")
		assert.False(t, ok)
	})

	t.Run("duplicate key counts twice and last id wins", func(t *testing.T) {
		allow, err := LoadAllowList(strings.NewReader("k,1\nk,2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, allow.Size())
		id, _ := allow.Lookup("k")
		assert.Equal(t, "2", id)
	})

	t.Run("rejects single field row", func(t *testing.T) {
		_, err := LoadAllowList(strings.NewReader("k,1\nlonely\n"))
		assert.ErrorIs(t, err, ErrBadRow)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestLoadFrequencyTable(t *testing.T) {
	t.Run("parses header and counts", func(t *testing.T) {
		table, err := LoadFrequencyTable(strings.NewReader(frequencyCSV))
		require.NoError(t, err)

		assert.Equal(t, []string{"词一", "词二"}, table.Labels)
		assert.Len(t, table.Keys, 4)
		assert.Equal(t, []int{2, 0}, table.Rows[0])
		assert.Equal(t, []int{1, 1}, table.Rows[3])
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := LoadFrequencyTable(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("row arity mismatch", func(t *testing.T) {
		_, err := LoadFrequencyTable(strings.NewReader("url,a,b\nk,1\n"))
		require.ErrorIs(t, err, rating.ErrShapeMismatch)

		var shapeErr *rating.ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, 1, shapeErr.Got)
		assert.Equal(t, 2, shapeErr.Want)
	})

	t.Run("non-numeric cell", func(t *testing.T) {
		_, err := LoadFrequencyTable(strings.NewReader("url,a,b\nk,1,two\n"))

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, 2, parseErr.Line)
		assert.Equal(t, 3, parseErr.Column)
		assert.Equal(t, "two", parseErr.Value)
	})

	t.Run("negative counts are accepted", func(t *testing.T) {
		table, err := LoadFrequencyTable(strings.NewReader("url,a\nk,-1\n"))
		require.NoError(t, err)
		assert.Equal(t, []int{-1}, table.Rows[0])
	})
}

func TestFilter(t *testing.T) {
	table, err := LoadFrequencyTable(strings.NewReader(frequencyCSV))
	require.NoError(t, err)
	allow, err := LoadAllowList(strings.NewReader(allowCSV))
	require.NoError(t, err)

	in := Filter(table, allow)

	assert.Equal(t, 3, in.CorpusSize)
	assert.Equal(t, []rating.ArticleRef{
		{ID: "11", Name: "https://a.example/1"},
		{ID: "22", Name: "https://b.example/2"},
		{ID: "33", Name: "https://c.example/3"},
	}, in.Articles)
	assert.Equal(t, [][]int{{2, 0}, {0, 3}, {1, 1}}, in.Rows)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	freqPath := filepath.Join(dir, "word_frequency.csv")
	allowPath := filepath.Join(dir, "allow.csv")
	require.NoError(t, os.WriteFile(freqPath, []byte(frequencyCSV), 0o644))
	require.NoError(t, os.WriteFile(allowPath, []byte(allowCSV), 0o644))

	t.Run("loads and filters", func(t *testing.T) {
		in, err := LoadFiles(freqPath, allowPath)
		require.NoError(t, err)
		assert.Len(t, in.Articles, 3)
		assert.Equal(t, []string{"词一", "词二"}, in.Labels)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFiles(filepath.Join(dir, "missing.csv"), allowPath)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("parse error names the file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("url,a\nk,x\n"), 0o644))

		_, err := LoadFiles(bad, allowPath)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, bad, parseErr.File)
		assert.Contains(t, err.Error(), bad+":2")
	})
}

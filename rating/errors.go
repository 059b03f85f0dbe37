package rating

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCorpus       = errors.New("no aggregated keywords")
	ErrShapeMismatch     = errors.New("matrix shape mismatch")
	ErrInvalidCorpusSize = errors.New("corpus size must be at least 1")
	ErrPhaseOrder        = errors.New("pipeline phase out of order")
	ErrInvalidLength     = errors.New("article length must be positive")
	ErrArticleRange      = errors.New("article index out of range")
)

// EmptyCorpusError reports that no keyword received a score, so the cut
// points cannot be picked.
type EmptyCorpusError struct {
	Articles int
	Keywords int
}

func (e *EmptyCorpusError) Error() string {
	if e.Articles == 0 && e.Keywords == 0 {
		return ErrEmptyCorpus.Error()
	}
	return fmt.Sprintf("%s: %d articles, %d keywords, no positive counts",
		ErrEmptyCorpus, e.Articles, e.Keywords)
}

func (e *EmptyCorpusError) Unwrap() error { return ErrEmptyCorpus }

// ShapeError reports a matrix whose dimensions disagree with its labels
// or article list. Row is -1 when the row count itself is wrong.
type ShapeError struct {
	Row  int
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %d rows for %d articles", ErrShapeMismatch, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: row %d has %d cells, want %d", ErrShapeMismatch, e.Row, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

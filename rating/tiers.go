package rating

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Cuts sorts a copy of values and picks the entries at ranks n/3 and 2n/3
// (integer division). This is a rough three-way split, not a tertile.
func Cuts(values []float64) (low, high float64, err error) {
	n := len(values)
	if n == 0 {
		return 0, 0, &EmptyCorpusError{}
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	return sorted[n/3], sorted[(2*n)/3], nil
}

// classify applies the tier rules in priority order. ok is false when the
// keyword fails the IDF gate.
func classify(score, idf, low, high float64) (tier Tier, ok bool) {
	switch {
	case score >= high && idf >= minIDF:
		return TierProminent, true
	case score >= low && idf >= minIDF:
		return TierAverage, true
	case idf >= minIDF:
		return TierLow, true
	}
	return "", false
}

// Summary describes the distribution of aggregate scores.
type Summary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes descriptive statistics over agg.
func Summarize(agg map[int]float64) Summary {
	values := make([]float64, 0, len(agg))
	for _, v := range agg {
		values = append(values, v)
	}
	return SummarizeValues(values)
}

// SummarizeValues computes descriptive statistics over values.
func SummarizeValues(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Sum = floats.Sum(values)
	s.Mean = stat.Mean(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// ScoredKeyword is one keyword of an article ranked by TF-IDF.
type ScoredKeyword struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TopKeywords returns up to n of an article's keywords by TF-IDF,
// highest first, ties broken by keyword ID. n <= 0 returns all of them.
func (e *Engine) TopKeywords(article int, n int) ([]ScoredKeyword, error) {
	if err := e.require(phaseTFIDF, "top keywords before tf-idf"); err != nil {
		return nil, err
	}
	if article < 0 || article >= len(e.Articles) {
		return nil, fmt.Errorf("%w: %d of %d", ErrArticleRange, article, len(e.Articles))
	}
	a := e.Articles[article]
	scored := make([]ScoredKeyword, 0, len(a.Keywords))
	for _, id := range a.Keywords {
		scored = append(scored, ScoredKeyword{ID: id, Label: e.Keywords[id].Label, Score: a.TFIDF[id]})
	}
	slices.SortStableFunc(scored, func(x, y ScoredKeyword) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

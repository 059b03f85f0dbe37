// Package rating scores keywords across a fixed corpus of articles with
// TF-IDF and buckets them into three relevance tiers for a circle-packing
// chart.
//
// An Engine is single-use: it links articles to keywords, computes term
// frequencies and inverse document frequencies, combines them, then emits
// the tier tree and the article-to-circle map. Each phase must finish for
// the whole corpus before the next one starts. An Engine is not safe for
// concurrent use.
package rating

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Fixed scoring constants.
const (
	minIDF                 = 2.5
	translationPlaceholder = "blah"
	circlePrefix           = "circle_"
	rootName               = "all_nodes"
)

type phase uint8

const (
	phaseLinked phase = 1 << iota
	phaseTF
	phaseIDF
	phaseTFIDF
)

// Option configures an Engine.
type Option func(*Engine)

// WithLengthNormalization divides term frequency by articleLength.
// Off by default: term frequency is the raw count.
func WithLengthNormalization(articleLength int) Option {
	return func(e *Engine) {
		e.normalize = true
		e.articleLength = articleLength
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine owns the articles, keywords and raw matrix of one corpus snapshot.
type Engine struct {
	Articles []*Article
	Keywords []*Keyword

	rows          [][]int
	normalize     bool
	articleLength int
	logger        *slog.Logger
	done          phase
}

// New validates in and builds the article and keyword collections.
func New(in Input, opts ...Option) (*Engine, error) {
	if in.CorpusSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCorpusSize, in.CorpusSize)
	}
	if len(in.Rows) != len(in.Articles) {
		return nil, &ShapeError{Row: -1, Got: len(in.Rows), Want: len(in.Articles)}
	}
	for i, row := range in.Rows {
		if len(row) != len(in.Labels) {
			return nil, &ShapeError{Row: i, Got: len(row), Want: len(in.Labels)}
		}
	}

	e := &Engine{
		Articles: make([]*Article, len(in.Articles)),
		Keywords: make([]*Keyword, len(in.Labels)),
		rows:     in.Rows,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.normalize && e.articleLength <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, e.articleLength)
	}

	for i, ref := range in.Articles {
		e.Articles[i] = newArticle(ref)
	}
	for j, label := range in.Labels {
		e.Keywords[j] = &Keyword{
			ID:          j,
			Label:       label,
			Translation: translationPlaceholder,
			CorpusSize:  in.CorpusSize,
		}
	}
	return e, nil
}

func (e *Engine) require(p phase, step string) error {
	if e.done&p != p {
		return fmt.Errorf("%w: %s", ErrPhaseOrder, step)
	}
	return nil
}

func (e *Engine) once(p phase, step string) error {
	if e.done&p != 0 {
		return fmt.Errorf("%w: %s already ran", ErrPhaseOrder, step)
	}
	return nil
}

// Link records every strictly positive cell in both directions and
// accumulates its count into the article.
func (e *Engine) Link() error {
	if err := e.once(phaseLinked, "link"); err != nil {
		return err
	}
	for i, row := range e.rows {
		article := e.Articles[i]
		for j, count := range row {
			if count <= 0 {
				continue
			}
			article.Keywords = append(article.Keywords, j)
			article.Counts[j] += count
			e.Keywords[j].Articles = append(e.Keywords[j].Articles, i)
		}
	}
	e.done |= phaseLinked
	return nil
}

// ComputeTF fills each article's term frequencies.
func (e *Engine) ComputeTF() error {
	if err := e.require(phaseLinked, "term frequency before link"); err != nil {
		return err
	}
	if err := e.once(phaseTF, "term frequency"); err != nil {
		return err
	}
	for _, article := range e.Articles {
		for id, count := range article.Counts {
			tf := float64(count)
			if e.normalize {
				tf /= float64(e.articleLength)
			}
			article.TF[id] = tf
		}
	}
	e.done |= phaseTF
	return nil
}

// ComputeIDF fills each keyword's inverse document frequency. Linking must
// be complete for the whole corpus.
func (e *Engine) ComputeIDF() error {
	if err := e.require(phaseLinked, "inverse document frequency before link"); err != nil {
		return err
	}
	if err := e.once(phaseIDF, "inverse document frequency"); err != nil {
		return err
	}
	for _, kw := range e.Keywords {
		kw.IDF = kw.inverseDocumentFrequency()
	}
	e.done |= phaseIDF
	return nil
}

// ComputeTFIDF combines term and inverse document frequencies for every
// keyword an article references.
func (e *Engine) ComputeTFIDF() error {
	if err := e.require(phaseTF|phaseIDF, "tf-idf before tf and idf"); err != nil {
		return err
	}
	if err := e.once(phaseTFIDF, "tf-idf"); err != nil {
		return err
	}
	for _, article := range e.Articles {
		for _, id := range article.Keywords {
			article.TFIDF[id] = article.TF[id] * e.Keywords[id].IDF
		}
	}
	e.done |= phaseTFIDF
	return nil
}

// Score runs link, TF, IDF and TF-IDF in order.
func (e *Engine) Score() error {
	steps := []func() error{e.Link, e.ComputeTF, e.ComputeIDF, e.ComputeTFIDF}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Aggregate sums every article's TF-IDF per keyword. Keywords no article
// references are absent.
func (e *Engine) Aggregate() (map[int]float64, error) {
	if err := e.require(phaseTFIDF, "aggregate before tf-idf"); err != nil {
		return nil, err
	}
	agg := make(map[int]float64)
	for _, article := range e.Articles {
		for id, score := range article.TFIDF {
			agg[id] += score
		}
	}
	return agg, nil
}

// Thresholds returns the low and high cut points over agg.
func (e *Engine) Thresholds(agg map[int]float64) (low, high float64, err error) {
	if len(agg) == 0 {
		return 0, 0, &EmptyCorpusError{Articles: len(e.Articles), Keywords: len(e.Keywords)}
	}
	values := make([]float64, 0, len(agg))
	for _, v := range agg {
		values = append(values, v)
	}
	return Cuts(values)
}

// Classify assigns each aggregated keyword to a tier. Keywords whose IDF is
// below the relevance gate are left out. IDs within a tier are ascending.
func (e *Engine) Classify(agg map[int]float64, low, high float64) map[Tier][]int {
	tiers := make(map[Tier][]int, len(Tiers))
	for id, score := range agg {
		tier, ok := classify(score, e.Keywords[id].IDF, low, high)
		if !ok {
			continue
		}
		tiers[tier] = append(tiers[tier], id)
	}
	for _, ids := range tiers {
		slices.Sort(ids)
	}
	return tiers
}

// Tree builds the tier tree from a classification.
func (e *Engine) Tree(agg map[int]float64, tiers map[Tier][]int) *TierTree {
	tree := &TierTree{Name: rootName, Children: make([]TierNode, 0, len(Tiers))}
	for _, tier := range Tiers {
		node := TierNode{Name: string(tier), Children: make([]KeywordEntry, 0, len(tiers[tier]))}
		for _, id := range tiers[tier] {
			node.Children = append(node.Children, e.entry(id, agg[id]))
		}
		tree.Children = append(tree.Children, node)
	}
	return tree
}

func (e *Engine) entry(id int, score float64) KeywordEntry {
	kw := e.Keywords[id]
	return KeywordEntry{
		Name:        kw.Label,
		Value:       score,
		Translation: translationPlaceholder,
		Markers:     e.markers(kw),
		CircleID:    circleID(id),
	}
}

func (e *Engine) markers(kw *Keyword) string {
	ids := make([]string, len(kw.Articles))
	for i, idx := range kw.Articles {
		ids[i] = e.Articles[idx].ID
	}
	return strings.Join(ids, " ")
}

// Clusters maps every article ID to the circles of the keywords it
// references. A later article with a duplicate ID replaces the earlier one.
func (e *Engine) Clusters() ClusterMap {
	clusters := make(ClusterMap, len(e.Articles))
	for _, article := range e.Articles {
		circles := make([]string, 0, len(article.Keywords))
		for _, id := range article.Keywords {
			circles = append(circles, circleID(id))
		}
		clusters[article.ID] = circles
	}
	return clusters
}

// Translate looks up a display translation for label. No dictionary is
// wired in, so the label is returned unchanged.
func (e *Engine) Translate(label string) string {
	return label
}

// Run executes the full pipeline and emits both outputs.
func (e *Engine) Run() (*Result, error) {
	if err := e.Score(); err != nil {
		return nil, err
	}
	agg, err := e.Aggregate()
	if err != nil {
		return nil, err
	}
	low, high, err := e.Thresholds(agg)
	if err != nil {
		return nil, err
	}
	e.logger.Info("cut points", "low_cut", low, "high_cut", high, "keywords", len(agg))

	tiers := e.Classify(agg, low, high)
	e.logger.Info("tier sizes",
		"prominent", len(tiers[TierProminent]),
		"average", len(tiers[TierAverage]),
		"low", len(tiers[TierLow]),
		"dropped", len(agg)-len(tiers[TierProminent])-len(tiers[TierAverage])-len(tiers[TierLow]))

	return &Result{
		Tree:     e.Tree(agg, tiers),
		Clusters: e.Clusters(),
		LowCut:   low,
		HighCut:  high,
		Summary:  Summarize(agg),
	}, nil
}

func circleID(id int) string {
	return fmt.Sprintf("%s%d", circlePrefix, id)
}

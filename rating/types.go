package rating

import "math"

// Keyword is one column of the frequency matrix.
type Keyword struct {
	ID          int
	Label       string
	Translation string
	// Articles holds indices into Engine.Articles, in scan order.
	Articles   []int
	CorpusSize int
	IDF        float64
}

// inverseDocumentFrequency returns ln(N / (df + 1)).
func (k *Keyword) inverseDocumentFrequency() float64 {
	return math.Log(float64(k.CorpusSize) / float64(len(k.Articles)+1))
}

// Article is one row of the frequency matrix.
type Article struct {
	ID   string
	Name string
	// Keywords holds indices into Engine.Keywords, in column order.
	Keywords []int
	Counts   map[int]int
	TF       map[int]float64
	TFIDF    map[int]float64
}

func newArticle(ref ArticleRef) *Article {
	return &Article{
		ID:     ref.ID,
		Name:   ref.Name,
		Counts: make(map[int]int),
		TF:     make(map[int]float64),
		TFIDF:  make(map[int]float64),
	}
}

// ArticleRef identifies an article supplied by the allow-list.
type ArticleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Input is the validated corpus handed to the engine.
type Input struct {
	Labels   []string
	Articles []ArticleRef
	// Rows[i][j] is the count of keyword j in article i.
	Rows       [][]int
	CorpusSize int
}

// Tier is a relevance bucket.
type Tier string

const (
	TierProminent Tier = "prominent"
	TierAverage   Tier = "average"
	TierLow       Tier = "low"
)

// Tiers lists the buckets in the order they appear in the tree.
var Tiers = []Tier{TierProminent, TierAverage, TierLow}

// KeywordEntry is a leaf of the tier tree.
type KeywordEntry struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Translation string  `json:"translation"`
	Markers     string  `json:"markers"`
	CircleID    string  `json:"circleID"`
}

// TierNode groups the entries of one tier.
type TierNode struct {
	Name     string         `json:"name"`
	Children []KeywordEntry `json:"children"`
}

// TierTree is the circle-packing hierarchy rooted at "all_nodes".
type TierTree struct {
	Name     string     `json:"name"`
	Children []TierNode `json:"children"`
}

// Entries returns the entries stored under tier, or nil if absent.
func (t *TierTree) Entries(tier Tier) []KeywordEntry {
	for _, node := range t.Children {
		if node.Name == string(tier) {
			return node.Children
		}
	}
	return nil
}

// Len returns the number of keywords across all tiers.
func (t *TierTree) Len() int {
	n := 0
	for _, node := range t.Children {
		n += len(node.Children)
	}
	return n
}

// ClusterMap maps an article ID to the circle IDs of its keywords.
type ClusterMap map[string][]string

// Result carries everything a pipeline run produces.
type Result struct {
	Tree     *TierTree
	Clusters ClusterMap
	LowCut   float64
	HighCut  float64
	Summary  Summary
}

package keyword

import (
	"myStyleFit/business/catalog"
	"myStyleFit/domain"
	"strings"
	"sync/atomic"
)

type Config struct {
	ExactWeight   float64
	PartialWeight float64
}

func DefaultConfig() Config {
	return Config{
		ExactWeight:   1.0,
		PartialWeight: 0.5,
	}
}

// document is the normalized searchable form of one record.
type document struct {
	text   string
	tokens map[string]struct{}
	tags   map[string]struct{}
}

type prepared struct {
	snap *catalog.Snapshot
	docs []document
}

// Index scores catalog records against a style descriptor. Normalized record
// text is computed once per snapshot.
type Index struct {
	cfg  Config
	last atomic.Pointer[prepared]
}

func NewIndex(cfg Config) *Index {
	return &Index{cfg: cfg}
}

func (ix *Index) Config() Config {
	return ix.cfg
}

// FindSimilar scores every record of snap, applies the price and tag filters
// of opts and groups the survivors by category in candidate order. Every
// category is present in the result, possibly with an empty list.
func (ix *Index) FindSimilar(
	snap *catalog.Snapshot,
	desc domain.StyleDescriptor,
	opts domain.RecommendationOptions,
) map[domain.Category][]domain.ScoredCandidate {
	out := make(map[domain.Category][]domain.ScoredCandidate, len(domain.OutputCategories)+1)
	for _, c := range domain.OutputCategories {
		out[c] = []domain.ScoredCandidate{}
	}
	out[domain.CategoryUnknown] = []domain.ScoredCandidate{}

	if snap == nil || snap.Len() == 0 {
		return out
	}

	docs := ix.documents(snap)
	keywords := Keywords(desc)
	kwTokens := make([][]string, len(keywords))
	for i, k := range keywords {
		kwTokens[i] = Tokens(k)
	}
	excluded := TagSet(opts.ExcludeTags)

	for i := 0; i < snap.Len(); i++ {
		rec := snap.Record(i)
		if !opts.PriceAllowed(rec.Price) {
			continue
		}
		if hasExcludedTag(docs[i].tags, excluded) {
			continue
		}

		score := ix.score(&docs[i], keywords, kwTokens)
		out[rec.Category] = append(out[rec.Category], domain.ScoredCandidate{Record: rec, Score: score})
	}

	for c := range out {
		domain.SortCandidates(out[c])
	}
	return out
}

// Search scores records against free text, one keyword per query word.
// category narrows the scan when known. Only matching records are returned,
// best first; an empty query returns every surviving record in position
// order with a zero score.
func (ix *Index) Search(
	snap *catalog.Snapshot,
	query string,
	category domain.Category,
	opts domain.RecommendationOptions,
) []domain.ScoredCandidate {
	if snap == nil || snap.Len() == 0 {
		return []domain.ScoredCandidate{}
	}

	docs := ix.documents(snap)
	keywords := Keywords(domain.StyleDescriptor{Tags: Tokens(Normalize(query))})
	kwTokens := make([][]string, len(keywords))
	for i, k := range keywords {
		kwTokens[i] = Tokens(k)
	}

	out := []domain.ScoredCandidate{}
	for i := 0; i < snap.Len(); i++ {
		rec := snap.Record(i)
		if category != "" && rec.Category != category {
			continue
		}
		if !opts.PriceAllowed(rec.Price) {
			continue
		}

		var score float64
		if len(keywords) > 0 {
			score = ix.score(&docs[i], keywords, kwTokens)
			if score <= 0 {
				continue
			}
		}
		out = append(out, domain.ScoredCandidate{Record: rec, Score: score})
	}

	domain.SortCandidates(out)
	return out
}

// Score exposes the per-record score for a single record text.
func (ix *Index) Score(title string, tags []string, desc domain.StyleDescriptor) float64 {
	doc := newDocument(title, tags)
	keywords := Keywords(desc)
	kwTokens := make([][]string, len(keywords))
	for i, k := range keywords {
		kwTokens[i] = Tokens(k)
	}
	return ix.score(&doc, keywords, kwTokens)
}

func (ix *Index) score(doc *document, keywords []string, kwTokens [][]string) float64 {
	var score float64
	for i, k := range keywords {
		if strings.Contains(doc.text, k) {
			score += ix.cfg.ExactWeight
			continue
		}
		for _, tok := range kwTokens[i] {
			if _, ok := doc.tokens[tok]; ok {
				score += ix.cfg.PartialWeight
				break
			}
		}
	}
	return score
}

func (ix *Index) documents(snap *catalog.Snapshot) []document {
	if p := ix.last.Load(); p != nil && p.snap == snap {
		return p.docs
	}

	docs := make([]document, snap.Len())
	for i := range docs {
		rec := snap.Record(i)
		docs[i] = newDocument(rec.Title, rec.Tags)
	}

	ix.last.Store(&prepared{snap: snap, docs: docs})
	return docs
}

func newDocument(title string, tags []string) document {
	text := Normalize(title + " " + strings.Join(tags, " "))
	toks := Tokens(text)

	doc := document{
		text:   text,
		tokens: make(map[string]struct{}, len(toks)),
		tags:   TagSet(tags),
	}
	for _, t := range toks {
		doc.tokens[t] = struct{}{}
	}
	return doc
}

func hasExcludedTag(tags, excluded map[string]struct{}) bool {
	if len(excluded) == 0 {
		return false
	}
	for t := range tags {
		if _, ok := excluded[t]; ok {
			return true
		}
	}
	return false
}

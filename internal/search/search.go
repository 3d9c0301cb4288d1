// Package search ranks manifest entries against a free-form query using
// fuzzy matching, weighting name and id matches above descriptions and tags.
package search

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/copyleftdev/skilldex/internal/models"
)

// Result is one ranked hit.
type Result struct {
	Skill models.Skill `json:"skill"`
	Score int          `json:"score"`
}

// Rank scores every manifest skill against query and returns hits in
// descending score order. Name matches weigh 3x, id 2x, description and
// best tag 1x; skills with no positive total are dropped.
func Rank(m *models.Manifest, query string) []Result {
	var out []Result
	for _, s := range m.Skills {
		total := fieldScore(query, s.Name)*3 +
			fieldScore(query, s.ID)*2 +
			fieldScore(query, s.Description) +
			bestTagScore(query, s.Tags)
		if total > 0 {
			out = append(out, Result{Skill: s, Score: total})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Suggest returns up to three skill names that loosely match an unknown
// name, for did-you-mean output.
func Suggest(m *models.Manifest, query string) []string {
	type scored struct {
		name  string
		score int
	}
	var hits []scored
	for _, s := range m.Skills {
		if sc := fieldScore(query, s.Name); sc > 0 {
			hits = append(hits, scored{s.Name, sc})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > 3 {
		hits = hits[:3]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// fieldScore returns the fuzzy score of query against s, or 0 when it
// does not match.
func fieldScore(query, s string) int {
	if s == "" {
		return 0
	}
	matches := fuzzy.Find(query, []string{s})
	if len(matches) == 0 {
		return 0
	}
	if matches[0].Score < 0 {
		return 0
	}
	// A zero-score exact-subsequence match still counts as a hit.
	return matches[0].Score + 1
}

func bestTagScore(query string, tags []string) int {
	best := 0
	for _, t := range tags {
		if sc := fieldScore(query, t); sc > best {
			best = sc
		}
	}
	return best
}

package domain

import (
	"math"
	"sort"
	"strings"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Field weights: the label matters more than the URL, the URL more than the category
	WeightName     = 1.0
	WeightURL      = 0.6
	WeightCategory = 0.3
)

// Candidate is a record with its match score.
type Candidate struct {
	Record Record
	Score  float64
}

// MatchRecord reports whether term is a case-insensitive substring of the
// record's name, URL or category. An empty term matches everything.
func MatchRecord(term string, r Record) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.DisplayName), term) ||
		strings.Contains(strings.ToLower(r.TargetURL), term) ||
		strings.Contains(strings.ToLower(string(r.Category)), term)
}

// ScoreRecord returns the weighted match score of term against r, 0 when
// nothing matches.
func ScoreRecord(term string, r Record) float64 {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return 0.0
	}
	return scoreField(term, r.DisplayName)*WeightName +
		scoreField(term, stripScheme(r.TargetURL))*WeightURL +
		scoreField(term, string(r.Category))*WeightCategory
}

// scoreField scores a lower-cased term against one field.
func scoreField(term, field string) float64 {
	field = strings.ToLower(field)
	if field == "" {
		return 0.0
	}

	// Exact match
	if term == field {
		return ScoreExactMatch + ScorePositionBonus
	}

	// Prefix match
	if strings.HasPrefix(field, term) {
		return ScorePrefixMatch + ScorePositionBonus
	}

	// Substring match
	if index := strings.Index(field, term); index >= 0 {
		// Earlier substring matches get higher score
		return ScoreSubstringMatch + calculatePositionBonus(index, len(field))
	}

	return 0.0
}

func calculatePositionBonus(index, length int) float64 {
	return ScorePositionBonus * math.Max(0, 1.0-float64(index)/float64(length))
}

func stripScheme(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[i+3:]
	}
	return u
}

// RankRecords keeps the records matching term, best score first. Records
// with equal scores keep their input order; an empty term returns the input
// order unchanged.
func RankRecords(term string, records []Record) []*Candidate {
	candidates := make([]*Candidate, 0, len(records))
	for _, r := range records {
		if !MatchRecord(term, r) {
			continue
		}
		candidates = append(candidates, &Candidate{Record: r, Score: ScoreRecord(term, r)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// FilterRecords is RankRecords without the scores.
func FilterRecords(term string, records []Record) []Record {
	candidates := RankRecords(term, records)
	out := make([]Record, len(candidates))
	for i, c := range candidates {
		out[i] = c.Record
	}
	return out
}

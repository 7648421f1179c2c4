package resolve

import (
	"sort"
	"strings"

	"github.com/sydlexius/colophon/internal/normalize"
	"github.com/sydlexius/colophon/internal/source"
)

// Scoring policy constants. The absolute values are tuned empirically; what
// matters is their relative ordering (extracted title beats filename beats
// snippet, ISBN beats DOI).
const (
	bonusExtractedTitle = 18
	bonusFileNameTitle  = 12
	bonusSnippet        = 8
	bonusISBNMatch      = 32
	bonusDOIMatch       = 26
	bonusAuthors        = 4
	bonusPublisher      = 3
	bonusYear           = 3
	bonusLanguage       = 2

	minConfidence = 10
	maxConfidence = 99

	// A snippet match only counts for titles long enough to be distinctive.
	minSnippetTitleLen = 5

	// Each extra corroborating source adds a small bonus, capped.
	corroborationStep = 3
	corroborationCap  = 12
)

// preMergeScore computes a candidate's score before merging: the adapter's
// baseline confidence plus hint-match and field-presence bonuses, clamped.
// This score decides intra-cluster ordering and which member becomes the
// merge base.
func preMergeScore(c source.Candidate, hint source.Hint) int {
	score := c.Confidence

	normTitle := normalize.ForCompare(c.Title)
	switch {
	case titlesOverlap(normTitle, normalize.ForCompare(hint.ExtractedTitle)):
		score += bonusExtractedTitle
	case titlesOverlap(normTitle, normalize.ForCompare(hint.FileNameTitle)):
		score += bonusFileNameTitle
	case len(normTitle) > minSnippetTitleLen && strings.Contains(normalize.ForCompare(hint.Snippet), normTitle):
		score += bonusSnippet
	}

	if c.ISBN != "" && c.ISBN == normalize.ISBN(hint.ISBN) {
		score += bonusISBNMatch
	}
	if c.DOI != "" && c.DOI == normalize.DOI(hint.DOI) {
		score += bonusDOIMatch
	}

	if len(c.Authors) > 0 {
		score += bonusAuthors
	}
	if c.Publisher != "" {
		score += bonusPublisher
	}
	if c.PublishedYear != "" {
		score += bonusYear
	}
	if c.Language != "" {
		score += bonusLanguage
	}
	return clampConfidence(score)
}

// titlesOverlap reports whether either normalized title contains the other.
// Empty strings never match.
func titlesOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func clampConfidence(score int) int {
	if score < minConfidence {
		return minConfidence
	}
	if score > maxConfidence {
		return maxConfidence
	}
	return score
}

// sortRanked orders candidates for output: descending confidence, ties broken
// by case-insensitive primary title ascending. The sort is stable so equal
// entries keep pool order, though the tie-break makes that unobservable.
func sortRanked(list []source.Candidate) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		return strings.ToLower(list[i].PrimaryTitle()) < strings.ToLower(list[j].PrimaryTitle())
	})
}

package resolve

import (
	"sort"
	"strings"

	"github.com/sydlexius/colophon/internal/normalize"
	"github.com/sydlexius/colophon/internal/source"
)

// scored pairs a normalized candidate with its pre-merge score for the
// duration of one merge pass.
type scored struct {
	c     source.Candidate
	score int
}

// mergeAndRank folds the raw candidate pool into one composite candidate per
// identity cluster and returns them in final ranked order. Merging is
// single-threaded and runs strictly after the concurrent fetch phase, so the
// key arena needs no locking.
func mergeAndRank(pool []source.Candidate, hint source.Hint) []source.Candidate {
	var items []scored
	for _, c := range pool {
		n := normalizeCandidate(c)
		if n.Title == "" {
			continue
		}
		items = append(items, scored{c: n, score: preMergeScore(n, hint)})
	}

	groups := make(map[string][]scored)
	var order []string
	for _, it := range items {
		key := dedupeKey(it.c)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	out := make([]source.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, mergeCluster(groups[key]))
	}
	sortRanked(out)
	return out
}

// normalizeCandidate re-normalizes every field defensively; adapters already
// normalize, but merged output must not depend on them having done so.
func normalizeCandidate(c source.Candidate) source.Candidate {
	c.Title = normalize.Text(c.Title)
	c.Subtitle = normalize.Text(c.Subtitle)
	c.Publisher = normalize.Text(c.Publisher)
	c.Authors = normalize.Authors(c.Authors)
	c.PublishedYear = normalize.FirstYear(c.PublishedYear)
	c.Language = normalize.Language(c.Language)
	c.ISBN = normalize.ISBN(c.ISBN)
	c.DOI = normalize.DOI(c.DOI)
	return c
}

// dedupeKey computes the identity key, in precedence order: ISBN, then DOI,
// then the title+first-author+year triple.
func dedupeKey(c source.Candidate) string {
	if c.ISBN != "" {
		return "isbn:" + c.ISBN
	}
	if c.DOI != "" {
		return "doi:" + c.DOI
	}
	firstAuthor := ""
	if len(c.Authors) > 0 {
		firstAuthor = c.Authors[0]
	}
	return "title:" + normalize.ForCompare(c.Title) + "|" + normalize.ForCompare(firstAuthor) + "|" + c.PublishedYear
}

// mergeCluster folds one identity cluster into a single composite candidate.
// The highest-scoring member is the base; every other member fills or
// improves its fields without ever regressing a non-empty value.
func mergeCluster(members []scored) source.Candidate {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].score != members[j].score {
			return members[i].score > members[j].score
		}
		return strings.ToLower(members[i].c.PrimaryTitle()) < strings.ToLower(members[j].c.PrimaryTitle())
	})

	base := members[0].c
	strongest := members[0].score

	seenSource := make(map[string]bool)
	var sources []string
	seenValidator := make(map[string]bool)
	var validators []string
	collect := func(c source.Candidate) {
		for _, label := range strings.Split(c.Source, "+") {
			if label != "" && !seenSource[label] {
				seenSource[label] = true
				sources = append(sources, label)
			}
		}
		for _, label := range c.ValidatedBy {
			if label != "" && !seenValidator[label] {
				seenValidator[label] = true
				validators = append(validators, label)
			}
		}
	}

	collect(base)
	for _, m := range members[1:] {
		base = fillOrImprove(base, m.c)
		collect(m.c)
	}

	if base.Language == "" {
		base.Language = normalize.InferLanguage(base.Title + " " + base.Subtitle)
	}

	base.Source = strings.Join(sources, "+")
	sort.Strings(validators)
	base.ValidatedBy = validators

	bonus := corroborationStep * (len(sources) - 1)
	if bonus < 0 {
		bonus = 0
	}
	if bonus > corroborationCap {
		bonus = corroborationCap
	}
	base.Confidence = strongest + bonus
	if base.Confidence > maxConfidence {
		base.Confidence = maxConfidence
	}
	return base
}

// fillOrImprove merges one cluster member into the base. Non-destructive: an
// existing non-empty value is replaced only by a strictly longer text value;
// identifiers and the year fill empty slots only.
func fillOrImprove(base, in source.Candidate) source.Candidate {
	base.Title = betterText(base.Title, in.Title)
	base.Subtitle = betterText(base.Subtitle, in.Subtitle)
	base.Publisher = betterText(base.Publisher, in.Publisher)

	if base.PublishedYear == "" {
		base.PublishedYear = in.PublishedYear
	}
	if base.Language == "" {
		base.Language = in.Language
	}
	if base.ISBN == "" {
		base.ISBN = in.ISBN
	}
	if base.DOI == "" {
		base.DOI = in.DOI
	}
	if base.SourceURL == "" {
		base.SourceURL = in.SourceURL
	}

	base.Kind = mergeKind(base.Kind, in.Kind)
	base.Authors = normalize.Authors(append(base.Authors, in.Authors...))
	return base
}

// betterText keeps the existing value unless the incoming one is strictly
// longer.
func betterText(existing, incoming string) string {
	if len(incoming) > len(existing) {
		return incoming
	}
	return existing
}

// mergeKind resolves a kind disagreement: equal keeps, unknown yields, and
// book dominates paper.
func mergeKind(a, b source.Kind) source.Kind {
	switch {
	case a == b:
		return a
	case a == source.KindUnknown || a == "":
		return b
	case b == source.KindUnknown || b == "":
		return a
	case a == source.KindBook || b == source.KindBook:
		return source.KindBook
	default:
		return source.KindPaper
	}
}

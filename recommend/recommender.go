package recommend

import (
	"sort"
	"strings"
)

// Answer carries the three questionnaire codes. Situation is a single
// letter (A single, B in a couple, C questioning the relationship, D after
// a breakup), Priority nests under it (A1, B2, ...) and Challenge nests
// further (A1.1); only Situation and Priority drive the recommendation.
type Answer struct {
	Situation string
	Priority  string
	Challenge string
}

const (
	minRecommendations = 2
	maxRecommendations = 4
	fallbackResults    = 2
)

// coupleOnlyIDs are programs that require two partners; they are excluded
// for respondents who are single or past a breakup.
var coupleOnlyIDs = map[string]bool{
	"couple":         true,
	"checkup":        true,
	"decision":       true,
	"vit-a-la-carte": true,
}

// individualOnlyTypes are programs followed alone; they are excluded for
// respondents answering as part of a couple.
var individualOnlyTypes = map[string]bool{
	"individual":      true,
	"vit":             true,
	"breakup":         true,
	"self-confidence": true,
}

// curated is the single authoritative priority-to-offerings table. The two
// divergent copies that used to live in the questionnaire and the utility
// module were merged; where they disagreed the union was kept.
var curated = map[string][]string{
	"A1": {"individual", "new-relationship"},
	"A2": {"self-confidence", "vit", "individual"},
	"A3": {"individual", "expectations"},
	"B1": {"couple", "checkup"},
	"B2": {"couple", "decision"},
	"B3": {"checkup", "expectations", "couple"},
	"C1": {"decision", "couple"},
	"C2": {"checkup", "decision"},
	"C3": {"decision", "expectations"},
	"D1": {"breakup", "individual"},
	"D2": {"vit", "breakup", "individual"},
	"D3": {"self-confidence", "breakup"},
}

// situationKeywords drive the fallback scoring path when the priority code
// has no curated entry.
var situationKeywords = map[string][]string{
	"A": {"single", "self", "confidence", "new"},
	"B": {"couple", "communication", "conflict", "trust"},
	"C": {"decision", "doubt", "stay", "questioning"},
	"D": {"breakup", "healing", "rebuild", "separation"},
}

// Recommend maps the questionnaire answer to a deduplicated, ordered list of
// 2 to 4 offerings. It prefers the curated mapping and falls back to keyword
// scoring for unknown priority codes. It never errors: unexpected codes
// degrade gracefully, and an empty catalog yields an empty list.
func Recommend(catalog []Offering, answer Answer) []Offering {
	if len(catalog) == 0 {
		return nil
	}

	filtered := situationFilter(catalog, answer.Situation)

	var picked []Offering
	if ids, ok := curated[answer.Priority]; ok {
		picked = resolveCurated(filtered, ids)
	} else {
		picked = fallbackScore(catalog, answer.Situation, fallbackResults)
	}

	// Backfill so the respondent always sees at least two suggestions.
	for len(picked) < minRecommendations {
		next, ok := firstRemaining(filtered, picked)
		if !ok {
			break
		}
		picked = append(picked, next)
	}

	if len(picked) < maxRecommendations && !containsID(picked, FlagshipOfferingID) {
		if flagship, ok := findOffering(filtered, FlagshipOfferingID); ok {
			picked = append(picked, flagship)
		}
	}

	if len(picked) > maxRecommendations {
		picked = picked[:maxRecommendations]
	}
	return picked
}

// situationFilter applies the hard couple-vs-individual fit rules. Couple
// situations (B, C) drop individual-only programs; single and post-breakup
// situations (A, D) drop couple-only programs. Unknown codes filter nothing.
func situationFilter(catalog []Offering, situation string) []Offering {
	out := make([]Offering, 0, len(catalog))
	for _, o := range catalog {
		if situationAllows(situation, o) {
			out = append(out, o)
		}
	}
	return out
}

func situationAllows(situation string, o Offering) bool {
	switch situation {
	case "B", "C":
		return !individualOnlyTypes[offeringType(o)]
	case "A", "D":
		return !coupleOnlyIDs[o.ID]
	default:
		return true
	}
}

// resolveCurated maps curated ids onto catalog entries in priority order.
// A named id missing from the filtered catalog falls back to the first
// remaining filtered candidate so the curated path never comes up empty.
func resolveCurated(filtered []Offering, ids []string) []Offering {
	picked := make([]Offering, 0, maxRecommendations)
	for _, id := range ids {
		if len(picked) == maxRecommendations {
			break
		}
		o, ok := findOffering(filtered, id)
		if !ok {
			o, ok = firstRemaining(filtered, picked)
			if !ok {
				continue
			}
		}
		if !containsID(picked, o.ID) {
			picked = append(picked, o)
		}
	}
	return picked
}

// fallbackScore ranks all candidates by keyword containment. A title match
// scores higher than a description match; situation-inappropriate offerings
// are pushed far negative rather than hard-excluded, then every net-negative
// candidate is dropped. Ties keep catalog order, so identical inputs always
// produce identical output.
func fallbackScore(catalog []Offering, situation string, max int) []Offering {
	keywords := situationKeywords[situation]

	type scored struct {
		offering Offering
		score    int
	}
	candidates := make([]scored, 0, len(catalog))
	for _, o := range catalog {
		score := 0
		for _, kw := range keywords {
			if containsFold(o.Title, kw) {
				score += 3
			}
			if containsFold(o.Description, kw) {
				score++
			}
			for _, own := range o.Keywords {
				if strings.EqualFold(own, kw) {
					score += 2
				}
			}
		}
		if !situationAllows(situation, o) {
			score -= 100
		}
		if score < 0 {
			continue
		}
		candidates = append(candidates, scored{offering: o, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]Offering, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.offering)
	}
	return out
}

func offeringType(o Offering) string {
	if o.Type != "" {
		return o.Type
	}
	return o.ID
}

func findOffering(list []Offering, id string) (Offering, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return Offering{}, false
}

func firstRemaining(list []Offering, picked []Offering) (Offering, bool) {
	for _, o := range list {
		if !containsID(picked, o.ID) {
			return o, true
		}
	}
	return Offering{}, false
}

func containsID(list []Offering, id string) bool {
	for _, o := range list {
		if o.ID == id {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

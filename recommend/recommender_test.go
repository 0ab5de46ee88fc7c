package recommend

import (
	"reflect"
	"testing"
)

func idsOf(list []Offering) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func TestCuratedScenario(t *testing.T) {
	catalog := []Offering{
		{ID: "individual", Type: "individual", Title: "Individual Therapy", Kind: KindTherapy},
		{ID: "new-relationship", Type: "new-relationship", Title: "Starting a New Relationship", Kind: KindTherapy},
		{ID: "couple", Type: "couple", Title: "Couple Therapy", Kind: KindTherapy},
		{ID: "checkup", Type: "checkup", Title: "Relationship Check-Up", Kind: KindTherapy},
	}

	got := Recommend(catalog, Answer{Situation: "A", Priority: "A1", Challenge: "A1.1"})

	want := []string{"individual", "new-relationship"}
	if !reflect.DeepEqual(idsOf(got), want) {
		t.Fatalf("expected %v, got %v", want, idsOf(got))
	}
}

func TestDeterminism(t *testing.T) {
	catalog := DefaultCatalog()
	answers := []Answer{
		{Situation: "A", Priority: "A1", Challenge: "A1.1"},
		{Situation: "B", Priority: "B2", Challenge: "B2.3"},
		{Situation: "C", Priority: "C9", Challenge: ""},
		{Situation: "Z", Priority: "??", Challenge: ""},
	}
	for _, ans := range answers {
		first := Recommend(catalog, ans)
		second := Recommend(catalog, ans)
		if !reflect.DeepEqual(idsOf(first), idsOf(second)) {
			t.Errorf("%s/%s: results differ between calls: %v vs %v",
				ans.Situation, ans.Priority, idsOf(first), idsOf(second))
		}
	}
}

func TestSituationExclusions(t *testing.T) {
	catalog := DefaultCatalog()

	for _, priority := range []string{"A1", "A2", "A3", "D1", "D2", "unknown"} {
		situation := priority[:1]
		if situation == "u" {
			situation = "A"
		}
		for _, o := range Recommend(catalog, Answer{Situation: situation, Priority: priority}) {
			if coupleOnlyIDs[o.ID] {
				t.Errorf("situation %s priority %s recommended couple-only %s", situation, priority, o.ID)
			}
		}
	}

	for _, priority := range []string{"B1", "B2", "B3", "C1", "C2", "unknown"} {
		situation := priority[:1]
		if situation == "u" {
			situation = "B"
		}
		for _, o := range Recommend(catalog, Answer{Situation: situation, Priority: priority}) {
			if individualOnlyTypes[o.Type] {
				t.Errorf("situation %s priority %s recommended individual-only %s", situation, priority, o.ID)
			}
		}
	}
}

func TestBounds(t *testing.T) {
	catalog := DefaultCatalog()
	for priority := range curated {
		situation := priority[:1]
		got := Recommend(catalog, Answer{Situation: situation, Priority: priority})
		if len(got) < minRecommendations || len(got) > maxRecommendations {
			t.Errorf("priority %s: expected between 2 and 4 results, got %d (%v)", priority, len(got), idsOf(got))
		}

		seen := make(map[string]bool, len(got))
		for _, o := range got {
			if seen[o.ID] {
				t.Errorf("priority %s: duplicate offering %s", priority, o.ID)
			}
			seen[o.ID] = true
		}
	}
}

func TestUnknownPriorityFallsBackToScoring(t *testing.T) {
	catalog := DefaultCatalog()

	got := Recommend(catalog, Answer{Situation: "B", Priority: "B9", Challenge: "B9.9"})
	if len(got) < minRecommendations {
		t.Fatalf("fallback path returned %d results", len(got))
	}
	for _, o := range got {
		if individualOnlyTypes[o.Type] {
			t.Errorf("fallback for couple situation recommended individual-only %s", o.ID)
		}
	}
}

func TestFlagshipAppendedWhenItFits(t *testing.T) {
	catalog := DefaultCatalog()

	forSingle := Recommend(catalog, Answer{Situation: "A", Priority: "A1"})
	if !containsID(forSingle, FlagshipOfferingID) {
		t.Errorf("expected flagship appended for single respondent, got %v", idsOf(forSingle))
	}

	forCouple := Recommend(catalog, Answer{Situation: "B", Priority: "B1"})
	if containsID(forCouple, FlagshipOfferingID) {
		t.Errorf("flagship is individual-only and must not appear for couples, got %v", idsOf(forCouple))
	}
}

func TestCuratedMissingIDFallsBackToFilteredCandidate(t *testing.T) {
	// Catalog missing new-relationship: the curated A1 entry must fall back
	// to another filtered candidate instead of returning a single result.
	catalog := []Offering{
		{ID: "individual", Type: "individual", Title: "Individual Therapy", Kind: KindTherapy},
		{ID: "expectations", Type: "expectations", Title: "Expectations", Kind: KindCoaching},
		{ID: "couple", Type: "couple", Title: "Couple Therapy", Kind: KindTherapy},
	}

	got := Recommend(catalog, Answer{Situation: "A", Priority: "A1"})
	if len(got) < minRecommendations {
		t.Fatalf("expected at least 2 results, got %v", idsOf(got))
	}
	for _, o := range got {
		if o.ID == "couple" {
			t.Errorf("fallback resolution leaked a couple-only offering: %v", idsOf(got))
		}
	}
}

func TestEmptyCatalog(t *testing.T) {
	if got := Recommend(nil, Answer{Situation: "A", Priority: "A1"}); len(got) != 0 {
		t.Fatalf("expected empty result for empty catalog, got %v", idsOf(got))
	}
}

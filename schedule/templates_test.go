package schedule

import (
	"errors"
	"strings"
	"testing"

	"coupleflow/journey"
)

func TestRegistryCoversEveryCatalogEmail(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := registry.Validate(journey.Default()); err != nil {
		t.Fatalf("every email event needs a template: %v", err)
	}
}

func TestRegistryValidateFlagsMissingTemplate(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	g := journey.New([]journey.Event{
		{
			ID: "mystery", Type: journey.EventEmail, Phase: journey.PhaseInitial,
			PartnerScope: journey.ScopeBoth, Trigger: journey.TriggerImmediate,
			EmailType: "mystery",
		},
	})
	if err := registry.Validate(g); err == nil {
		t.Fatal("expected validation to flag the missing template")
	}
}

func TestRenderFillsPlaceholders(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	subject, body, err := registry.Render(journey.EmailWelcome, map[string]string{
		"name":         "Ana",
		"partner_name": "Ben",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(subject, "Ana") {
		t.Errorf("subject not personalized: %q", subject)
	}
	if !strings.Contains(body, "Ana") || !strings.Contains(body, "Ben") {
		t.Errorf("body missing names: %q", body)
	}
}

func TestRenderEscapesHTMLInData(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	_, body, err := registry.Render(journey.EmailWelcome, map[string]string{
		"name":         "<script>alert(1)</script>",
		"partner_name": "Ben",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Errorf("dynamic data must be escaped, got %q", body)
	}
}

func TestRenderUnknownType(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, _, err := registry.Render("nope", nil); !errors.Is(err, ErrUnknownEmailType) {
		t.Fatalf("expected ErrUnknownEmailType, got %v", err)
	}
}

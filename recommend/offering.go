package recommend

// Kind separates the two halves of the catalog.
type Kind string

const (
	KindTherapy  Kind = "therapy"
	KindCoaching Kind = "coaching"
)

// Offering is one purchasable program from the static catalog. The
// recommender treats the catalog as immutable for the duration of a scoring
// pass; pricing fields are carried for display only.
type Offering struct {
	ID          string
	Type        string
	Title       string
	Description string
	Kind        Kind
	Keywords    []string
	PriceCents  int64
}

// FlagshipOfferingID is the high-touch individual program appended to a
// recommendation list when it fits the situation and the list has room.
const FlagshipOfferingID = "vit"

// defaultCatalog lists the therapy offerings first, then coaching, in
// catalog order. The Type discriminator is derived from the id when the
// catalog is served.
var defaultCatalog = []Offering{
	{
		ID:          "individual",
		Title:       "Individual Therapy",
		Description: "One-on-one sessions to work through personal patterns, self-esteem and attachment.",
		Kind:        KindTherapy,
		Keywords:    []string{"single", "self", "confidence", "patterns"},
		PriceCents:  9000,
	},
	{
		ID:          "couple",
		Title:       "Couple Therapy",
		Description: "Joint sessions to rebuild communication and trust as a couple.",
		Kind:        KindTherapy,
		Keywords:    []string{"couple", "communication", "conflict", "trust"},
		PriceCents:  12000,
	},
	{
		ID:          "checkup",
		Title:       "Relationship Check-Up",
		Description: "A short guided review of where your couple stands and what needs attention.",
		Kind:        KindTherapy,
		Keywords:    []string{"couple", "review", "communication"},
		PriceCents:  6000,
	},
	{
		ID:          "decision",
		Title:       "Stay or Go Decision Support",
		Description: "Structured support when you are questioning whether to stay in the relationship.",
		Kind:        KindTherapy,
		Keywords:    []string{"decision", "doubt", "stay", "questioning"},
		PriceCents:  11000,
	},
	{
		ID:          "new-relationship",
		Title:       "Starting a New Relationship",
		Description: "Build healthy foundations when a new relationship is beginning, or about to.",
		Kind:        KindTherapy,
		Keywords:    []string{"single", "new", "beginning"},
		PriceCents:  8000,
	},
	{
		ID:          "vit",
		Title:       "VIT Intensive",
		Description: "The flagship individual journey: an intensive, high-touch program over three months.",
		Kind:        KindCoaching,
		Keywords:    []string{"intensive", "individual", "transformation"},
		PriceCents:  290000,
	},
	{
		ID:          "vit-a-la-carte",
		Title:       "VIT a la Carte",
		Description: "The intensive program adapted for couples, session by session.",
		Kind:        KindCoaching,
		Keywords:    []string{"couple", "intensive"},
		PriceCents:  45000,
	},
	{
		ID:          "breakup",
		Title:       "Breakup Recovery",
		Description: "Heal and rebuild after a separation, at your own pace.",
		Kind:        KindCoaching,
		Keywords:    []string{"breakup", "healing", "rebuild", "separation"},
		PriceCents:  7000,
	},
	{
		ID:          "expectations",
		Title:       "Expectations and Disappointments",
		Description: "Untangle what you expect from your partner from what keeps disappointing you.",
		Kind:        KindCoaching,
		Keywords:    []string{"expectations", "disappointment", "communication"},
		PriceCents:  5000,
	},
	{
		ID:          "self-confidence",
		Title:       "Self-Confidence Coaching",
		Description: "Regain confidence in yourself before, during or after a relationship.",
		Kind:        KindCoaching,
		Keywords:    []string{"confidence", "self", "single"},
		PriceCents:  6500,
	},
}

// DefaultCatalog returns a copy of the built-in offerings with the Type
// discriminator filled in.
func DefaultCatalog() []Offering {
	out := make([]Offering, len(defaultCatalog))
	copy(out, defaultCatalog)
	for i := range out {
		if out[i].Type == "" {
			out[i].Type = out[i].ID
		}
	}
	return out
}

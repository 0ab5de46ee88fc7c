package journey

// Session event ids double as the sessionType values stored on session
// records. Email type codes double as template codes in the email subsystem.
const (
	SessionInitial      = "initial"
	SessionIndividual1A = "individual_1_p1"
	SessionIndividual1B = "individual_1_p2"
	SessionIndividual2A = "individual_2_p1"
	SessionIndividual2B = "individual_2_p2"
	SessionFinal        = "final"
)

const (
	EmailWelcome          = "welcome"
	EmailPartnerInvite    = "partner_invite"
	EmailInitialPrep      = "initial_prep"
	EmailInitialRecap     = "initial_recap"
	EmailQuestionnaireA   = "questionnaire_p1"
	EmailQuestionnaireB   = "questionnaire_p2"
	EmailIndividualRecapA = "individual_1_recap_p1"
	EmailIndividualRecapB = "individual_1_recap_p2"
	EmailIndividualPrepA  = "individual_2_prep_p1"
	EmailIndividualPrepB  = "individual_2_prep_p2"
	EmailFinalPrep        = "final_prep"
	EmailFinalRecap       = "final_recap"
	EmailFeedback         = "feedback"
)

// defaultCatalog is the fixed multi-month program, declared in one place and
// validated once at startup. Declaration order is catalog order.
var defaultCatalog = []Event{
	{
		ID:           EmailWelcome,
		Title:        "Welcome to the program",
		Description:  "Sent when the couple account is created.",
		Type:         EventEmail,
		Phase:        PhaseInitial,
		PartnerScope: ScopeBoth,
		Trigger:      TriggerImmediate,
		EmailType:    EmailWelcome,
	},
	{
		ID:           EmailPartnerInvite,
		Title:        "Partner invitation",
		Description:  "Invites the second partner to link their account.",
		Type:         EventEmail,
		Phase:        PhaseInitial,
		PartnerScope: ScopePartner2,
		Trigger:      TriggerImmediate,
		EmailType:    EmailPartnerInvite,
	},
	{
		ID:           SessionInitial,
		Title:        "Initial couple session",
		Description:  "First joint session with the therapist.",
		Type:         EventSession,
		Phase:        PhaseInitial,
		PartnerScope: ScopeBoth,
	},
	{
		ID:           EmailInitialPrep,
		Title:        "Preparing your first session",
		Description:  "Practical details and a short intake questionnaire.",
		Type:         EventEmail,
		Phase:        PhaseInitial,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionInitial},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -3,
		EmailType:    EmailInitialPrep,
	},
	{
		ID:           EmailInitialRecap,
		Title:        "After your first session",
		Description:  "Recap and what the individual phase looks like.",
		Type:         EventEmail,
		Phase:        PhaseInitial,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionInitial},
		Trigger:      TriggerAfterSession,
		OffsetDays:   1,
		EmailType:    EmailInitialRecap,
	},
	{
		ID:           SessionIndividual1A,
		Title:        "First individual session (partner 1)",
		Type:         EventSession,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner1,
		DependsOn:    []string{SessionInitial},
	},
	{
		ID:           SessionIndividual1B,
		Title:        "First individual session (partner 2)",
		Type:         EventSession,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner2,
		DependsOn:    []string{SessionInitial},
	},
	{
		ID:           EmailQuestionnaireA,
		Title:        "Your individual questionnaire",
		Description:  "Link to the questionnaire to fill in before the session.",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner1,
		DependsOn:    []string{SessionIndividual1A},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -2,
		EmailType:    EmailQuestionnaireA,
	},
	{
		ID:           EmailQuestionnaireB,
		Title:        "Your individual questionnaire",
		Description:  "Link to the questionnaire to fill in before the session.",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner2,
		DependsOn:    []string{SessionIndividual1B},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -2,
		EmailType:    EmailQuestionnaireB,
	},
	{
		ID:           EmailIndividualRecapA,
		Title:        "After your individual session",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner1,
		DependsOn:    []string{SessionIndividual1A},
		Trigger:      TriggerAfterSession,
		OffsetDays:   1,
		EmailType:    EmailIndividualRecapA,
	},
	{
		ID:           EmailIndividualRecapB,
		Title:        "After your individual session",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner2,
		DependsOn:    []string{SessionIndividual1B},
		Trigger:      TriggerAfterSession,
		OffsetDays:   1,
		EmailType:    EmailIndividualRecapB,
	},
	{
		ID:           SessionIndividual2A,
		Title:        "Second individual session (partner 1)",
		Type:         EventSession,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner1,
		DependsOn:    []string{SessionIndividual1A},
	},
	{
		ID:           SessionIndividual2B,
		Title:        "Second individual session (partner 2)",
		Type:         EventSession,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner2,
		DependsOn:    []string{SessionIndividual1B},
	},
	{
		ID:           EmailIndividualPrepA,
		Title:        "Preparing your second individual session",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner1,
		DependsOn:    []string{SessionIndividual2A},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -2,
		EmailType:    EmailIndividualPrepA,
	},
	{
		ID:           EmailIndividualPrepB,
		Title:        "Preparing your second individual session",
		Type:         EventEmail,
		Phase:        PhaseIndividual,
		PartnerScope: ScopePartner2,
		DependsOn:    []string{SessionIndividual2B},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -2,
		EmailType:    EmailIndividualPrepB,
	},
	{
		ID:           SessionFinal,
		Title:        "Final couple session",
		Description:  "Joint closing session reviewing the program.",
		Type:         EventSession,
		Phase:        PhaseFinal,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionIndividual2A, SessionIndividual2B},
	},
	{
		ID:           EmailFinalPrep,
		Title:        "Preparing your final session",
		Type:         EventEmail,
		Phase:        PhaseFinal,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionFinal},
		Trigger:      TriggerBeforeSession,
		OffsetDays:   -3,
		EmailType:    EmailFinalPrep,
	},
	{
		ID:           EmailFinalRecap,
		Title:        "After your final session",
		Type:         EventEmail,
		Phase:        PhaseFinal,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionFinal},
		Trigger:      TriggerAfterSession,
		OffsetDays:   1,
		EmailType:    EmailFinalRecap,
	},
	{
		ID:           EmailFeedback,
		Title:        "How has it been since?",
		Description:  "Feedback request with a thank-you promo code.",
		Type:         EventEmail,
		Phase:        PhaseFinal,
		PartnerScope: ScopeBoth,
		DependsOn:    []string{SessionFinal},
		Trigger:      TriggerAfterSession,
		OffsetDays:   14,
		EmailType:    EmailFeedback,
	},
}

// DefaultCatalog returns a copy of the built-in program events in catalog order.
func DefaultCatalog() []Event {
	out := make([]Event, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

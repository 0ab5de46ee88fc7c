package schedule

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"coupleflow/journey"
)

// ErrUnknownEmailType signals a template lookup for a code the registry does
// not carry. At runtime this is a configuration error: the catalog should
// have been validated against the registry at startup.
var ErrUnknownEmailType = errors.New("schedule: unknown email type")

type emailTemplate struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// Registry maps template codes to renderable email templates. It is built
// once at startup and passed to the sweeper explicitly; nothing mutates it
// afterwards.
type Registry struct {
	templates map[string]emailTemplate
}

type templateDef struct {
	code    string
	subject string
	body    string
}

var builtinTemplates = []templateDef{
	{
		code:    journey.EmailWelcome,
		subject: "Welcome to your program, {{.name}}",
		body: `<p>Hello {{.name}},</p>
<p>Welcome! Your therapy program with {{.partner_name}} starts here. We will
guide you through every step, one email at a time.</p>`,
	},
	{
		code:    journey.EmailPartnerInvite,
		subject: "{{.name}} invited you to start a program together",
		body: `<p>Hello {{.partner_name}},</p>
<p>{{.name}} has started a couple program and would like you to join.
Use your personal link to connect your account:</p>
<p><a href="{{.invite_url}}">Join the program</a></p>`,
	},
	{
		code:    journey.EmailInitialPrep,
		subject: "Preparing your first session",
		body: `<p>Hello {{.name}},</p>
<p>Your first session together is on {{.session_date}}. Here is how to
prepare, and what to expect.</p>`,
	},
	{
		code:    journey.EmailInitialRecap,
		subject: "After your first session",
		body: `<p>Hello {{.name}},</p>
<p>Thank you both for your first session. Next up is the individual phase;
each of you will receive your own schedule.</p>`,
	},
	{
		code:    journey.EmailQuestionnaireA,
		subject: "Your questionnaire before {{.session_date}}",
		body: `<p>Hello {{.name}},</p>
<p>Before your individual session on {{.session_date}}, please fill in your
questionnaire:</p>
<p><a href="{{.questionnaire_url}}">Open my questionnaire</a></p>`,
	},
	{
		code:    journey.EmailQuestionnaireB,
		subject: "Your questionnaire before {{.session_date}}",
		body: `<p>Hello {{.partner_name}},</p>
<p>Before your individual session on {{.session_date}}, please fill in your
questionnaire:</p>
<p><a href="{{.questionnaire_url}}">Open my questionnaire</a></p>`,
	},
	{
		code:    journey.EmailIndividualRecapA,
		subject: "After your individual session",
		body: `<p>Hello {{.name}},</p>
<p>A short recap of yesterday's session and what to keep in mind until the
next one.</p>`,
	},
	{
		code:    journey.EmailIndividualRecapB,
		subject: "After your individual session",
		body: `<p>Hello {{.partner_name}},</p>
<p>A short recap of yesterday's session and what to keep in mind until the
next one.</p>`,
	},
	{
		code:    journey.EmailIndividualPrepA,
		subject: "Preparing your second individual session",
		body: `<p>Hello {{.name}},</p>
<p>Your second individual session is on {{.session_date}}.</p>`,
	},
	{
		code:    journey.EmailIndividualPrepB,
		subject: "Preparing your second individual session",
		body: `<p>Hello {{.partner_name}},</p>
<p>Your second individual session is on {{.session_date}}.</p>`,
	},
	{
		code:    journey.EmailFinalPrep,
		subject: "Preparing your final session",
		body: `<p>Hello {{.name}},</p>
<p>Your closing session together is on {{.session_date}}. Take a moment
beforehand to look back on the road so far.</p>`,
	},
	{
		code:    journey.EmailFinalRecap,
		subject: "After your final session",
		body: `<p>Hello {{.name}},</p>
<p>Congratulations on completing the program together.</p>`,
	},
	{
		code:    journey.EmailFeedback,
		subject: "How has it been since, {{.name}}?",
		body: `<p>Hello {{.name}},</p>
<p>Two weeks have passed since your final session. We would love to hear how
things are going. As a thank you, here is a code for your next booking:
<strong>{{.promo_code}}</strong></p>`,
	},
}

// NewRegistry parses the built-in templates. A parse failure is a
// configuration error and should stop the process.
func NewRegistry() (*Registry, error) {
	templates := make(map[string]emailTemplate, len(builtinTemplates))
	for _, def := range builtinTemplates {
		subject, err := texttemplate.New(def.code + ".subject").Parse(def.subject)
		if err != nil {
			return nil, fmt.Errorf("schedule: parse subject %q: %w", def.code, err)
		}
		body, err := htmltemplate.New(def.code).Parse(def.body)
		if err != nil {
			return nil, fmt.Errorf("schedule: parse template %q: %w", def.code, err)
		}
		templates[def.code] = emailTemplate{subject: subject, body: body}
	}
	return &Registry{templates: templates}, nil
}

// Validate asserts every email event in the graph has a template. Run this
// at startup so a missing mapping can never surface mid-sweep.
func (r *Registry) Validate(g *journey.Graph) error {
	for _, e := range g.EventsByType(journey.EventEmail) {
		if _, ok := r.templates[e.EmailType]; !ok {
			return fmt.Errorf("schedule: no template for email type %q (event %q)", e.EmailType, e.ID)
		}
	}
	return nil
}

// Render fills the template for the given code with the row's dynamic data
// and returns the subject and HTML body.
func (r *Registry) Render(emailType string, data map[string]string) (string, string, error) {
	tmpl, ok := r.templates[emailType]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEmailType, emailType)
	}

	var subject strings.Builder
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("schedule: render subject %q: %w", emailType, err)
	}

	var body strings.Builder
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("schedule: render %q: %w", emailType, err)
	}
	return subject.String(), body.String(), nil
}

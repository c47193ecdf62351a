// Package prompt assembles the system instruction sent with every chat
// turn. Each deployment runs exactly one variant, chosen at startup; the
// variant decides the persona, the domain framing, and which reference
// data is embedded in the instruction.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ariephoon/aiva/internal/config"
)

// Assembler renders the system instruction for one variant. It is built
// once at startup and is pure afterwards: System() always returns the
// same string for the same clock month.
type Assembler struct {
	tmpl    *template.Template
	persona string
	now     func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// New creates an Assembler for the given variant. persona overrides the
// variant's default persona name when non-empty.
func New(variant, persona string, opts ...Option) (*Assembler, error) {
	text, defaultPersona, err := variantTemplate(variant)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(variant).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template %q: %w", variant, err)
	}

	if persona == "" {
		persona = defaultPersona
	}

	a := &Assembler{
		tmpl:    tmpl,
		persona: persona,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// System renders the system instruction.
func (a *Assembler) System() string {
	now := a.now()
	var sb strings.Builder

	// Template data is fixed at render time. Month names stay in English
	// because the reference data uses English column headers.
	err := a.tmpl.Execute(&sb, struct {
		Persona string
		Month   string
		Year    int
	}{
		Persona: a.persona,
		Month:   now.Month().String(),
		Year:    now.Year(),
	})
	if err != nil {
		// Templates are parsed at startup and reference only the fields
		// above, so execution cannot fail with well-formed variants.
		panic(fmt.Sprintf("prompt template execution: %v", err))
	}

	return sb.String()
}

// Persona returns the active persona name.
func (a *Assembler) Persona() string {
	return a.persona
}

func variantTemplate(variant string) (text, defaultPersona string, err error) {
	switch variant {
	case config.VariantAivaClaims:
		return claimsTemplate, "AIVA", nil
	case config.VariantAivaData:
		return dataTemplate, "AIVA", nil
	case config.VariantTitikRecords:
		return recordsTemplate, "TITIK", nil
	default:
		return "", "", fmt.Errorf("%w: %q", config.ErrInvalidPromptVariant, variant)
	}
}

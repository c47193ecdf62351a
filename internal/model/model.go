// Package model defines the fixed catalog of chat models the service is
// willing to invoke. Clients select a model by its API name; the catalog
// maps that name to the provider-qualified identifier genkit understands.
package model

import "errors"

// ErrUnknownModel is returned by Lookup for any name outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Model describes one permitted chat model.
type Model struct {
	// APIName is the client-facing identifier, e.g. "gpt-4o-mini".
	APIName string

	// ProviderName is the provider-qualified genkit model name,
	// e.g. "openai/gpt-4o-mini".
	ProviderName string

	// Label is a human-readable name for listings.
	Label string

	// Description summarizes what the model is good at.
	Description string
}

// The catalog is compile-time fixed. There is no registration API; adding
// a model means editing this list.
var catalog = []Model{
	{
		APIName:      "gpt-4o-mini",
		ProviderName: "openai/gpt-4o-mini",
		Label:        "GPT 4o mini",
		Description:  "Small model for fast, lightweight tasks",
	},
	{
		APIName:      "gpt-4o",
		ProviderName: "openai/gpt-4o",
		Label:        "GPT 4o",
		Description:  "For complex, multi-step tasks",
	},
	{
		APIName:      "gemini-2.5-flash",
		ProviderName: "googleai/gemini-2.5-flash",
		Label:        "Gemini 2.5 Flash",
		Description:  "Fast multimodal model with large context",
	},
	{
		APIName:      "gemini-2.5-pro",
		ProviderName: "googleai/gemini-2.5-pro",
		Label:        "Gemini 2.5 Pro",
		Description:  "Strongest reasoning over long documents",
	},
}

// DefaultAPIName is the model the web client preselects. The server
// itself does not fall back to it: a request without a valid model
// name is rejected.
const DefaultAPIName = "gpt-4o-mini"

// Lookup resolves an API name to its catalog entry.
func Lookup(apiName string) (Model, error) {
	for _, m := range catalog {
		if m.APIName == apiName {
			return m, nil
		}
	}
	return Model{}, ErrUnknownModel
}

// All returns a copy of the catalog in declaration order.
func All() []Model {
	out := make([]Model, len(catalog))
	copy(out, catalog)
	return out
}

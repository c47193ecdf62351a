// Package chat runs one conversational turn against the model: resolve
// the requested model, assemble the system instruction, invoke genkit
// with the tool catalog and step budget, and report every message the
// turn produced. Persistence is the caller's concern.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ariephoon/aiva/internal/model"
	"github.com/ariephoon/aiva/internal/prompt"
)

// MaxTurns is the step budget: the maximum number of model rounds
// (including tool-call rounds) per chat turn.
const MaxTurns = 5

// StreamCallback is called for each chunk of the streaming response.
// Returning an error aborts the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Input is one chat turn request.
type Input struct {
	// ModelAPIName is the client-facing model name, resolved through the
	// model catalog before anything else happens.
	ModelAPIName string

	// Messages is the normalized conversation history, newest last.
	Messages []*ai.Message
}

// Exchange is the complete result of one turn.
type Exchange struct {
	// Response is the final model response.
	Response *ai.ModelResponse

	// NewMessages are the messages produced during the turn, in order:
	// intermediate model messages, tool responses, and the final model
	// message. Appending them to the input history yields the full
	// transcript.
	NewMessages []*ai.Message
}

// Config contains all required parameters for the Agent.
type Config struct {
	Genkit *genkit.Genkit
	Prompt *prompt.Assembler
	Logger *slog.Logger
	Tools  []ai.Tool // Pre-registered via tools.Kit.Register

	// MaxTurns overrides the step budget. Zero means MaxTurns.
	MaxTurns int
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Prompt == nil {
		return errors.New("prompt assembler is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Agent executes chat turns. It is stateless across requests; all
// configuration is captured immutably at construction, so a single Agent
// serves concurrent requests.
type Agent struct {
	g        *genkit.Genkit
	prompt   *prompt.Assembler
	logger   *slog.Logger
	maxTurns int

	toolRefs  []ai.ToolRef // Cached at construction (ai.Tool implements ai.ToolRef)
	toolNames string       // Cached as comma-separated for logging
}

// New creates an Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = MaxTurns
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		g:         cfg.Genkit,
		prompt:    cfg.Prompt,
		logger:    cfg.Logger,
		maxTurns:  maxTurns,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
	}

	a.logger.Info("chat agent initialized",
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
	)
	return a, nil
}

// Execute runs one chat turn. If callback is non-nil, text chunks are
// delivered through it as they are generated; the complete Exchange is
// returned either way.
//
// The model is resolved before the provider is contacted; an unknown name
// returns model.ErrUnknownModel and no LLM call is made.
func (a *Agent) Execute(ctx context.Context, in Input, callback StreamCallback) (*Exchange, error) {
	m, err := model.Lookup(in.ModelAPIName)
	if err != nil {
		return nil, fmt.Errorf("resolving model %q: %w", in.ModelAPIName, err)
	}

	// Deep copy before handing messages to genkit: renderMessages()
	// modifies msg.Content in-place, which races when the caller retains
	// the history (observed with genkit v1.4.0).
	messages := deepCopyMessages(in.Messages)

	opts := []ai.GenerateOption{
		ai.WithSystem(a.prompt.System()),
		ai.WithMessages(messages...),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithModelName(m.ProviderName),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	a.logger.Debug("executing chat turn",
		"model", m.ProviderName,
		"history", len(in.Messages),
		"streaming", callback != nil,
	)

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	return &Exchange{
		Response:    resp,
		NewMessages: producedMessages(resp, len(in.Messages)),
	}, nil
}

// producedMessages extracts the messages the turn added beyond the input
// history. The final request carries the whole conversation as the model
// saw it on the last round, including intermediate tool traffic; system
// messages are genkit's own framing and are excluded.
func producedMessages(resp *ai.ModelResponse, inputCount int) []*ai.Message {
	var conversation []*ai.Message
	if resp.Request != nil {
		for _, m := range resp.Request.Messages {
			if m.Role == ai.RoleSystem {
				continue
			}
			conversation = append(conversation, m)
		}
	}

	var produced []*ai.Message
	if len(conversation) > inputCount {
		produced = append(produced, conversation[inputCount:]...)
	}
	if resp.Message != nil {
		produced = append(produced, resp.Message)
	}
	return produced
}

// deepCopyMessages creates independent copies of Message and Part structs.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart copies an ai.Part. ToolRequest.Input and
// ToolResponse.Output are type any and copied by reference; genkit only
// mutates the Content slice, not tool data.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input,
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output,
			Ref:    p.ToolResponse.Ref,
		}
	}
	return cp
}

// shallowCopyMap copies map keys and values but not nested structures.
func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

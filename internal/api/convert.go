package api

import (
	"encoding/json"

	"github.com/firebase/genkit/go/ai"
)

// uiMessage is the message shape the browser UI sends: flat text content
// plus optional tool invocations and attachments.
type uiMessage struct {
	ID              string             `json:"id,omitempty"`
	Role            string             `json:"role"`
	Content         string             `json:"content"`
	ToolInvocations []uiToolInvocation `json:"toolInvocations,omitempty"`
	Attachments     []uiAttachment     `json:"experimental_attachments,omitempty"`
}

// uiToolInvocation is one tool call in a UI message. State is "call"
// while the tool runs and "result" once its output is in; the lifecycle
// never reverts.
type uiToolInvocation struct {
	State      string          `json:"state"`
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// uiAttachment is a file the user attached to a message. Attachments pass
// through to the model untouched; the backend never inspects them.
type uiAttachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url"`
}

// toGenkitMessages normalizes UI messages into genkit messages. Assistant
// tool invocations expand into a tool-request part plus, when the result
// is present, a separate tool-role message carrying the response, which
// is the shape the model API expects.
func toGenkitMessages(msgs []uiMessage) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			var parts []*ai.Part
			if m.Content != "" {
				parts = append(parts, ai.NewTextPart(m.Content))
			}

			var toolResponses []*ai.Part
			for _, inv := range m.ToolInvocations {
				parts = append(parts, ai.NewToolRequestPart(&ai.ToolRequest{
					Name:  inv.ToolName,
					Ref:   inv.ToolCallID,
					Input: decodeRaw(inv.Args),
				}))
				if inv.State == "result" {
					toolResponses = append(toolResponses, ai.NewToolResponsePart(&ai.ToolResponse{
						Name:   inv.ToolName,
						Ref:    inv.ToolCallID,
						Output: decodeRaw(inv.Result),
					}))
				}
			}

			if len(parts) > 0 {
				out = append(out, &ai.Message{Role: ai.RoleModel, Content: parts})
			}
			if len(toolResponses) > 0 {
				out = append(out, &ai.Message{Role: ai.RoleTool, Content: toolResponses})
			}

		case "system":
			out = append(out, &ai.Message{
				Role:    ai.RoleSystem,
				Content: []*ai.Part{ai.NewTextPart(m.Content)},
			})

		default: // "user" and anything unrecognized is treated as user input
			var parts []*ai.Part
			if m.Content != "" {
				parts = append(parts, ai.NewTextPart(m.Content))
			}
			for _, att := range m.Attachments {
				parts = append(parts, ai.NewMediaPart(att.ContentType, att.URL))
			}
			if len(parts) == 0 {
				parts = append(parts, ai.NewTextPart(""))
			}
			out = append(out, &ai.Message{Role: ai.RoleUser, Content: parts})
		}
	}

	return out
}

// decodeRaw turns raw JSON into the any-typed value genkit tool parts
// carry. Invalid or empty JSON becomes nil.
func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

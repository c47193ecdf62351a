package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame is one decoded data-stream frame.
type Frame struct {
	// Type is the frame prefix: "0" text delta, "9" tool call, "a" tool
	// result, "e" step finish, "d" message finish, "3" error.
	Type string

	// Raw is the JSON payload after the prefix.
	Raw json.RawMessage
}

// ToolCallFrame is the payload of a "9" frame.
type ToolCallFrame struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
}

// ToolResultFrame is the payload of an "a" frame.
type ToolResultFrame struct {
	ToolCallID string          `json:"toolCallId"`
	Result     json.RawMessage `json:"result"`
}

// FinishFrame is the payload of "e" and "d" frames.
type FinishFrame struct {
	FinishReason string `json:"finishReason"`
	Usage        struct {
		PromptTokens     int `json:"promptTokens"`
		CompletionTokens int `json:"completionTokens"`
	} `json:"usage"`
	IsContinued bool `json:"isContinued"`
}

// ParseDataStream decodes a complete data-stream response body into
// frames. Blank lines are skipped; a line without a prefix is an error.
func ParseDataStream(body string) ([]Frame, error) {
	var frames []Frame
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		prefix, payload, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed frame: %q", line)
		}
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("frame %q payload is not valid JSON: %q", prefix, payload)
		}
		frames = append(frames, Frame{Type: prefix, Raw: json.RawMessage(payload)})
	}
	return frames, nil
}

// StreamText concatenates the text deltas of all "0" frames.
func StreamText(frames []Frame) string {
	var sb strings.Builder
	for _, f := range frames {
		if f.Type != "0" {
			continue
		}
		var delta string
		if err := json.Unmarshal(f.Raw, &delta); err == nil {
			sb.WriteString(delta)
		}
	}
	return sb.String()
}

// ToolCalls decodes all "9" frames.
func ToolCalls(frames []Frame) []ToolCallFrame {
	var out []ToolCallFrame
	for _, f := range frames {
		if f.Type != "9" {
			continue
		}
		var tc ToolCallFrame
		if err := json.Unmarshal(f.Raw, &tc); err == nil {
			out = append(out, tc)
		}
	}
	return out
}

// ToolResults decodes all "a" frames.
func ToolResults(frames []Frame) []ToolResultFrame {
	var out []ToolResultFrame
	for _, f := range frames {
		if f.Type != "a" {
			continue
		}
		var tr ToolResultFrame
		if err := json.Unmarshal(f.Raw, &tr); err == nil {
			out = append(out, tr)
		}
	}
	return out
}

// CountFrames returns how many frames have the given type.
func CountFrames(frames []Frame, frameType string) int {
	n := 0
	for _, f := range frames {
		if f.Type == frameType {
			n++
		}
	}
	return n
}

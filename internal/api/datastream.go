package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Data stream frame prefixes. One frame per line, "prefix:json\n".
const (
	framePrefixText       = "0" // JSON string, text delta
	framePrefixError      = "3" // JSON string, stream error
	framePrefixToolCall   = "9" // {toolCallId, toolName, args}
	framePrefixToolResult = "a" // {toolCallId, result}
	framePrefixStepFinish = "e" // {finishReason, usage, isContinued}
	framePrefixFinish     = "d" // {finishReason, usage}
)

// dataStreamHeader marks the response as a data stream for the client SDK.
const (
	dataStreamHeaderName  = "x-vercel-ai-data-stream"
	dataStreamHeaderValue = "v1"
)

// streamUsage is the token usage object carried by finish frames.
type streamUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// dataStreamWriter emits data-stream frames and flushes after each one so
// deltas reach the client as they are produced.
type dataStreamWriter struct {
	w       io.Writer
	flusher http.Flusher
	wrote   bool
}

// newDataStreamWriter prepares w for streaming: sets the data-stream
// headers and resolves the flusher. Call before writing any body bytes.
func newDataStreamWriter(w http.ResponseWriter) *dataStreamWriter {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(dataStreamHeaderName, dataStreamHeaderValue)
	w.Header().Set("Cache-Control", "no-cache")

	flusher, _ := w.(http.Flusher)
	return &dataStreamWriter{w: w, flusher: flusher}
}

// Started reports whether any frame has been written. Once true, the
// response status is committed and errors can only be signaled in-band.
func (d *dataStreamWriter) Started() bool {
	return d.wrote
}

// writeFrame marshals the payload and emits one frame.
func (d *dataStreamWriter) writeFrame(prefix string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", prefix, err)
	}
	if _, err := fmt.Fprintf(d.w, "%s:%s\n", prefix, data); err != nil {
		return fmt.Errorf("writing %s frame: %w", prefix, err)
	}
	d.wrote = true
	if d.flusher != nil {
		d.flusher.Flush()
	}
	return nil
}

// TextDelta emits a "0" frame with a chunk of assistant text.
func (d *dataStreamWriter) TextDelta(text string) error {
	return d.writeFrame(framePrefixText, text)
}

// ToolCall emits a "9" frame announcing a tool invocation.
func (d *dataStreamWriter) ToolCall(callID, toolName string, args any) error {
	return d.writeFrame(framePrefixToolCall, map[string]any{
		"toolCallId": callID,
		"toolName":   toolName,
		"args":       args,
	})
}

// ToolResult emits an "a" frame carrying a tool's output. A result frame
// always follows the matching tool call frame.
func (d *dataStreamWriter) ToolResult(callID string, result any) error {
	return d.writeFrame(framePrefixToolResult, map[string]any{
		"toolCallId": callID,
		"result":     result,
	})
}

// StepFinish emits an "e" frame closing one model round.
func (d *dataStreamWriter) StepFinish(finishReason string, usage streamUsage, isContinued bool) error {
	return d.writeFrame(framePrefixStepFinish, map[string]any{
		"finishReason": finishReason,
		"usage":        usage,
		"isContinued":  isContinued,
	})
}

// Finish emits the terminal "d" frame.
func (d *dataStreamWriter) Finish(finishReason string, usage streamUsage) error {
	return d.writeFrame(framePrefixFinish, map[string]any{
		"finishReason": finishReason,
		"usage":        usage,
	})
}

// Error emits a "3" frame. Used when the turn fails after the response
// status is already committed.
func (d *dataStreamWriter) Error(message string) error {
	return d.writeFrame(framePrefixError, message)
}

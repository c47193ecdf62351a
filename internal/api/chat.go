package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/firebase/genkit/go/ai"

	"github.com/ariephoon/aiva/internal/chat"
	"github.com/ariephoon/aiva/internal/model"
	"github.com/ariephoon/aiva/internal/store"
)

// turnRunner executes one chat turn. Satisfied by *chat.Agent.
type turnRunner interface {
	Execute(ctx context.Context, in chat.Input, cb chat.StreamCallback) (*chat.Exchange, error)
}

// transcriptStore is the persistence surface the handler needs.
// Satisfied by *store.Store.
type transcriptStore interface {
	Save(ctx context.Context, chat store.StoredChat) error
	Chat(ctx context.Context, id string) (store.StoredChat, error)
	Delete(ctx context.Context, id string) error
}

// chatHandler serves POST and DELETE /api/chat.
type chatHandler struct {
	agent  turnRunner
	store  transcriptStore
	logger *slog.Logger
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	ID       string      `json:"id"`
	Messages []uiMessage `json:"messages"`
	Model    string      `json:"model"`
}

// send handles POST /api/chat: guard, validate, stream, persist.
//
// Order matters: the session check runs before anything else, the model
// check before the provider is contacted. Once the first frame is out the
// status is committed and later failures can only be reported in-band.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok || userID == "" {
		writeText(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("malformed chat request", "error", err)
		writeText(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	if _, err := model.Lookup(req.Model); err != nil {
		writeText(w, http.StatusNotFound, msgModelNotFound)
		return
	}

	history := toGenkitMessages(req.Messages)

	stream := newDataStreamWriter(w)
	tracker := newToolFrameTracker()
	textStreamed := false

	cb := func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
		for _, part := range chunk.Content {
			switch {
			case part.Kind == ai.PartText:
				if part.Text == "" {
					continue
				}
				if err := stream.TextDelta(part.Text); err != nil {
					return err
				}
				textStreamed = true
			case part.ToolRequest != nil:
				id := tracker.callID(part.ToolRequest)
				if id == "" {
					continue
				}
				if err := stream.ToolCall(id, part.ToolRequest.Name, part.ToolRequest.Input); err != nil {
					return err
				}
			}
		}
		return nil
	}

	ex, err := h.agent.Execute(r.Context(), chat.Input{
		ModelAPIName: req.Model,
		Messages:     history,
	}, cb)
	if err != nil {
		h.logger.Error("chat turn failed", "error", err, "chat_id", req.ID)
		if stream.Started() {
			_ = stream.Error(msgInternalError)
			return
		}
		writeText(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	h.writeToolTraffic(stream, tracker, ex.NewMessages)

	if !textStreamed {
		// Provider did not stream; deliver the final text in one delta.
		if text := ex.Response.Text(); text != "" {
			_ = stream.TextDelta(text)
		}
	}

	reason := finishReason(ex.Response)
	usage := usageOf(ex.Response)
	_ = stream.StepFinish(reason, usage, false)
	_ = stream.Finish(reason, usage)

	// Persistence is a discrete step after the stream: the response the
	// client saw is already final, so failures are logged and swallowed.
	if req.ID != "" {
		full := append(slices.Clone(history), ex.NewMessages...)
		if err := h.store.Save(r.Context(), store.StoredChat{
			ID:       req.ID,
			UserID:   userID,
			Messages: full,
		}); err != nil {
			h.logger.Warn("failed to save chat", "error", err, "chat_id", req.ID)
		}
	}
}

// writeToolTraffic emits call and result frames for the tool rounds of a
// completed turn, skipping calls already announced during streaming. A
// result frame is always preceded by its call frame.
func (h *chatHandler) writeToolTraffic(stream *dataStreamWriter, tracker *toolFrameTracker, produced []*ai.Message) {
	for _, msg := range produced {
		for _, part := range msg.Content {
			switch {
			case part.ToolRequest != nil:
				id := tracker.replayID(part.ToolRequest)
				if id == "" {
					continue
				}
				if err := stream.ToolCall(id, part.ToolRequest.Name, part.ToolRequest.Input); err != nil {
					return
				}
			case part.ToolResponse != nil:
				id := tracker.resultID(part.ToolResponse)
				if err := stream.ToolResult(id, part.ToolResponse.Output); err != nil {
					return
				}
			}
		}
	}
}

// erase handles DELETE /api/chat?id=: ownership-checked deletion.
func (h *chatHandler) erase(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeText(w, http.StatusNotFound, msgNotFound)
		return
	}

	userID, ok := userIDFromContext(r.Context())
	if !ok || userID == "" {
		writeText(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	chatRecord, err := h.store.Chat(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeText(w, http.StatusNotFound, msgNotFound)
			return
		}
		h.logger.Error("loading chat for deletion", "error", err, "chat_id", id)
		writeText(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	if chatRecord.UserID != userID {
		h.logger.Warn("chat deletion ownership check failed",
			"chat_id", id,
			"owner", chatRecord.UserID,
			"caller", userID,
		)
		writeText(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("deleting chat", "error", err, "chat_id", id)
		writeText(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeText(w, http.StatusOK, msgChatDeleted)
}

// toolFrameTracker assigns stable call IDs to tool requests and pairs
// results with them. Providers that set ToolRequest.Ref keep their IDs;
// requests without a ref get synthesized ones, paired to results by tool
// name in FIFO order. A request streamed through the callback and seen
// again in the completed turn keeps its first id and is not re-announced.
type toolFrameTracker struct {
	counter   int
	announced map[string][]string // request key -> ids already sent as call frames
	pending   map[string][]string // tool name -> call ids awaiting a result
	seenRefs  map[string]bool     // provider refs already sent
}

func newToolFrameTracker() *toolFrameTracker {
	return &toolFrameTracker{
		announced: make(map[string][]string),
		pending:   make(map[string][]string),
		seenRefs:  make(map[string]bool),
	}
}

// requestKey identifies one invocation by tool name and arguments, so a
// ref-less request can be recognized when it shows up a second time.
func requestKey(name string, input any) string {
	data, err := json.Marshal(input)
	if err != nil {
		return name + ":" + fmt.Sprintf("%v", input)
	}
	return name + ":" + string(data)
}

// callID returns the frame id for a tool request seen during streaming,
// or empty string when the request was already announced.
func (t *toolFrameTracker) callID(req *ai.ToolRequest) string {
	id := req.Ref
	if id != "" {
		if t.seenRefs[id] {
			return ""
		}
		t.seenRefs[id] = true
	} else {
		t.counter++
		id = fmt.Sprintf("call_%d", t.counter)
	}

	key := requestKey(req.Name, req.Input)
	t.announced[key] = append(t.announced[key], id)
	t.pending[req.Name] = append(t.pending[req.Name], id)
	return id
}

// replayID returns the frame id for a tool request seen in the completed
// turn, or empty string when the same invocation already went out during
// streaming.
func (t *toolFrameTracker) replayID(req *ai.ToolRequest) string {
	key := requestKey(req.Name, req.Input)
	if q := t.announced[key]; len(q) > 0 {
		t.announced[key] = q[1:]
		return ""
	}

	id := req.Ref
	if id != "" {
		if t.seenRefs[id] {
			return ""
		}
		t.seenRefs[id] = true
	} else {
		t.counter++
		id = fmt.Sprintf("call_%d", t.counter)
	}

	t.pending[req.Name] = append(t.pending[req.Name], id)
	return id
}

// resultID returns the frame id for a tool response.
func (t *toolFrameTracker) resultID(resp *ai.ToolResponse) string {
	if resp.Ref != "" {
		if q := t.pending[resp.Name]; len(q) > 0 && q[0] == resp.Ref {
			t.pending[resp.Name] = q[1:]
		}
		return resp.Ref
	}

	if q := t.pending[resp.Name]; len(q) > 0 {
		id := q[0]
		t.pending[resp.Name] = q[1:]
		return id
	}

	t.counter++
	return fmt.Sprintf("call_%d", t.counter)
}

// finishReason maps the model's finish reason to the wire vocabulary.
func finishReason(resp *ai.ModelResponse) string {
	if resp == nil || resp.FinishReason == "" {
		return "stop"
	}
	switch resp.FinishReason {
	case ai.FinishReasonStop:
		return "stop"
	case ai.FinishReasonLength:
		return "length"
	default:
		return "other"
	}
}

// usageOf extracts token usage, defaulting to zeros.
func usageOf(resp *ai.ModelResponse) streamUsage {
	if resp == nil || resp.Usage == nil {
		return streamUsage{}
	}
	return streamUsage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}
}

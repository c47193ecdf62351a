package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/ariephoon/aiva/internal/testutil"
)

func TestDataStreamWriter_HeadersAndFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	ds := newDataStreamWriter(rec)

	if ds.Started() {
		t.Error("stream marked started before any frame")
	}

	if err := ds.TextDelta("Halo"); err != nil {
		t.Fatalf("TextDelta: %v", err)
	}
	if err := ds.ToolCall("call_1", "getWeather", map[string]any{"latitude": 1.0}); err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	if err := ds.ToolResult("call_1", "ok"); err != nil {
		t.Fatalf("ToolResult: %v", err)
	}
	if err := ds.StepFinish("stop", streamUsage{PromptTokens: 10, CompletionTokens: 4}, false); err != nil {
		t.Fatalf("StepFinish: %v", err)
	}
	if err := ds.Finish("stop", streamUsage{PromptTokens: 10, CompletionTokens: 4}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if !ds.Started() {
		t.Error("stream not marked started")
	}
	if got := rec.Header().Get(dataStreamHeaderName); got != dataStreamHeaderValue {
		t.Errorf("stream header = %q", got)
	}

	frames, err := testutil.ParseDataStream(rec.Body.String())
	if err != nil {
		t.Fatalf("parsing own output: %v", err)
	}
	want := []string{"0", "9", "a", "e", "d"}
	if len(frames) != len(want) {
		t.Fatalf("frames = %d, want %d", len(frames), len(want))
	}
	for i, typ := range want {
		if frames[i].Type != typ {
			t.Errorf("frame %d type = %q, want %q", i, frames[i].Type, typ)
		}
	}

	var fin testutil.FinishFrame
	if err := json.Unmarshal(frames[4].Raw, &fin); err != nil {
		t.Fatalf("decoding finish frame: %v", err)
	}
	if fin.FinishReason != "stop" || fin.Usage.PromptTokens != 10 || fin.Usage.CompletionTokens != 4 {
		t.Errorf("finish frame = %+v", fin)
	}
}

func TestDataStreamWriter_ErrorFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	ds := newDataStreamWriter(rec)

	if err := ds.Error("boom"); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if got := rec.Body.String(); got != "3:\"boom\"\n" {
		t.Errorf("body = %q", got)
	}
}

func TestToolFrameTracker_RefDeduplication(t *testing.T) {
	tr := newToolFrameTracker()
	req := &ai.ToolRequest{Name: "getWeather", Ref: "call_abc"}

	if id := tr.callID(req); id != "call_abc" {
		t.Errorf("first id = %q", id)
	}
	if id := tr.callID(req); id != "" {
		t.Errorf("duplicate announced with id %q", id)
	}
}

func TestToolFrameTracker_SynthesizedIDsPairByName(t *testing.T) {
	tr := newToolFrameTracker()

	id1 := tr.callID(&ai.ToolRequest{Name: "getWeather"})
	id2 := tr.callID(&ai.ToolRequest{Name: "getWeather"})
	if id1 == "" || id1 == id2 {
		t.Fatalf("synthesized ids: %q, %q", id1, id2)
	}

	if got := tr.resultID(&ai.ToolResponse{Name: "getWeather"}); got != id1 {
		t.Errorf("first result id = %q, want %q", got, id1)
	}
	if got := tr.resultID(&ai.ToolResponse{Name: "getWeather"}); got != id2 {
		t.Errorf("second result id = %q, want %q", got, id2)
	}
}

func TestToolFrameTracker_RefResultPairsWithRef(t *testing.T) {
	tr := newToolFrameTracker()

	tr.callID(&ai.ToolRequest{Name: "getWeather", Ref: "call_x"})
	if got := tr.resultID(&ai.ToolResponse{Name: "getWeather", Ref: "call_x"}); got != "call_x" {
		t.Errorf("result id = %q, want call_x", got)
	}
}

func TestToolFrameTracker_ReplaySkipsAnnouncedReflessRequest(t *testing.T) {
	tr := newToolFrameTracker()
	args := map[string]any{"latitude": -6.2}

	streamed := tr.callID(&ai.ToolRequest{Name: "getWeather", Input: args})
	if streamed != "call_1" {
		t.Fatalf("streamed id = %q", streamed)
	}

	// The same invocation reappears in the completed turn; it must not
	// get a second id.
	if got := tr.replayID(&ai.ToolRequest{Name: "getWeather", Input: args}); got != "" {
		t.Errorf("replay re-announced the call with id %q", got)
	}

	// The result pairs with the id that actually went out.
	if got := tr.resultID(&ai.ToolResponse{Name: "getWeather"}); got != streamed {
		t.Errorf("result id = %q, want %q", got, streamed)
	}
}

func TestToolFrameTracker_ReplaySkipsAnnouncedRef(t *testing.T) {
	tr := newToolFrameTracker()
	req := &ai.ToolRequest{Name: "getWeather", Ref: "call_abc", Input: map[string]any{"latitude": 1.0}}

	tr.callID(req)
	if got := tr.replayID(req); got != "" {
		t.Errorf("replay re-announced ref %q", got)
	}
}

func TestToolFrameTracker_ReplayAnnouncesUnstreamedRequest(t *testing.T) {
	tr := newToolFrameTracker()

	// Nothing was streamed; the post-stream walk announces the call.
	id := tr.replayID(&ai.ToolRequest{Name: "getCreator"})
	if id == "" {
		t.Fatal("unstreamed request was not announced")
	}
	if got := tr.resultID(&ai.ToolResponse{Name: "getCreator"}); got != id {
		t.Errorf("result id = %q, want %q", got, id)
	}
}

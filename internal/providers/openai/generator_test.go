package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// chatServer fakes the chat completion endpoint, answering every request
// with a fixed message and remembering what it was asked.
type chatServer struct {
	mu       sync.Mutex
	answer   string
	status   int
	requests []chatRequest
}

func (s *chatServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.requests = append(s.requests, req)
		answer, status := s.answer, s.status
		s.mu.Unlock()

		if status >= 400 {
			http.Error(w, `{"error":{"message":"boom"}}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
		})
	}
}

func (s *chatServer) last(t *testing.T) chatRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatalf("no request reached the server")
	}
	return s.requests[len(s.requests)-1]
}

func newGeneratorFor(server *httptest.Server) *Generator {
	return NewGenerator(Config{APIKey: "oa-test", BaseURL: server.URL, Model: "gpt-4o-mini"})
}

func amy() ports.ContactContext {
	return ports.ContactContext{ContactID: "amy", Name: "Amy", Persona: "You are cheerful."}
}

func TestReplyMapsHistoryRoles(t *testing.T) {
	t.Parallel()

	fake := &chatServer{answer: "  Sounds great!  "}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	history := []domain.CallMessage{
		{Speaker: domain.SpeakerSelf, Text: "hi"},
		{Speaker: domain.SpeakerCounterpart, Text: "hello"},
	}
	got, err := newGeneratorFor(server).Reply(context.Background(), amy(), history, "free tonight?")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got != "Sounds great!" {
		t.Fatalf("got %q", got)
	}

	req := fake.last(t)
	if len(req.Messages) != 4 {
		t.Fatalf("expected system + 2 history + input, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "Amy") {
		t.Fatalf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[2].Role != "assistant" {
		t.Fatalf("history roles wrong: %+v", req.Messages[1:3])
	}
	if req.Messages[3].Content != "free tonight?" {
		t.Fatalf("unexpected input message: %+v", req.Messages[3])
	}
}

func TestReplyEmptyInputAsksForGreeting(t *testing.T) {
	t.Parallel()

	fake := &chatServer{answer: "Hey, good to hear from you!"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	if _, err := newGeneratorFor(server).Reply(context.Background(), amy(), nil, ""); err != nil {
		t.Fatalf("reply: %v", err)
	}

	req := fake.last(t)
	last := req.Messages[len(req.Messages)-1]
	if !strings.Contains(last.Content, "Greet") {
		t.Fatalf("empty input must request a greeting, got %+v", last)
	}
}

func TestDecideAccept(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		answer string
		status int
		want   bool
	}{
		{name: "accepts", answer: "ACCEPT", want: true},
		{name: "rejects", answer: "REJECT", want: false},
		{name: "lowercase reject", answer: "reject.", want: false},
		{name: "free-form answer fails open", answer: "Sure, why not", want: true},
		{name: "api error fails open", status: http.StatusInternalServerError, want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &chatServer{answer: tc.answer, status: tc.status}
			server := httptest.NewServer(fake.handler())
			defer server.Close()

			if got := newGeneratorFor(server).DecideAccept(context.Background(), amy()); got != tc.want {
				t.Fatalf("DecideAccept = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFarewellCarriesHistory(t *testing.T) {
	t.Parallel()

	fake := &chatServer{answer: "Goodbye!"}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	history := []domain.CallMessage{{Speaker: domain.SpeakerSelf, Text: "I have to run"}}
	got, err := newGeneratorFor(server).Farewell(context.Background(), amy(), history)
	if err != nil {
		t.Fatalf("farewell: %v", err)
	}
	if got != "Goodbye!" {
		t.Fatalf("got %q", got)
	}

	req := fake.last(t)
	if len(req.Messages) != 3 {
		t.Fatalf("expected system + history + instruction, got %d", len(req.Messages))
	}
	if req.Messages[1].Content != "I have to run" {
		t.Fatalf("history not carried: %+v", req.Messages[1])
	}
}

func TestReplySurfacesAPIError(t *testing.T) {
	t.Parallel()

	fake := &chatServer{status: http.StatusInternalServerError}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	if _, err := newGeneratorFor(server).Reply(context.Background(), amy(), nil, "hello"); err == nil {
		t.Fatalf("expected error on status 500")
	}
}

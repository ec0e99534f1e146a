package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func finishedMatch(t *testing.T) *match.Match {
	t.Helper()
	m, err := match.New(match.Config{
		Format: game.Format1v1,
		Entrants: []match.Entrant{
			{UserID: "a", Name: "alice"},
			{UserID: "b", Name: "bob"},
		},
		Roster: roster.MustDefault(),
		Rand:   rand.New(rand.NewPCG(7, 7)),
	})
	require.NoError(t, err)
	_, err = m.Forfeit("b")
	require.NoError(t, err)
	require.True(t, m.Over())
	return m
}

func TestSummarize(t *testing.T) {
	m := finishedMatch(t)
	s := Summarize(m)

	require.Len(t, s.Winners, 1)
	assert.Equal(t, "alice", s.Winners[0].Name)
	assert.Equal(t, m.Participants[0].Wrestler, s.Winners[0].Wrestler)
	require.Len(t, s.Losers, 1)
	assert.Equal(t, match.ReasonForfeit, s.Reason)
	assert.Equal(t, []string{m.Participants[1].Wrestler + " walked out of the match"}, s.Highlights)

	prompt := s.Prompt()
	assert.Contains(t, prompt, "Singles Match")
	assert.Contains(t, prompt, s.Winners[0].Wrestler)
}

func TestTemplateRecap(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{
			name: "pinfall",
			summary: Summary{
				Format:       game.Format1v1,
				Winners:      []Competitor{{Name: "a", Wrestler: "The Rock"}},
				Reason:       match.ReasonPinfall,
				Turns:        4,
				DecidingMove: "Rock Bottom",
			},
			want: "WHAT A MATCH! The Rock wins it with a devastating Rock Bottom in the Singles Match after 4 turns!",
		},
		{
			name: "team timeout",
			summary: Summary{
				Format:  game.Format2v2,
				Winners: []Competitor{{Wrestler: "Edge"}, {Wrestler: "Christian"}},
				Reason:  match.ReasonTimeout,
				Turns:   5,
			},
			want: "BAH GAWD! Edge and Christian win it after the opposition was counted out in the Tag Team Match after 5 turns!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Template{}.Recap(context.Background(), tt.summary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestAIClient(url string) *AIClient {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = url
	c := newAIClient(cfg, ProviderGrok, DefaultGrokModel, discardLogger())
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  DefaultGrokModel,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "server_error"},
	})
}

func TestAIClientRecap(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, CommentatorPersona, req.Messages[0].Content)

		writeCompletion(w, "  What a finish!  ")
	}))
	defer srv.Close()

	got, err := newTestAIClient(srv.URL).Recap(context.Background(), Summary{Format: game.Format1v1})
	require.NoError(t, err)
	assert.Equal(t, "What a finish!", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAIClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeError(w, http.StatusServiceUnavailable, "overloaded")
			return
		}
		writeCompletion(w, "Second time lucky")
	}))
	defer srv.Close()

	got, err := newTestAIClient(srv.URL).Recap(context.Background(), Summary{})
	require.NoError(t, err)
	assert.Equal(t, "Second time lucky", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAIClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusUnauthorized, "bad key")
	}))
	defer srv.Close()

	_, err := newTestAIClient(srv.URL).Recap(context.Background(), Summary{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, ProviderGrok, apiErr.Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFallbackUsesTemplateOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "nope")
	}))
	defer srv.Close()

	f := Fallback{Primary: newTestAIClient(srv.URL), Secondary: Template{}, Logger: discardLogger()}
	s := Summary{Format: game.Format1v1, Winners: []Competitor{{Wrestler: "Kane"}}}
	got, err := f.Recap(context.Background(), s)
	require.NoError(t, err)

	want, _ := Template{}.Recap(context.Background(), s)
	assert.Equal(t, want, got)
}

func TestNewSelectsCommentator(t *testing.T) {
	logger := discardLogger()

	assert.IsType(t, Template{}, New("", "", "", logger))
	assert.IsType(t, Template{}, New(ProviderGrok, "", "", logger))
	assert.IsType(t, Fallback{}, New(ProviderGrok, "", "xai", logger))
	assert.IsType(t, Fallback{}, New(ProviderOpenAI, "sk", "", logger))

	_, err := NewAIClient("bogus", "k", "k", logger)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

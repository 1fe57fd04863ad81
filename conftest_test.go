package bagel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bageldb/bagel-go/internal/fakebagel"
)

// newTestClient starts a fake BagelDB server and returns a client bound to it.
func newTestClient(t *testing.T, fakeOpts fakebagel.Options, opts ...Option) (*Client, *fakebagel.Server) {
	t.Helper()
	srv, ts := fakebagel.Start(fakeOpts)
	t.Cleanup(ts.Close)

	c, err := New(append([]Option{WithBaseURL(ts.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

// lastBody decodes the body of the last request whose path ends with suffix.
func lastBody(t *testing.T, srv *fakebagel.Server, suffix string) map[string]any {
	t.Helper()
	req, ok := srv.LastRequest(suffix)
	if !ok {
		t.Fatalf("no request to %s", suffix)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode %s body: %v", suffix, err)
	}
	return body
}

// lengthEmbedder maps each text to [len(text), 1].
type lengthEmbedder struct {
	calls [][]string
	err   error
}

func (e *lengthEmbedder) Embed(_ context.Context, texts []string) (EmbeddingResult, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return EmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

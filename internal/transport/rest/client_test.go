package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mut func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL}
	if mut != nil {
		mut(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_BaseURL(t *testing.T) {
	tests := []struct {
		in       string
		wantAPI  string
		wantRoot string
	}{
		{"https://api.bageldb.ai", "https://api.bageldb.ai/api/v1", "https://api.bageldb.ai"},
		{"https://api.bageldb.ai/api/v1", "https://api.bageldb.ai/api/v1", "https://api.bageldb.ai"},
		{"http://localhost:8088/", "http://localhost:8088/api/v1", "http://localhost:8088"},
	}
	for _, tt := range tests {
		c, err := New(Config{BaseURL: tt.in})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.in, err)
		}
		if c.APIURL() != tt.wantAPI {
			t.Errorf("APIURL(%q) = %q, want %q", tt.in, c.APIURL(), tt.wantAPI)
		}
		if c.RootURL() != tt.wantRoot {
			t.Errorf("RootURL(%q) = %q, want %q", tt.in, c.RootURL(), tt.wantRoot)
		}
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, in := range []string{"", "ftp://x", "localhost:8088", "http://"} {
		if _, err := New(Config{BaseURL: in}); err == nil {
			t.Errorf("New(%q): expected error", in)
		}
	}
}

func TestDo_SendsJSONAndHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/clusters" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "key-1" {
			t.Errorf("X-API-Key = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"docs"}` {
			t.Errorf("body = %s", body)
		}
		_, _ = w.Write([]byte(`{"id":"c1","name":"docs"}`))
	}, func(cfg *Config) {
		cfg.APIKey = "key-1"
		cfg.BearerToken = "tok"
	})

	var out domain.Cluster
	err := c.Do(context.Background(), "create_cluster", http.MethodPost, "/clusters",
		map[string]string{"name": "docs"}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.ID != "c1" || out.Name != "docs" {
		t.Errorf("decoded = %+v", out)
	}
}

func TestDo_NoAuthHeadersByDefault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "" || r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected auth headers: %v", r.Header)
		}
		if r.Header.Get("Content-Type") != "" {
			t.Errorf("GET without body should not set Content-Type")
		}
		_, _ = w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	}, nil)

	if err := c.Do(context.Background(), "ping", http.MethodGet, "", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDo_ErrorDecoding(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
		msg    string
	}{
		{"duplicate id", http.StatusBadRequest, `{"error":"DuplicateID","message":"ID a already exists"}`, domain.ErrDuplicateID, "ID a already exists"},
		{"not found", http.StatusNotFound, `{"detail":"cluster missing"}`, domain.ErrNotFound, "cluster missing"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"AuthError","message":"bad key"}`, domain.ErrUnauthorized, "bad key"},
		{"forbidden plain text", http.StatusForbidden, "nope", domain.ErrUnauthorized, "nope"},
		{"server", http.StatusInternalServerError, ``, domain.ErrServer, "Internal Server Error"},
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, domain.ErrInvalidArgument, "field required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			err := c.Do(context.Background(), "op", http.MethodGet, "/x", nil, nil)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}

func TestDo_DuplicateIDIsTyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"DuplicateID","message":"dup"}`))
	}, nil)

	err := c.Do(context.Background(), "add", http.MethodPost, "/clusters/c/add", map[string]any{}, nil)
	var dupErr *domain.DuplicateIDError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *DuplicateIDError, got %T: %v", err, err)
	}
	if dupErr.Message != "dup" {
		t.Errorf("message = %q", dupErr.Message)
	}
}

func TestDo_EmptyBodyWithOutput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	var out map[string]any
	err := c.Do(context.Background(), "count", http.MethodGet, "/x", nil, &out)
	if !errors.Is(err, domain.ErrServer) {
		t.Errorf("expected ErrServer, got %v", err)
	}
}

func TestDo_RecordsMetrics(t *testing.T) {
	m, err := metrics.NewREST(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewREST: %v", err)
	}
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, func(cfg *Config) { cfg.Metrics = m })

	_ = c.Do(context.Background(), "get_cluster", http.MethodGet, "/clusters/x", nil, nil)
	if v := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("get_cluster", "GET", "404")); v != 1 {
		t.Errorf("requests_total = %f, want 1", v)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Do(ctx, "ping", http.MethodGet, "", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoRaw_ContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "multipart/form-data; boundary=xyz" {
			t.Errorf("Content-Type = %q", got)
		}
		_, _ = w.Write([]byte(`true`))
	}, nil)

	var ok bool
	err := c.DoRaw(context.Background(), "add_image", http.MethodPost, "/clusters/c/add_image",
		strings.NewReader("--xyz--"), "multipart/form-data; boundary=xyz", &ok)
	if err != nil {
		t.Fatalf("DoRaw: %v", err)
	}
	if !ok {
		t.Error("expected true")
	}
}

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bageldb/bagel-go/internal/fakebagel"
)

// execute runs the CLI against url and returns stdout.
func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env", "test", "--base-url", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, url string, args ...string) string {
	t.Helper()
	out, err := execute(t, url, args...)
	if err != nil {
		t.Fatalf("bagel %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func startFake(t *testing.T, opts fakebagel.Options) string {
	t.Helper()
	_, ts := fakebagel.Start(opts)
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestCLI_CollectionLifecycle(t *testing.T) {
	url := startFake(t, fakebagel.Options{})

	out := mustExecute(t, url, "collections", "create", "docs", "--metadata", `{"team":"search"}`)
	var created collectionView
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode create output %q: %v", out, err)
	}
	if created.Name != "docs" || created.ID == "" {
		t.Errorf("created = %+v", created)
	}

	if _, err := execute(t, url, "collections", "create", "docs"); err == nil {
		t.Error("expected error creating an existing collection")
	}
	mustExecute(t, url, "collections", "create", "docs", "--get-or-create")

	out = mustExecute(t, url, "collections", "list")
	var list []collectionView
	_ = json.Unmarshal([]byte(out), &list)
	if len(list) != 1 {
		t.Errorf("list = %s", out)
	}

	mustExecute(t, url, "collections", "modify", "docs", "--name", "articles")
	mustExecute(t, url, "collections", "get", "articles")
	mustExecute(t, url, "collections", "delete", "articles")
	if _, err := execute(t, url, "collections", "get", "articles"); err == nil {
		t.Error("expected error for deleted collection")
	}
}

func TestCLI_RecordsRoundTrip(t *testing.T) {
	url := startFake(t, fakebagel.Options{})
	mustExecute(t, url, "collections", "create", "docs")

	mustExecute(t, url, "add", "docs",
		"--ids", `["a","b"]`,
		"--embeddings", `[[0,0],[3,4]]`,
		"--metadatas", `[{"year":2020},{"year":2024}]`,
		"--documents", `["first","second"]`,
	)
	if out := mustExecute(t, url, "count", "docs"); strings.TrimSpace(out) != "2" {
		t.Errorf("count = %q", out)
	}

	out := mustExecute(t, url, "query", "docs", "--embedding", `[3,3]`, "-n", "1")
	if !strings.Contains(out, `"b"`) || strings.Contains(out, `"a"`) {
		t.Errorf("query output = %s", out)
	}

	out = mustExecute(t, url, "get", "docs", "--where", `{"year":{"$lt":2022}}`)
	if !strings.Contains(out, "first") || strings.Contains(out, "second") {
		t.Errorf("get output = %s", out)
	}

	mustExecute(t, url, "update", "docs", "--ids", `"a"`, "--metadatas", `{"year":2030}`)
	mustExecute(t, url, "upsert", "docs", "--ids", `"c"`, "--embeddings", `[1,1]`)

	if _, err := execute(t, url, "remove", "docs"); err == nil {
		t.Error("remove without selection must fail")
	}
	out = mustExecute(t, url, "remove", "docs", "--where", `{"year":2030}`)
	if !strings.Contains(out, `"a"`) {
		t.Errorf("remove output = %s", out)
	}
	if out := mustExecute(t, url, "count", "docs"); strings.TrimSpace(out) != "2" {
		t.Errorf("count after remove = %q", out)
	}
}

func TestCLI_AddGeneratesIDs(t *testing.T) {
	url := startFake(t, fakebagel.Options{})
	mustExecute(t, url, "collections", "create", "docs")

	out := mustExecute(t, url, "add", "docs", "--embeddings", `[[1],[2],[3]]`)
	var ids []string
	if err := json.Unmarshal([]byte(out), &ids); err != nil {
		t.Fatalf("decode ids %q: %v", out, err)
	}
	if len(ids) != 3 || ids[0] == ids[1] {
		t.Errorf("ids = %v", ids)
	}
}

func TestCLI_InvalidInput(t *testing.T) {
	url := startFake(t, fakebagel.Options{})
	mustExecute(t, url, "collections", "create", "docs")

	tests := [][]string{
		{"add", "docs", "--ids", `["a","a"]`, "--embeddings", `[[1],[2]]`},
		{"add", "docs", "--ids", `[1]`, "--embeddings", `[1]`},
		{"add", "docs", "--ids", `"a"`, "--embeddings", `[1]`, "--metadatas", `{"k":true}`},
		{"get", "docs", "--where", `{"$gt":1}`},
		{"get", "docs", "--where", `not json`},
		{"query", "docs"},
		{"query", "docs", "--embedding", `[1]`, "--text", "x"},
	}
	for _, args := range tests {
		if _, err := execute(t, url, args...); err == nil {
			t.Errorf("bagel %s: expected error", strings.Join(args, " "))
		}
	}
}

func TestCLI_PingVersionImage(t *testing.T) {
	url := startFake(t, fakebagel.Options{APIKeys: []string{"k"}})

	if out := mustExecute(t, url, "ping"); !strings.Contains(out, "nanosecond heartbeat") {
		t.Errorf("ping = %s", out)
	}
	if _, err := execute(t, url, "version"); err == nil {
		t.Error("version without api key must fail")
	}
	if out := mustExecute(t, url, "--api-key", "k", "version"); !strings.Contains(out, fakebagel.Version) {
		t.Errorf("version = %s", out)
	}

	mustExecute(t, url, "--api-key", "k", "collections", "create", "pics")
	img := filepath.Join(t.TempDir(), "dog.jpg")
	if err := os.WriteFile(img, []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	if out := mustExecute(t, url, "--api-key", "k", "add-image", "pics", img); !strings.Contains(out, `"id"`) {
		t.Errorf("add-image = %s", out)
	}
}

func TestCLI_ConfigFile(t *testing.T) {
	url := startFake(t, fakebagel.Options{APIKeys: []string{"from-file"}})
	path := filepath.Join(t.TempDir(), "bagel.yaml")
	t.Setenv("TEST_BAGEL_KEY", "from-file")
	cfg := "server:\n  base_url: " + url + "\n  api_key: ${TEST_BAGEL_KEY}\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env", "test", "--config", path, "collections", "list"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("collections list: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCLI_EmbedRequiresProvider(t *testing.T) {
	url := startFake(t, fakebagel.Options{})
	if _, err := execute(t, url, "embed", "hello"); err == nil {
		t.Error("embed without a provider must fail")
	}
}

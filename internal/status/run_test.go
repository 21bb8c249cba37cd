package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunReportsRemoteState(t *testing.T) {
	mutated := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getMonitors" {
			mutated = true
			fmt.Fprint(w, `{"stat":"fail","message":"unexpected action"}`)
			return
		}
		q := r.URL.Query()
		switch {
		case q.Get("monitors") == "12345":
			fmt.Fprint(w, `{"stat":"ok","monitors":{"monitor":[{"id":"12345","friendlyname":"svc","url":"https://svc.example.com","status":"0"}]}}`)
		case q.Get("search") == "google":
			fmt.Fprint(w, `{"stat":"ok","monitors":{"monitor":[{"id":"555","friendlyname":"google","url":"https://www.google.com","status":"2"}]}}`)
		default:
			fmt.Fprint(w, `{"stat":"ok","monitors":{"monitor":[]}}`)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(fmt.Sprintf("api:\n  key: u12345\n  url: %s\n", server.URL)), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	manifestPath := filepath.Join(dir, "monitors.yaml")
	if err := os.WriteFile(manifestPath, []byte(`
monitors:
  - name: google
    state: present
  - id: "12345"
    state: paused
  - url: https://gone.example.com
    state: absent
`), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	var out strings.Builder
	err := Run(context.Background(),
		[]string{"-config", configPath, "-f", manifestPath},
		Dependencies{HTTPClient: server.Client(), Stdout: &out},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mutated {
		t.Fatalf("status must only call getMonitors")
	}

	got := out.String()
	if !strings.Contains(got, `monitor "google": id=555 status=up`) {
		t.Fatalf("missing google line:\n%s", got)
	}
	if !strings.Contains(got, `monitor "12345": id=12345 status=paused`) {
		t.Fatalf("missing svc line:\n%s", got)
	}
	if !strings.Contains(got, `monitor "https://gone.example.com": absent`) {
		t.Fatalf("missing absent line:\n%s", got)
	}
}

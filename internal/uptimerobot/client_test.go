package uptimerobot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/uptimectlhq/uptimectl/internal/metrics"
	"github.com/uptimectlhq/uptimectl/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server, *metrics.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := metrics.NewStore()
	client, err := NewClient(
		Config{APIKey: "u12345-1234512345", BaseURL: server.URL},
		Dependencies{HTTPClient: server.Client(), Metrics: store},
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server, store
}

func TestListMonitorsBySearch(t *testing.T) {
	var gotQuery url.Values

	client, _, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getMonitors" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"stat":"ok","monitors":{"monitor":[
			{"id":777712827,"friendlyname":"Google","url":"https://www.google.com","status":"2"},
			{"id":"777712828","friendlyname":"Google DNS","url":"https://dns.google","status":0}
		]}}`))
	})

	records, err := client.ListMonitors(context.Background(), Filter{Search: "google"})
	if err != nil {
		t.Fatalf("ListMonitors: %v", err)
	}

	if gotQuery.Get("search") != "google" {
		t.Fatalf("expected search param, got %v", gotQuery)
	}
	if gotQuery.Get("apiKey") != "u12345-1234512345" {
		t.Fatalf("missing apiKey param: %v", gotQuery)
	}
	if gotQuery.Get("format") != "json" || gotQuery.Get("noJsonCallback") != "1" {
		t.Fatalf("missing encoding directives: %v", gotQuery)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// v1 mixes numeric and string encodings; both must normalize.
	if records[0].ID != "777712827" || records[0].Status != types.StatusUp {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].ID != "777712828" || records[1].Status != types.StatusPaused {
		t.Fatalf("unexpected second record: %+v", records[1])
	}

	snap := store.Snapshot()
	if snap.CallsTotal != 1 || snap.MutationsTotal != 0 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestListMonitorsByID(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("monitors"); got != "12345" {
			t.Fatalf("expected monitors=12345, got %q", got)
		}
		w.Write([]byte(`{"stat":"ok","monitors":{"monitor":[{"id":"12345","friendlyname":"svc","url":"https://svc.example.com","status":"2"}]}}`))
	})

	records, err := client.ListMonitors(context.Background(), Filter{ID: "12345"})
	if err != nil {
		t.Fatalf("ListMonitors: %v", err)
	}
	if len(records) != 1 || records[0].FriendlyName != "svc" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestListMonitorsEmptyResult(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stat":"ok"}`))
	})

	records, err := client.ListMonitors(context.Background(), Filter{Search: "nothing"})
	if err != nil {
		t.Fatalf("ListMonitors: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %+v", records)
	}
}

func TestLogicalFailureSurfacesAPIError(t *testing.T) {
	client, _, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stat":"fail","message":"api_key not found."}`))
	})

	_, err := client.ListMonitors(context.Background(), Filter{Search: "google"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "api_key not found." {
		t.Fatalf("unexpected diagnostic: %q", apiErr.Message)
	}
	if store.Snapshot().FailuresTotal != 1 {
		t.Fatalf("expected failure counted")
	}
}

func TestTransportFailureSurfacesTransportError(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.DeleteMonitor(context.Background(), "12345")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status code: %d", transportErr.StatusCode)
	}
}

func TestCreateMonitor(t *testing.T) {
	var gotQuery url.Values

	client, _, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/newMonitor" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"stat":"ok","monitor":{"id":128798}}`))
	})

	id, err := client.CreateMonitor(context.Background(), "google", "https://www.google.com", []string{"98765"})
	if err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
	if id != "128798" {
		t.Fatalf("unexpected id %q", id)
	}

	if gotQuery.Get("monitorFriendlyName") != "google" {
		t.Fatalf("missing friendly name: %v", gotQuery)
	}
	if gotQuery.Get("monitorURL") != "https://www.google.com" {
		t.Fatalf("missing url: %v", gotQuery)
	}
	if gotQuery.Get("monitorType") != "1" {
		t.Fatalf("missing monitor type: %v", gotQuery)
	}
	if gotQuery.Get("monitorAlertContacts") != "98765" {
		t.Fatalf("missing alert contacts: %v", gotQuery)
	}

	snap := store.Snapshot()
	if snap.MutationsTotal != 1 {
		t.Fatalf("expected mutation counted, got %+v", snap)
	}
}

func TestCreateMonitorOmitsEmptyAlertContacts(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["monitorAlertContacts"]; ok {
			t.Fatalf("alert contacts must be omitted when empty")
		}
		w.Write([]byte(`{"stat":"ok","monitor":{"id":"321"}}`))
	})

	if _, err := client.CreateMonitor(context.Background(), "svc", "https://svc.example.com", nil); err != nil {
		t.Fatalf("CreateMonitor: %v", err)
	}
}

func TestEditMonitorSendsStatusCode(t *testing.T) {
	var gotQuery url.Values

	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/editMonitor" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"stat":"ok","monitor":{"id":"12345"}}`))
	})

	if err := client.EditMonitor(context.Background(), "12345", EditPause); err != nil {
		t.Fatalf("EditMonitor: %v", err)
	}
	if gotQuery.Get("monitorID") != "12345" || gotQuery.Get("monitorStatus") != "0" {
		t.Fatalf("unexpected edit params: %v", gotQuery)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}, Dependencies{HTTPClient: http.DefaultClient}); err == nil {
		t.Fatalf("expected error without API key")
	}
	if _, err := NewClient(Config{APIKey: "key"}, Dependencies{}); err == nil {
		t.Fatalf("expected error without HTTP client")
	}
}

package labels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestJupiterSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":"Jupiter","prog2":"Raydium"}`))
	}))
	defer server.Close()

	src := NewJupiterSource(server.URL, time.Second)
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 || got["prog2"] != "Raydium" {
		t.Errorf("unexpected labels: %v", got)
	}
}

func TestJupiterSource_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewJupiterSource(server.URL, time.Second).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestJupiterSource_NotAnObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["a","b"]`))
	}))
	defer server.Close()

	if _, err := NewJupiterSource(server.URL, time.Second).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}

type fakeSource struct {
	labels map[string]string
	err    error
}

func (f fakeSource) Fetch(context.Context) (map[string]string, error) {
	return f.labels, f.err
}

func TestLoad_MergesDynamic(t *testing.T) {
	got := Load(context.Background(), fakeSource{labels: map[string]string{"p1": "One"}}, nil)
	if got[OrcaWhirlpoolsProgramID] != OrcaWhirlpoolsLabel {
		t.Error("expected static Orca entry")
	}
	if got["p1"] != "One" {
		t.Error("expected dynamic entry")
	}
}

func TestLoad_FailureFallsBackToStatic(t *testing.T) {
	logger, hook := test.NewNullLogger()

	got := Load(context.Background(), fakeSource{err: errors.New("unreachable")}, logger)
	if len(got) != 1 || got[OrcaWhirlpoolsProgramID] == "" {
		t.Errorf("expected static-only map, got %v", got)
	}
	if len(hook.Entries) != 1 || hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("expected one warning, got %d entries", len(hook.Entries))
	}
}

func TestLoad_NilSource(t *testing.T) {
	got := Load(context.Background(), nil, nil)
	if len(got) != 1 {
		t.Errorf("expected static-only map, got %v", got)
	}
}

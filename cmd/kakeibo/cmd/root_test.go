package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/config"
	"kakeibo/internal/core"
)

// ledgerService is a minimal stand-in for the remote ledger service: a
// stateful parse endpoint plus the per-user record listing, both wrapped
// in the {status, data} envelope the client expects.
type ledgerService struct {
	mu      sync.Mutex
	records map[string][]core.Record
	nextID  int
}

func newLedgerService() *ledgerService {
	return &ledgerService{records: make(map[string][]core.Record)}
}

func (s *ledgerService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /parse-expense", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text   string `json:"text"`
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.nextID++
		rec := core.Record{
			ID:       fmt.Sprintf("r%d", s.nextID),
			Item:     req.Text,
			Amount:   decimal.NewFromInt(120),
			Currency: "TWD",
			Category: "Food",
			Date:     core.NewDate(2024, 3, 1),
		}
		s.records[req.UserID] = append(s.records[req.UserID], rec)
		s.mu.Unlock()
		writeEnvelope(w, rec)
	})
	mux.HandleFunc("GET /user-data/{user}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := make([]core.Record, len(s.records[r.PathValue("user")]))
		copy(out, s.records[r.PathValue("user")])
		s.mu.Unlock()
		writeEnvelope(w, out)
	})
	return mux
}

func writeEnvelope(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": json.RawMessage(raw)})
}

func testIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// The CLI must run every command through the coordinator: a record created
// by the mutator has to show up in the ledger views of the same invocation
// without an explicit refresh.
func TestOpenEnvRoutesMutationsIntoLedger(t *testing.T) {
	service := newLedgerService()
	srv := httptest.NewServer(service.handler())
	defer srv.Close()

	cfg = &config.Config{
		APIBaseURL:      srv.URL,
		HTTPTimeout:     5 * time.Second,
		DBPath:          filepath.Join(t.TempDir(), "kakeibo.db"),
		DefaultCurrency: "TWD",
		RecentLimit:     5,
		LogLevel:        "error",
	}

	ctx := context.Background()
	e, err := openEnv(ctx)
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	defer e.Close()

	token := testIDToken(t, map[string]any{"sub": "u1", "name": "Alice"})
	if _, err := e.app.Login(ctx, token); err != nil {
		t.Fatalf("login: %v", err)
	}

	record, err := e.app.Mutator().Create(ctx, "u1", "lunch at the noodle place 120")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("created record has no ID: %+v", record)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.app.Ledger().Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("mutation never reached the ledger, len = %d", e.app.Ledger().Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.app.Ledger().UserID(); got != "u1" {
		t.Fatalf("ledger holds %q", got)
	}
}

// A second invocation against the same database must come up logged in and
// with the ledger primed, without re-running login.
func TestOpenEnvRestoresSessionAcrossInvocations(t *testing.T) {
	service := newLedgerService()
	srv := httptest.NewServer(service.handler())
	defer srv.Close()

	cfg = &config.Config{
		APIBaseURL:      srv.URL,
		HTTPTimeout:     5 * time.Second,
		DBPath:          filepath.Join(t.TempDir(), "kakeibo.db"),
		DefaultCurrency: "TWD",
		RecentLimit:     5,
		LogLevel:        "error",
	}

	ctx := context.Background()
	first, err := openEnv(ctx)
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	token := testIDToken(t, map[string]any{"sub": "u1", "name": "Alice", "email": "a@example.com"})
	if _, err := first.app.Login(ctx, token); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := first.app.Mutator().Create(ctx, "u1", "coffee 50"); err != nil {
		t.Fatalf("create: %v", err)
	}
	first.Close()

	second, err := openEnv(ctx)
	if err != nil {
		t.Fatalf("openEnv again: %v", err)
	}
	defer second.Close()

	identity, err := second.currentUser()
	if err != nil {
		t.Fatalf("currentUser after restart: %v", err)
	}
	if identity.SubjectID != "u1" || identity.Email != "a@example.com" {
		t.Fatalf("restored identity = %+v", identity)
	}
	if second.app.Ledger().Len() != 1 {
		t.Fatalf("ledger not primed on restart, len = %d", second.app.Ledger().Len())
	}
}

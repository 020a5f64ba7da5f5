package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-ledger/internal/api/http/handlers"
	"github.com/spec-kit/ticket-ledger/internal/auth"
	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/integrity"
	"github.com/spec-kit/ticket-ledger/internal/observability"
	"github.com/spec-kit/ticket-ledger/internal/repository"
	"github.com/spec-kit/ticket-ledger/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, fiber.Config{Immutable: true})
}

func newTestServerWithConfig(t *testing.T, cfg fiber.Config) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	_ = store.Users().Upsert(context.Background(), &domain.User{ID: "u-1", Name: "Alice"})
	_ = store.Users().Upsert(context.Background(), &domain.User{ID: "agent-1", Name: "Ada"})

	hasher, err := integrity.NewHasher("blake3", "")
	if err != nil {
		t.Fatal(err)
	}
	metrics := observability.NewMetrics()
	svc := service.NewTicketService(service.TicketDependencies{
		ChangeSetRepo:    store.ChangeSets(),
		UserRepo:         store.Users(),
		OrganizationRepo: store.Organizations(),
		Hash:             hasher.Hash,
		Metrics:          metrics,
	})
	tokens := auth.NewTokenManager("test-secret", "ticket-ledger", 5)

	app := fiber.New(cfg)
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ticket-ledger", "test", nil, metrics),
		Tickets:        handlers.NewTicketsHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users()),
	})
	return &testServer{app: app, tokens: tokens}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, envelope, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, env, string(raw)
}

func (s *testServer) token(t *testing.T, subject string, role auth.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(subject, role)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

type ticketDoc struct {
	Type   string `json:"@type"`
	ID     string `json:"@id"`
	Author struct {
		ID string `json:"id"`
	} `json:"author"`
	Status struct {
		Status string `json:"status"`
	} `json:"status"`
	Affected struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	} `json:"affected"`
	ChangeSetCount int `json:"change_set_count"`
}

func decodeTicket(t *testing.T, env envelope) ticketDoc {
	t.Helper()
	var doc ticketDoc
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	return doc
}

func TestRoutes_TicketLifecycle(t *testing.T) {
	s := newTestServer(t)
	reporter := s.token(t, "u-1", auth.RoleReporter)

	status, env, _ := s.do(t, fiber.MethodPost, "/tickets", reporter, `{"title":{"en":"Broken window"},"priority":"high"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d (%s)", status, env.Error.Code)
	}
	created := decodeTicket(t, env)
	if created.Type != "Ticket" || created.Author.ID != "u-1" || created.Status.Status != "new" {
		t.Errorf("created = %+v", created)
	}

	status, env, _ = s.do(t, fiber.MethodPost, "/tickets/"+created.ID+"/change-sets", reporter, `{"status":"closed","comment":{"en":"fixed"}}`)
	if status != fiber.StatusCreated {
		t.Fatalf("append status = %d (%s)", status, env.Error.Code)
	}
	if got := decodeTicket(t, env); got.Status.Status != "closed" || got.ChangeSetCount != 2 {
		t.Errorf("after append = %+v", got)
	}

	status, env, _ = s.do(t, fiber.MethodGet, "/tickets/"+created.ID+"/status-history", "", "")
	var history []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &history); err != nil || status != fiber.StatusOK {
		t.Fatalf("status-history = %d, %v", status, err)
	}
	if len(history) != 2 || history[0].Status != "new" || history[1].Status != "closed" {
		t.Errorf("history = %+v", history)
	}

	status, env, _ = s.do(t, fiber.MethodGet, "/tickets/"+created.ID+"/hash", "", "")
	var hash struct {
		Hash string `json:"hash"`
	}
	_ = json.Unmarshal(env.Data, &hash)
	if status != fiber.StatusOK || !strings.HasPrefix(hash.Hash, "blake3:") {
		t.Errorf("hash = %d %q", status, hash.Hash)
	}

	status, env, _ = s.do(t, fiber.MethodGet, "/tickets", "", "")
	var list []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	_ = json.Unmarshal(env.Data, &list)
	if status != fiber.StatusOK || len(list) != 1 || list[0].Title != "Broken window" {
		t.Errorf("list = %d %+v", status, list)
	}

	status, _, body := s.do(t, fiber.MethodGet, "/tickets/report.csv", "", "")
	if status != fiber.StatusOK || !strings.HasPrefix(body, "id,title,status") || !strings.Contains(body, created.ID) {
		t.Errorf("report = %d %q", status, body)
	}
}

func TestRoutes_TicketReadsBackAfterOtherRequests(t *testing.T) {
	tests := []struct {
		name string
		cfg  fiber.Config
	}{
		{"immutable", fiber.Config{Immutable: true}},
		// Params alias the request buffer here; stored ids must still hold.
		{"zero copy", fiber.Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServerWithConfig(t, tt.cfg)
			reporter := s.token(t, "u-1", auth.RoleReporter)

			_, env, _ := s.do(t, fiber.MethodPost, "/tickets", reporter, `{"title":{"en":"Flooded basement"}}`)
			ticketID := decodeTicket(t, env).ID
			if status, env, _ := s.do(t, fiber.MethodPost, "/tickets/"+ticketID+"/change-sets", reporter, `{"status":"open"}`); status != fiber.StatusCreated {
				t.Fatalf("append status = %d (%s)", status, env.Error.Code)
			}

			s.do(t, fiber.MethodGet, "/tickets/report.csv", "", "")
			s.do(t, fiber.MethodGet, "/health/live", "", "")
			s.do(t, fiber.MethodGet, "/tickets/nope-nope-nope-nope-nope-nope-nope", "", "")

			status, env, _ := s.do(t, fiber.MethodGet, "/tickets/"+ticketID, "", "")
			if status != fiber.StatusOK {
				t.Fatalf("get status = %d (%s)", status, env.Error.Code)
			}
			if got := decodeTicket(t, env); got.ID != ticketID || got.ChangeSetCount != 2 || got.Status.Status != "open" {
				t.Errorf("read back = %+v", got)
			}

			status, env, _ = s.do(t, fiber.MethodGet, "/tickets", "", "")
			var list []struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(env.Data, &list)
			if status != fiber.StatusOK || len(list) != 1 || list[0].ID != ticketID {
				t.Errorf("list = %d %+v", status, list)
			}
		})
	}
}

func TestRoutes_Errors(t *testing.T) {
	s := newTestServer(t)
	reporter := s.token(t, "u-1", auth.RoleReporter)
	agent := s.token(t, "agent-1", auth.RoleAgent)

	_, env, _ := s.do(t, fiber.MethodPost, "/tickets", reporter, `{"title":{"en":"Leak"}}`)
	ticketID := decodeTicket(t, env).ID

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"create without token", fiber.MethodPost, "/tickets", "", `{"title":{"en":"x"}}`, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"create without title", fiber.MethodPost, "/tickets", reporter, `{"priority":"low"}`, fiber.StatusUnprocessableEntity, "MISSING_TITLE"},
		{"malformed priority", fiber.MethodPost, "/tickets", reporter, `{"title":{"en":"x"},"priority":"whenever"}`, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown ticket", fiber.MethodGet, "/tickets/nope", "", "", fiber.StatusNotFound, "NOT_FOUND"},
		{"append to unknown ticket", fiber.MethodPost, "/tickets/nope/change-sets", reporter, `{"comment":{"en":"x"}}`, fiber.StatusNotFound, "NOT_FOUND"},
		{"link as reporter", fiber.MethodPost, "/tickets/" + ticketID + "/affected", reporter, `{"users":[{"id":"u-1"}]}`, fiber.StatusForbidden, "FORBIDDEN"},
		{"link unknown user", fiber.MethodPost, "/tickets/" + ticketID + "/affected", agent, `{"users":[{"id":"ghost","name":"Forged"}]}`, fiber.StatusUnprocessableEntity, "INVALID_REFERENCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if status != tt.wantStatus || env.Error.Code != tt.wantCode {
				t.Errorf("got %d %s, want %d %s", status, env.Error.Code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestRoutes_LinkAndResolveAffected(t *testing.T) {
	s := newTestServer(t)
	reporter := s.token(t, "u-1", auth.RoleReporter)
	agent := s.token(t, "agent-1", auth.RoleAgent)

	_, env, _ := s.do(t, fiber.MethodPost, "/tickets", reporter, `{"title":{"en":"Power cut"}}`)
	ticketID := decodeTicket(t, env).ID

	status, env, _ := s.do(t, fiber.MethodPost, "/tickets/"+ticketID+"/affected", agent, `{"users":[{"id":"u-1"}]}`)
	if status != fiber.StatusOK {
		t.Fatalf("link status = %d (%s)", status, env.Error.Code)
	}
	if users := decodeTicket(t, env).Affected.Users; len(users) != 1 || users[0].ID != "u-1" {
		t.Errorf("affected users = %+v", users)
	}

	status, env, _ = s.do(t, fiber.MethodGet, "/tickets/"+ticketID+"/affected", "", "")
	var resolved struct {
		Affected struct {
			Users []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"users"`
		} `json:"affected"`
	}
	if err := json.Unmarshal(env.Data, &resolved); err != nil || status != fiber.StatusOK {
		t.Fatalf("affected = %d, %v", status, err)
	}
	if len(resolved.Affected.Users) != 1 || resolved.Affected.Users[0].Name != "Alice" {
		t.Errorf("resolved users = %+v", resolved.Affected.Users)
	}
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)
	if status, _, body := s.do(t, fiber.MethodGet, "/health/live", "", ""); status != fiber.StatusOK || !strings.Contains(body, `"alive"`) {
		t.Errorf("live = %d %s", status, body)
	}
	if status, _, _ := s.do(t, fiber.MethodGet, "/health/ready", "", ""); status != fiber.StatusOK {
		t.Errorf("ready = %d, want 200 without dependencies", status)
	}
}

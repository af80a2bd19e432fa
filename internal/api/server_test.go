package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/irlogic/irlogic-core/internal/auth"
	"github.com/irlogic/irlogic-core/internal/history"
	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
	"github.com/irlogic/irlogic-core/internal/infrastructure/logging"
	"github.com/irlogic/irlogic-core/internal/input"
	"github.com/irlogic/irlogic-core/internal/keymap"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct-horse-battery"
	testJWTSecret     = "test-secret-do-not-use-in-production"
)

// testServer builds a Server wired to in-memory dependencies and returns
// it alongside an httptest server exposing its router.
func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	wsCfg := config.WebSocketConfig{
		Path:           "/ws",
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
	}

	deps := Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  30,
			},
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
			},
		},
		WS: wsCfg,
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testJWTSecret,
				AccessTokenTTL: 15,
			},
			Admin: config.AdminConfig{
				Username:     testAdminUser,
				PasswordHash: hash,
			},
		},
		Logger:  logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test"),
		Tree:    keymap.NewTree(input.NewMemoryBackend()),
		Version: "test",
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(wsCfg, srv.logger)
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	return srv, ts
}

// doRequest performs an HTTP request against the test server, optionally
// with a Bearer token and a JSON body.
func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// doRaw performs a request with a raw text body, used for attribute writes.
func doRaw(t *testing.T, ts *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// decodeBody unmarshals a JSON response body into target.
func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// adminToken logs in as the configured admin and returns the access token.
func adminToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Username: testAdminUser,
		Password: testAdminPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}

	var body loginResponse
	decodeBody(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	return body.AccessToken
}

// viewerToken mints a read-only token directly, bypassing login.
func viewerToken(t *testing.T) string {
	t.Helper()

	token, err := auth.GenerateAccessToken(&auth.User{
		ID:       "viewer",
		Username: "viewer",
		Role:     auth.RoleViewer,
	}, testJWTSecret, 15)
	if err != nil {
		t.Fatalf("failed to generate viewer token: %v", err)
	}
	return token
}

// ============================================================================
// Health and Auth
// ============================================================================

func TestHandleHealth(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("expected version test, got %q", body["version"])
	}
}

func TestLogin_Success(t *testing.T) {
	_, ts := testServer(t)

	token := adminToken(t, ts)

	claims, err := auth.ParseToken(token, testJWTSecret)
	if err != nil {
		t.Fatalf("returned token failed to parse: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Errorf("expected admin role, got %q", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Username: testAdminUser,
		Password: "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongUsername(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/auth/login", "", loginRequest{
		Username: "intruder",
		Password: testAdminPassword,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/stats", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/stats", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuth_ViewerCannotMutate(t *testing.T) {
	_, ts := testServer(t)
	token := viewerToken(t)

	// Reads are allowed.
	resp := doRequest(t, ts, http.MethodGet, "/api/v1/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for viewer read, got %d", resp.StatusCode)
	}

	// Mutations are not.
	resp = doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer mutation, got %d", resp.StatusCode)
	}
}

// ============================================================================
// Description and Stats
// ============================================================================

func TestHandleDescription(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/description", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain content type, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != keymap.RootDescription {
		t.Errorf("unexpected description: %q", string(body))
	}
}

func TestHandleStats_Empty(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/stats", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats keymap.Stats
	decodeBody(t, resp, &stats)
	if stats.Remotes != 0 || stats.Keymaps != 0 || stats.ClaimedKeys != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

// ============================================================================
// Remote Lifecycle
// ============================================================================

func TestRemoteLifecycle(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	// Create
	resp := doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var summary keymap.RemoteSummary
	decodeBody(t, resp, &summary)
	if summary.Name != "tv" {
		t.Errorf("expected name tv, got %q", summary.Name)
	}

	// Duplicate create conflicts
	resp = doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", resp.StatusCode)
	}

	// List
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Remotes []keymap.RemoteSummary `json:"remotes"`
		Count   int                    `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 1 || len(list.Remotes) != 1 {
		t.Fatalf("expected 1 remote, got count=%d len=%d", list.Count, len(list.Remotes))
	}

	// Get
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Delete
	resp = doRequest(t, ts, http.MethodDelete, "/api/v1/remotes/tv", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Gone
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRemoteAttributes(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/attributes/description", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != keymap.RemoteDescription {
		t.Errorf("unexpected description: %q", string(body))
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/attributes/bogus", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown attribute, got %d", resp.StatusCode)
	}
}

// ============================================================================
// Keymap Lifecycle and Attributes
// ============================================================================

func createTestKeymap(t *testing.T, ts *httptest.Server, token string) {
	t.Helper()

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create remote: status %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/v1/remotes/tv/keymaps", token, createNodeRequest{Name: "power"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create keymap: status %d", resp.StatusCode)
	}
}

func TestKeymapAttributes(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)
	createTestKeymap(t, ts, token)

	// Fields are zero-initialised.
	resp := doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/keymaps/power/attributes/protocol", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "0\n" {
		t.Errorf("expected initial value 0, got %q", string(body))
	}

	// Write accepts digits with a trailing newline.
	resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/protocol", token, "7\n")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// And digits without one.
	resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/command", token, "42")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// Read back rendered as decimal text with trailing newline.
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/keymaps/power/attributes/protocol", token, nil)
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "7\n" {
		t.Errorf("expected 7, got %q", string(body))
	}

	// Malformed bodies are rejected.
	for _, bad := range []string{"", "\n", "-1", "7x", " 7", "7\n\n"} {
		resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/protocol", token, bad)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", bad, resp.StatusCode)
		}
	}

	// Values above int32 range are rejected.
	resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/protocol", token, "4294967296\n")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range value, got %d", resp.StatusCode)
	}

	// Unknown fields 404.
	resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/bogus", token, "1\n")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown field, got %d", resp.StatusCode)
	}
}

func TestKeymapAttributes_KeycodeAboveRangeIgnored(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)
	createTestKeymap(t, ts, token)

	// Claim a real keycode first.
	resp := doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/keycode", token, "116\n")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// A keycode beyond the key range reports success but changes nothing.
	resp = doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/keycode", token, "768\n")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for above-range keycode, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/keymaps/power/attributes/keycode", token, nil)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "116\n" {
		t.Errorf("expected keycode unchanged at 116, got %q", string(body))
	}
}

// ============================================================================
// Translation
// ============================================================================

func TestHandleTranslate(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)
	createTestKeymap(t, ts, token)

	for field, value := range map[string]string{
		"protocol": "1\n",
		"device":   "5\n",
		"command":  "21\n",
		"keycode":  "116\n",
	} {
		resp := doRaw(t, ts, http.MethodPut, "/api/v1/remotes/tv/keymaps/power/attributes/"+field, token, value)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("failed to set %s: status %d", field, resp.StatusCode)
		}
	}

	// Matching triple produces a key press.
	resp := doRequest(t, ts, http.MethodPost, "/api/v1/translate", token, translateRequest{
		Protocol: 1, Device: 5, Command: 21,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Matches []keymap.Match `json:"matches"`
		Count   int            `json:"count"`
	}
	decodeBody(t, resp, &result)
	if result.Count != 1 || len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got count=%d len=%d", result.Count, len(result.Matches))
	}
	if result.Matches[0].Keycode != 116 || result.Matches[0].Remote != "tv" {
		t.Errorf("unexpected match: %+v", result.Matches[0])
	}

	// Non-matching triple produces none.
	resp = doRequest(t, ts, http.MethodPost, "/api/v1/translate", token, translateRequest{
		Protocol: 9, Device: 9, Command: 9,
	})
	decodeBody(t, resp, &result)
	if result.Count != 0 {
		t.Errorf("expected 0 matches, got %d", result.Count)
	}
}

// ============================================================================
// System Reset
// ============================================================================

func TestHandleReset(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)
	createTestKeymap(t, ts, token)

	// Wrong confirmation string is rejected.
	resp := doRequest(t, ts, http.MethodPost, "/api/v1/system/reset", token, resetRequest{Confirm: "yes"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad confirm, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/v1/system/reset", token, resetRequest{Confirm: "RESET ALL REMOTES"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Deleted int `json:"remotes_deleted"`
	}
	decodeBody(t, resp, &result)
	if result.Deleted != 1 {
		t.Errorf("expected 1 remote deleted, got %d", result.Deleted)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/stats", token, nil)
	var stats keymap.Stats
	decodeBody(t, resp, &stats)
	if stats.Remotes != 0 {
		t.Errorf("expected empty tree after reset, got %+v", stats)
	}
}

// ============================================================================
// History (unconfigured)
// ============================================================================

func TestHandleEvents_NoHistory(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/history", token, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without history storage, got %d", resp.StatusCode)
	}
}

// stubHistory serves canned events for handler tests.
type stubHistory struct {
	events []history.Event
	pruned int64
}

func (s *stubHistory) Record(context.Context, history.Event) error { return nil }

func (s *stubHistory) GetRecent(context.Context, int) ([]history.Event, error) {
	return s.events, nil
}

func (s *stubHistory) GetByRemote(_ context.Context, remote string, _ int) ([]history.Event, error) {
	var out []history.Event
	for _, e := range s.events {
		if e.Remote == remote {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubHistory) Prune(context.Context, time.Duration) (int64, error) {
	return s.pruned, nil
}

func TestHandleEvents_WithHistory(t *testing.T) {
	srv, ts := testServer(t)
	srv.history = &stubHistory{
		events: []history.Event{
			{Receiver: "hallway", Protocol: 1, Device: 5, Command: 21, Remote: "tv", Keymap: "power", Keycode: 116, Matched: true},
			{Receiver: "hallway", Protocol: 9, Device: 9, Command: 9},
		},
		pruned: 7,
	}
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/history", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Events []history.Event `json:"events"`
		Count  int             `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 2 {
		t.Errorf("expected 2 events, got %d", body.Count)
	}

	// Remote-scoped history filters by remote and requires the remote
	// to exist.
	resp = doRequest(t, ts, http.MethodPost, "/api/v1/remotes", token, createNodeRequest{Name: "tv"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create remote: status %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/tv/history", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &body)
	if body.Count != 1 || body.Events[0].Keymap != "power" {
		t.Errorf("unexpected remote history: %+v", body)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/remotes/stereo/history", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown remote, got %d", resp.StatusCode)
	}

	// Prune reports rows deleted.
	resp = doRequest(t, ts, http.MethodDelete, "/api/v1/history?older_than_hours=24", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var pruneBody struct {
		Deleted int64 `json:"deleted"`
	}
	decodeBody(t, resp, &pruneBody)
	if pruneBody.Deleted != 7 {
		t.Errorf("expected 7 deleted, got %d", pruneBody.Deleted)
	}
}

func TestHandleKeycodes(t *testing.T) {
	_, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/keycodes", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Keycodes []keycodeEntry `json:"keycodes"`
		Count    int            `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count == 0 || len(body.Keycodes) != body.Count {
		t.Fatalf("expected non-empty keycode table, got count=%d len=%d", body.Count, len(body.Keycodes))
	}
	for i := 1; i < len(body.Keycodes); i++ {
		if body.Keycodes[i].Code <= body.Keycodes[i-1].Code {
			t.Fatal("expected keycodes sorted by code")
		}
	}
}

// ============================================================================
// WebSocket Tickets
// ============================================================================

func TestWSTicket_SingleUse(t *testing.T) {
	srv, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/auth/ws-ticket", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Ticket string `json:"ticket"`
	}
	decodeBody(t, resp, &body)
	if body.Ticket == "" {
		t.Fatal("expected non-empty ticket")
	}

	entry, ok := srv.validateTicket(body.Ticket)
	if !ok {
		t.Fatal("expected ticket to validate")
	}
	if entry.role != auth.RoleAdmin {
		t.Errorf("expected admin role on ticket, got %q", entry.role)
	}

	// Second use fails.
	if _, ok := srv.validateTicket(body.Ticket); ok {
		t.Error("expected ticket to be single-use")
	}
}

func TestWSTicket_Expiry(t *testing.T) {
	srv, ts := testServer(t)
	token := adminToken(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/auth/ws-ticket", token, nil)
	var body struct {
		Ticket string `json:"ticket"`
	}
	decodeBody(t, resp, &body)

	// Force the ticket past its expiry.
	srv.tickets.mu.Lock()
	entry := srv.tickets.tickets[body.Ticket]
	entry.expiresAt = time.Now().Add(-time.Second)
	srv.tickets.tickets[body.Ticket] = entry
	srv.tickets.mu.Unlock()

	if _, ok := srv.validateTicket(body.Ticket); ok {
		t.Error("expected expired ticket to be rejected")
	}
}

func TestHandleWebSocket_MissingTicket(t *testing.T) {
	_, ts := testServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/ws", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without ticket, got %d", resp.StatusCode)
	}
}

// ============================================================================
// Hub
// ============================================================================

func newTestClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	return &WSClient{
		hub:           hub,
		send:          make(chan []byte, 4),
		subscriptions: subs,
		userID:        "test",
		role:          string(auth.RoleAdmin),
	}
}

func TestHubBroadcast_SubscribedOnly(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{}, logger)

	subscribed := newTestClient(hub, "keymap.updated")
	other := newTestClient(hub, "remote.created")
	hub.Register(subscribed)
	hub.Register(other)

	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.Broadcast("keymap.updated", map[string]string{"remote": "tv"})

	select {
	case data := <-subscribed.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal broadcast: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.EventType != "keymap.updated" {
			t.Errorf("unexpected message: type=%q event=%q", msg.Type, msg.EventType)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}

	select {
	case <-other.send:
		t.Fatal("unsubscribed client received a broadcast")
	default:
	}
}

func TestHubUnregister_Idempotent(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{}, logger)

	client := newTestClient(hub)
	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client) // second call must not panic on closed channel

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}

	// Broadcasting after disconnect must not panic either.
	hub.Broadcast("keymap.updated", map[string]string{})
}

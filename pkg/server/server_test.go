package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/config"
	"github.com/agriquery/gateway/pkg/formatter"
	"github.com/agriquery/gateway/pkg/reactagent"
	"github.com/agriquery/gateway/pkg/registry"
	"github.com/agriquery/gateway/pkg/session"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/weather"
)

var dsnCounter int

func nextDSN(prefix string) string {
	dsnCounter++
	return fmt.Sprintf("file:%s-test-%d?mode=memory&cache=shared", prefix, dsnCounter)
}

type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(ctx context.Context, query string, observations []reactagent.Observation) (string, error) {
	return "synthesized: " + query, nil
}

func stubTool(name string, category tool.Category, terminal bool, handler tool.Handler) *tool.Tool {
	return &tool.Tool{Name: name, Category: category, TerminalOnSuccess: terminal, Handler: handler}
}

func newTestServer(t *testing.T) (*Server, *auth.Service, *auth.TokenIssuer) {
	t.Helper()

	reg := registry.NewToolRegistry()
	require.NoError(t, reg.Register(stubTool("predict_yield", tool.CategoryPrediction, true, func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"content": "4.2 t/ha", "primary_prediction": 4.2})
	})))
	require.NoError(t, reg.Register(stubTool("detect_pest", tool.CategoryPrediction, true, func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{
			"top_prediction":  "leaf blight",
			"all_predictions": []map[string]any{{"label": "leaf blight", "confidence": 0.8}},
			"recommendations": []string{"apply_fungicide"},
		})
	})))
	require.NoError(t, reg.Register(stubTool("retrieve_documents", tool.CategoryRetrieval, false, func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"documents": []map[string]any{}, "needs_followup": true})
	})))
	require.NoError(t, reg.Register(stubTool("translate", tool.CategoryTranslation, true, func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"translated_text": "translated: " + fmt.Sprint(args["text"]), "detected_source_lang": "en"})
	})))
	require.NoError(t, reg.Register(stubTool("generation", tool.CategoryGeneration, true, func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"text": "generated answer", "tokens_used": 10})
	})))

	fmtr := formatter.New(reg.Lookup, "generation", "translate")
	agent := reactagent.NewAgent(5, func(string) time.Duration { return time.Second }, echoSynthesizer{}, nil, nil)

	sessions, err := session.OpenStore(nextDSN("session"))
	require.NoError(t, err)

	authStore, err := auth.OpenStore(nextDSN("auth"), "root@example.com", "SuperSecret1")
	require.NoError(t, err)

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	authSvc := auth.NewService(authStore, issuer)

	weatherSvc := weather.NewService("", time.Minute, nil)

	cfg := &config.GatewayConfig{
		ListenAddr:      ":0",
		RequestDeadline: 5 * time.Second,
	}

	srv := New(Deps{
		Config:    cfg,
		Registry:  reg,
		Agent:     agent,
		Formatter: fmtr,
		Auth:      authSvc,
		Issuer:    issuer,
		Sessions:  sessions,
		Weather:   weatherSvc,
	})
	return srv, authSvc, issuer
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth_ReportsOKWhenAllComponentsPresent(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleRegisterAndLogin_RoundTrips(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", registerRequest{
		Email: "farmer@example.com", Password: "StrongPass1", FullName: "Farmer",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var registerBody map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registerBody))
	assert.NotEmpty(t, registerBody["token"])

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", loginRequest{
		Email: "farmer@example.com", Password: "StrongPass1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRegister_RejectsDuplicateEmail(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := registerRequest{Email: "farmer@example.com", Password: "StrongPass1", FullName: "Farmer"}
	rec := doJSON(t, srv, http.MethodPost, "/auth/register", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthRoutes_RequireBearerToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthUsers_RequiresAdminRole(t *testing.T) {
	srv, authSvc, _ := newTestServer(t)
	_, err := authSvc.Register("farmer@example.com", "StrongPass1", auth.Profile{FullName: "Farmer"})
	require.NoError(t, err)
	token, _, err := authSvc.Authenticate("farmer@example.com", "StrongPass1")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodGet, "/auth/users", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleAsk_ReturnsAnswerFromTerminalTool(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/ask", askRequest{Query: "how's my yield"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["answer"], "synthesized")
}

func TestHandleAsk_RejectsEmptyQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/ask", askRequest{Query: ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgent_RequiresAuthentication(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/agent", agentRequest{Query: "hello"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleAgent_PersistsSessionMessages(t *testing.T) {
	srv, authSvc, _ := newTestServer(t)
	_, err := authSvc.Register("farmer@example.com", "StrongPass1", auth.Profile{FullName: "Farmer"})
	require.NoError(t, err)
	token, _, err := authSvc.Authenticate("farmer@example.com", "StrongPass1")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/agent", agentRequest{Query: "predict my yield"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	rec = doJSON(t, srv, http.MethodPost, "/conversations/get", getConversationRequest{
		SessionID: sessionID,
		UserID:    currentUserIDFromToken(t, srv, token),
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)
}

// currentUserIDFromToken extracts the subject from an issued token by
// round-tripping through /auth/me, mirroring how a real client would
// learn its own user_id before calling the conversations endpoints.
func currentUserIDFromToken(t *testing.T, srv *Server, token string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodGet, "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id, _ := body["id"].(string)
	return id
}

func intPtr(v int) *int { return &v }

func TestHandleWeather_UnknownLocationIs404WithCandidates(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/weather", weatherRequest{Location: "Nowheresville", Days: intPtr(7)}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Candidates)
}

func TestHandleWeather_OmittedDaysDefaultsToSeven(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/weather", weatherRequest{Location: "Nowheresville"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code, "unresolved location still reached Get with the default 7-day window")
}

func TestHandleWeather_ExplicitZeroDaysIsBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/weather", weatherRequest{Location: "Nowheresville", Days: intPtr(0)}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWeatherLocations_ListsGazetteer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/weather/locations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body)
}

func TestHandlePredictYield_InvokesRegisteredTool(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/predict_yield", map[string]any{"crop": "wheat"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "4.2 t/ha", body["content"])
}

func TestConversationLifecycle_SaveListGetDelete(t *testing.T) {
	srv, authSvc, _ := newTestServer(t)
	_, err := authSvc.Register("farmer@example.com", "StrongPass1", auth.Profile{FullName: "Farmer"})
	require.NoError(t, err)
	token, _, err := authSvc.Authenticate("farmer@example.com", "StrongPass1")
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/conversations/save", saveConversationRequest{
		UserID:    "user-1",
		SessionID: "session-1",
		Messages:  []session.Message{{Role: session.RoleUser, Text: "hello"}},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/conversations/list", listConversationsRequest{UserID: "user-1"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var listBody map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	convs, ok := listBody["conversations"].([]any)
	require.True(t, ok)
	assert.Len(t, convs, 1)

	rec = doJSON(t, srv, http.MethodPost, "/conversations/delete", deleteConversationRequest{UserID: "user-1", SessionID: "session-1"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/conversations/get", getConversationRequest{UserID: "user-1", SessionID: "session-1"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddleware_ConvertsPanicToInternalError(t *testing.T) {
	reg := registry.NewToolRegistry()
	require.NoError(t, reg.Register(stubTool("predict_yield", tool.CategoryPrediction, true, func(ctx context.Context, args map[string]any) tool.Result {
		panic("boom")
	})))

	fmtr := formatter.New(reg.Lookup, "generation", "translate")
	agent := reactagent.NewAgent(5, func(string) time.Duration { return time.Second }, echoSynthesizer{}, nil, nil)
	sessions, err := session.OpenStore(nextDSN("session"))
	require.NoError(t, err)
	authStore, err := auth.OpenStore(nextDSN("auth"), "root@example.com", "SuperSecret1")
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	authSvc := auth.NewService(authStore, issuer)
	weatherSvc := weather.NewService("", time.Minute, nil)

	srv := New(Deps{
		Config:    &config.GatewayConfig{ListenAddr: ":0", RequestDeadline: 5 * time.Second},
		Registry:  reg,
		Agent:     agent,
		Formatter: fmtr,
		Auth:      authSvc,
		Issuer:    issuer,
		Sessions:  sessions,
		Weather:   weatherSvc,
	})

	rec := doJSON(t, srv, http.MethodPost, "/predict_yield", map[string]any{"crop": "wheat"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

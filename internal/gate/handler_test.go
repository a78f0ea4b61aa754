package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
	"github.com/xela07ax/vaultgate-prototype/internal/vault"
)

type fakeAdmin struct {
	names map[string]domain.Guardian
}

func (f *fakeAdmin) List(context.Context) ([]domain.Guardian, error) {
	out := make([]domain.Guardian, 0, len(f.names))
	for _, g := range f.names {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeAdmin) Get(_ context.Context, name string) (*domain.Guardian, error) {
	g, ok := f.names[name]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeAdmin) Add(_ context.Context, name string) error {
	f.names[name] = domain.Guardian{ID: name, Name: name}
	return nil
}

func (f *fakeAdmin) Remove(_ context.Context, name string) error {
	delete(f.names, name)
	return nil
}

type fakeIssuer struct{}

func (fakeIssuer) GenerateToken(username, password string) (*domain.TokenResponse, error) {
	if username == "admin" && password == "secret" {
		return &domain.TokenResponse{AccessToken: "good", TokenType: "Bearer", ExpiresIn: 3600}, nil
	}
	return nil, errors.New("invalid credentials")
}

type fakeValidator struct{}

func (fakeValidator) VerifyToken(tokenStr string) (*domain.CustomClaims, error) {
	if strings.TrimPrefix(tokenStr, "Bearer ") == "good" {
		return &domain.CustomClaims{OperatorID: "admin", Scopes: map[string]bool{"guardians:write": true}}, nil
	}
	return nil, errors.New("invalid token")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	v := vault.New(
		vault.Config{
			Secret:   []byte("demo-unsafe-key"),
			Limits:   map[string]int64{"daily": 1e18},
			Cooldown: 5 * time.Second,
		},
		guardians.NewStatic("alice"),
		vault.NewMemoryCooldown(),
		func() time.Time { return time.Unix(1_700_000_000, 0) },
		zap.NewNop(),
	)

	admin := &fakeAdmin{names: map[string]domain.Guardian{
		"alice": {ID: "1", Name: "alice"},
	}}

	return NewServer(zap.NewNop(), v, admin, fakeIssuer{}, fakeValidator{}, NewMetrics(nil))
}

func postJSON(t *testing.T, srv http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleSignSuccess(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/v1/sign", SignRequest{
		Actor: "alice",
		Intent: domain.Intent{
			To:    "0x" + strings.Repeat("a", 40),
			Value: 100,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var signed domain.SignedIntent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	assert.Equal(t, "alice", signed.Actor)
	assert.Len(t, signed.Sig, 66)
	// Дефолты применились
	assert.Equal(t, "0x", signed.Intent.Data)
	assert.Equal(t, int64(1), signed.Intent.ChainID)
	// Trace-ID проставлен транспортом
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestHandleSignPolicyRejection(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/v1/sign", SignRequest{
		Actor: "bob",
		Intent: domain.Intent{
			To:    "0x" + strings.Repeat("a", 40),
			Value: 100,
		},
	})

	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "actor not authorized", resp["error"])
}

func TestHandleSignMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sign", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/auth/token", domain.LoginRequest{Username: "admin", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var token domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "Bearer", token.TokenType)

	rec = postJSON(t, srv, "/auth/token", domain.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardianRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/guardians", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/guardians", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardianAdminFlow(t *testing.T) {
	srv := newTestServer(t)

	// Добавляем опекуна
	raw, _ := json.Marshal(map[string]string{"name": "carol"})
	req := httptest.NewRequest(http.MethodPost, "/v1/guardians", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Он виден
	req = httptest.NewRequest(http.MethodGet, "/v1/guardians/carol", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Удаляем
	req = httptest.NewRequest(http.MethodDelete, "/v1/guardians/carol", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// 404 после удаления
	req = httptest.NewRequest(http.MethodGet, "/v1/guardians/carol", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "activity-tracker"}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)
	return token
}

func validClaims(scopes interface{}) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "athlete-1",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": scopes,
	}
}

func TestParse(t *testing.T) {
	claims, err := Parse(signToken(t, validClaims([]string{ScopeActivitiesRead, ScopeActivitiesSync})), testConfig)
	require.NoError(t, err)
	assert.Equal(t, "athlete-1", claims.Subject)
	assert.True(t, claims.HasScope(ScopeActivitiesRead))
	assert.True(t, claims.HasScope(ScopeActivitiesSync))

	claims, err = Parse(signToken(t, validClaims("activities:read  other")), testConfig)
	require.NoError(t, err)
	assert.True(t, claims.HasScope(ScopeActivitiesRead))
	assert.True(t, claims.HasScope("other"))
	assert.False(t, claims.HasScope(ScopeActivitiesSync))
}

func TestParseRejects(t *testing.T) {
	expired := validClaims(nil)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExpiry := validClaims(nil)
	delete(noExpiry, "exp")

	noSubject := validClaims(nil)
	delete(noSubject, "sub")

	wrongIssuer := validClaims(nil)
	wrongIssuer["iss"] = "someone-else"

	cases := map[string]string{
		"expired":      signToken(t, expired),
		"no expiry":    signToken(t, noExpiry),
		"no subject":   signToken(t, noSubject),
		"wrong issuer": signToken(t, wrongIssuer),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(token, testConfig)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := Parse("  ", testConfig)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse(signToken(t, validClaims(nil)), Config{Secret: "other", Issuer: testConfig.Issuer})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig).Wrap(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activities", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"type":"unauthorized","detail":"missing bearer token"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	req.Header.Set("Authorization", "Basic abc")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	req.Header.Set("Authorization", "bearer "+signToken(t, validClaims([]string{ScopeActivitiesRead})))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "athlete-1", seen.Subject)

	for _, path := range []string{"/healthz", "/metrics"} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
}

func TestRequireScope(t *testing.T) {
	handler := RequireScope(ScopeActivitiesSync, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/v1/activities/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	readOnly := &Claims{Subject: "a", Scopes: map[string]struct{}{ScopeActivitiesRead: {}}}
	req := httptest.NewRequest(http.MethodPost, "/v1/activities/sync", nil)
	rec = httptest.NewRecorder()
	handler(rec, req.WithContext(WithClaims(req.Context(), readOnly)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "scope activities:sync required")

	syncer := &Claims{Subject: "a", Scopes: map[string]struct{}{ScopeActivitiesSync: {}}}
	rec = httptest.NewRecorder()
	handler(rec, req.WithContext(WithClaims(req.Context(), syncer)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

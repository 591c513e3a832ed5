package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeassist/safety-platform/internal/http/handlers"
	"github.com/storeassist/safety-platform/internal/pipeline"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/internal/safety"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := report.NewService(report.ServiceConfig{
		Store:      report.NewMemoryStore(),
		Auditor:    report.NewMemoryAuditor(),
		Bus:        report.NewMemoryBus(),
		Anonymizer: report.NewAnonymizer("test-salt"),
		Encryptor: report.NewEncryptor(
			report.NewStaticSecretStore(map[string]string{"safety-encryption-key": "key material"}),
			"safety-encryption-key", "v1",
		),
		AccessList: []string{"hr-lead-1"},
	})
	classifier := safety.NewClassifier(safety.DefaultPatternLibrary(), nil, time.Second, nil)
	p := pipeline.New(classifier, policy.NewEngine(policy.DefaultResources()), svc, nil, nil)

	return New(&Config{
		SafetyHandler:      handlers.NewSafetyHandler(p, svc, nil),
		AccessorAuthSecret: "accessor-secret",
		AdminAuthSecret:    "admin-secret",
	})
}

func bearer(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ClassifyAndFetchReport(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/messages/classify",
		strings.NewReader(`{"user_id":"emp-1042","message":"I want to kill myself","store_id":"store-77"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var classifyResp struct {
		ReportID string `json:"report_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classifyResp))
	require.NotEmpty(t, classifyResp.ReportID)

	// Authorized accessor reads the report back.
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+classifyResp.ReportID+"?purpose=follow-up", nil)
	req.Header.Set("Authorization", bearer(t, "accessor-secret", "hr-lead-1"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kill myself")
}

func TestRouter_ReportAccessRequiresToken(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/SAFE-1?purpose=x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UnauthorizedAccessorGets404(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/SAFE-0000000000000000?purpose=x", nil)
	req.Header.Set("Authorization", bearer(t, "accessor-secret", "not-on-the-list"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PurgeRequiresAdminToken(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reports/purge", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// An accessor token signed with the wrong secret is also rejected.
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/purge", nil)
	req.Header.Set("Authorization", bearer(t, "accessor-secret", "ops-1"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/reports/purge", nil)
	req.Header.Set("Authorization", bearer(t, "admin-secret", "ops-1"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":0`)
}

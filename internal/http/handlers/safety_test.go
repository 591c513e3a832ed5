package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storeassist/safety-platform/internal/pipeline"
	"github.com/storeassist/safety-platform/internal/policy"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/internal/safety"
)

func newTestHandler(t *testing.T) *SafetyHandler {
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
	return NewSafetyHandler(p, svc, nil)
}

func TestClassify_RejectsBadBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/classify", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestClassify_RequiresUserID(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/classify",
		strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id is required")
}

func TestClassify_ReturnsClassification(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages/classify",
		strings.NewReader(`{"user_id":"emp-1042","message":"What aisle are the chargers in?"}`))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category":"safe_operational"`)
	assert.Contains(t, rec.Body.String(), `"allow_continuation":true`)
}

func TestGetReport_RequiresAccessorIdentity(t *testing.T) {
	h := newTestHandler(t)

	// No accessor claims in context.
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/SAFE-1?purpose=x", nil)
	rec := httptest.NewRecorder()
	h.GetReport(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

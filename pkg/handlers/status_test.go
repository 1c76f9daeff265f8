package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/models"
)

func statusMux(t *testing.T, mock *llm.MockClient, settings *models.AppSettings) *http.ServeMux {
	t.Helper()
	factory := func(host string) llm.Client { return mock }
	provider := &stubSettings{current: settings}

	mux := http.NewServeMux()
	NewStatusHandler(testDB(t), factory, provider, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestStatusHandler_AllOperational(t *testing.T) {
	mock := llm.NewMockClient()
	mock.ListModelsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"qwen2.5:14b", "nomic-embed-text:latest"}, nil
	}
	mux := statusMux(t, mock, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[SystemStatus](t, rec)
	assert.Equal(t, StatusOperational, status.Overall)
	assert.Equal(t, StatusOperational, status.Dependencies.Ollama.Status)
	assert.Equal(t, StatusOperational, status.Dependencies.Models.Primary.Status)
	assert.Equal(t, StatusOperational, status.Dependencies.Models.Embedding.Status)
	assert.Nil(t, status.Dependencies.Models.Judge)
	assert.Equal(t, StatusOperational, status.Dependencies.Database.Status)
}

func TestStatusHandler_SettingsDown(t *testing.T) {
	factory := func(host string) llm.Client { return llm.NewMockClient() }
	provider := &stubSettings{currentErr: errors.New("disk corrupt")}

	mux := http.NewServeMux()
	NewStatusHandler(testDB(t), factory, provider, zap.NewNop()).RegisterRoutes(mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[SystemStatus](t, rec)
	assert.Equal(t, StatusDown, status.Overall)
	assert.Equal(t, StatusDown, status.Dependencies.Settings.Status)
	assert.Equal(t, "disk corrupt", status.Dependencies.Settings.Details)

	// Dependencies that could not be checked are reported down, never
	// left with empty status strings.
	assert.Equal(t, StatusDown, status.Dependencies.Ollama.Status)
	assert.Equal(t, "Cannot check (settings unavailable)", status.Dependencies.Ollama.Message)
	assert.Equal(t, StatusDown, status.Dependencies.Models.Primary.Status)
	assert.Equal(t, StatusDown, status.Dependencies.Models.Embedding.Status)
	assert.Equal(t, StatusOperational, status.Dependencies.Database.Status)
}

func TestStatusHandler_OllamaDown(t *testing.T) {
	mock := llm.NewMockClient()
	mock.ListModelsFunc = func(ctx context.Context) ([]string, error) {
		return nil, errors.New("connection refused")
	}
	mux := statusMux(t, mock, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[SystemStatus](t, rec)
	assert.Equal(t, StatusDown, status.Overall)
	assert.Equal(t, StatusDown, status.Dependencies.Ollama.Status)
	assert.Equal(t, StatusDown, status.Dependencies.Models.Primary.Status)
}

func TestStatusHandler_MissingPrimaryModel(t *testing.T) {
	mock := llm.NewMockClient()
	mock.ListModelsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"nomic-embed-text:latest"}, nil
	}
	mux := statusMux(t, mock, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/status", nil)
	status := decodeBody[SystemStatus](t, rec)

	assert.Equal(t, StatusDown, status.Overall)
	assert.Equal(t, StatusDown, status.Dependencies.Models.Primary.Status)
	assert.Contains(t, status.Dependencies.Models.Primary.Details, "ollama pull")
}

func TestStatusHandler_MissingJudgeDegrades(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Ollama.JudgeModel = "mistral-large"
	settings.Features.DualModelEnabled = true

	mock := llm.NewMockClient()
	mock.ListModelsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"qwen2.5:14b", "nomic-embed-text"}, nil
	}
	mux := statusMux(t, mock, settings)

	rec := doJSON(t, mux, http.MethodGet, "/api/status", nil)
	status := decodeBody[SystemStatus](t, rec)

	assert.Equal(t, StatusDegraded, status.Overall)
	require.NotNil(t, status.Dependencies.Models.Judge)
	assert.Equal(t, StatusDown, status.Dependencies.Models.Judge.Status)
}

func TestStatusHandler_ModelTagMatching(t *testing.T) {
	available := []string{"qwen2.5:14b", "nomic-embed-text:latest"}

	assert.True(t, modelAvailable("qwen2.5:14b", available))
	assert.True(t, modelAvailable("qwen2.5", available))
	assert.True(t, modelAvailable("nomic-embed-text", available))
	assert.True(t, modelAvailable("nomic-embed-text:v1.5", available))
	// Tags are advisory: a configured tag matches any installed tag of the
	// same base model.
	assert.True(t, modelAvailable("qwen2.5:32b", available))
	assert.False(t, modelAvailable("llama3.2", available))
}

func TestStatusHandler_FixPullModel(t *testing.T) {
	var pulled string
	mock := llm.NewMockClient()
	mock.PullFunc = func(ctx context.Context, model string) error {
		pulled = model
		return nil
	}
	mux := statusMux(t, mock, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/fix", map[string]string{
		"action": "pull-model",
		"model":  "llama3.2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "llama3.2", pulled)
}

func TestStatusHandler_FixPullModelRequiresModel(t *testing.T) {
	mux := statusMux(t, llm.NewMockClient(), nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/fix", map[string]string{
		"action": "pull-model",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusHandler_FixUnknownAction(t *testing.T) {
	mux := statusMux(t, llm.NewMockClient(), nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/fix", map[string]string{
		"action": "reboot",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_action", decodeBody[map[string]string](t, rec)["error"])
}

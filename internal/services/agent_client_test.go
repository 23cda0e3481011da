package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convert2ansible/backend/internal/workflow"
)

func agentServer(t *testing.T, path string, status int, response interface{}, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			json.NewEncoder(w).Encode(response)
		}
	}))
}

func TestHTTPAgentClient_Classify(t *testing.T) {
	var body map[string]interface{}
	srv := agentServer(t, "/api/classify", http.StatusOK, map[string]interface{}{
		"classification": "puppet",
		"resource_type":  "package",
		"summary":        "installs nginx",
		"convertible":    true,
	}, &body)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Classifier: srv.URL})
	out, err := client.Classify(context.Background(), "package { 'nginx': }")
	require.NoError(t, err)
	assert.Equal(t, "puppet", out.Classification)
	assert.Equal(t, "package", out.ResourceType)
	assert.True(t, out.Convertible)
	assert.Equal(t, "package { 'nginx': }", body["code"])
}

func TestHTTPAgentClient_QueryContext(t *testing.T) {
	srv := agentServer(t, "/api/context/query", http.StatusOK, map[string]interface{}{
		"context": []map[string]interface{}{
			{"text": "use ansible.builtin.package", "source": "modules.md", "score": 0.91},
		},
	}, nil)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Context: srv.URL})
	out, err := client.QueryContext(context.Background(), "package { 'nginx': }")
	require.NoError(t, err)
	require.Len(t, out.Chunks, 1)
	assert.Equal(t, "use ansible.builtin.package", out.Chunks[0].Text)
	assert.Equal(t, "modules.md", out.Chunks[0].Source)
}

func TestHTTPAgentClient_GenerateSendsChunkText(t *testing.T) {
	var body map[string]interface{}
	srv := agentServer(t, "/api/generate", http.StatusOK, map[string]interface{}{
		"playbook": "---\n- hosts: all",
		"raw":      "```yaml\n---\n- hosts: all\n```",
	}, &body)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Generator: srv.URL})
	out, err := client.Generate(context.Background(), "code", []workflow.ContextChunk{
		{Text: "chunk one"}, {Text: "chunk two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "---\n- hosts: all", out.Playbook)
	assert.Equal(t, []interface{}{"chunk one", "chunk two"}, body["context"])
}

func TestHTTPAgentClient_Validate(t *testing.T) {
	srv := agentServer(t, "/api/validate", http.StatusOK, map[string]interface{}{
		"validation_passed": false,
		"exit_code":         2,
		"message":           "2 findings",
		"issues": []map[string]interface{}{
			{"rule": "no-changed-when", "severity": "error", "line": 12},
		},
		"recommendations": []string{"add changed_when"},
	}, nil)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Validator: srv.URL})
	out, err := client.Validate(context.Background(), "---\n- hosts: all")
	require.NoError(t, err)
	assert.False(t, out.Passed)
	assert.Equal(t, 2, out.ExitCode)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "no-changed-when", out.Issues[0].Rule)
	assert.Equal(t, []string{"add changed_when"}, out.Recommendations)
}

func TestHTTPAgentClient_GenerateSpec(t *testing.T) {
	var body map[string]interface{}
	srv := agentServer(t, "/api/spec/generate", http.StatusOK, map[string]interface{}{
		"spec_text": "Installs nginx and enables the service.",
	}, &body)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Generator: srv.URL})
	text, err := client.GenerateSpec(context.Background(), "package { 'nginx': }", "")
	require.NoError(t, err)
	assert.Equal(t, "Installs nginx and enables the service.", text)
	assert.Equal(t, "package { 'nginx': }", body["code"])
	_, hasContext := body["context"]
	assert.False(t, hasContext, "empty context stays off the wire")
}

func TestHTTPAgentClient_DeployDefaults(t *testing.T) {
	srv := agentServer(t, "/api/deploy", http.StatusOK, map[string]interface{}{
		"job_id": "job-42",
	}, nil)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Deployer: srv.URL})
	out, err := client.Deploy(context.Background(), "---\n- hosts: all", "staging")
	require.NoError(t, err)
	assert.Equal(t, "job-42", out.JobID)
	assert.Equal(t, "queued", out.Status)
	assert.Equal(t, "staging", out.Target)
}

func TestHTTPAgentClient_NonOKStatus(t *testing.T) {
	srv := agentServer(t, "/api/classify", http.StatusBadGateway, nil, nil)
	defer srv.Close()

	client := NewHTTPAgentClient(AgentEndpoints{Classifier: srv.URL})
	_, err := client.Classify(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

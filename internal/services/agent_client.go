package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"convert2ansible/backend/internal/workflow"
)

// AgentEndpoints holds the base URL of each agent. All five may point at
// the same host when the agents run as one process.
type AgentEndpoints struct {
	Classifier string
	Context    string
	Generator  string
	Validator  string
	Deployer   string
}

// HTTPAgentClient is an HTTP implementation of the AgentClient interface.
type HTTPAgentClient struct {
	endpoints AgentEndpoints
	client    *http.Client
}

// NewHTTPAgentClient creates a new HTTPAgentClient. Generation and
// validation can take minutes on large inputs, so the client carries no
// timeout of its own; callers bound the work through ctx.
func NewHTTPAgentClient(endpoints AgentEndpoints) *HTTPAgentClient {
	return &HTTPAgentClient{
		endpoints: endpoints,
		client:    &http.Client{},
	}
}

func (c *HTTPAgentClient) post(ctx context.Context, base, path string, body, out interface{}) error {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", base+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent %s returned status code %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Classify asks the classifier agent what tool produced the snippet.
func (c *HTTPAgentClient) Classify(ctx context.Context, code string) (workflow.AnalyzeOutcome, error) {
	var out workflow.AnalyzeOutcome
	err := c.post(ctx, c.endpoints.Classifier, "/api/classify", map[string]string{"code": code}, &out)
	return out, err
}

// QueryContext retrieves reference chunks for the snippet.
func (c *HTTPAgentClient) QueryContext(ctx context.Context, code string) (workflow.ContextOutcome, error) {
	var resp struct {
		Context []workflow.ContextChunk `json:"context"`
	}
	err := c.post(ctx, c.endpoints.Context, "/api/context/query", map[string]string{"code": code}, &resp)
	return workflow.ContextOutcome{Chunks: resp.Context}, err
}

// Generate asks the generator agent for an Ansible playbook.
func (c *HTTPAgentClient) Generate(ctx context.Context, code string, chunks []workflow.ContextChunk) (workflow.ConvertOutcome, error) {
	contextText := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contextText = append(contextText, chunk.Text)
	}
	var out workflow.ConvertOutcome
	err := c.post(ctx, c.endpoints.Generator, "/api/generate", map[string]interface{}{
		"code":    code,
		"context": contextText,
	}, &out)
	return out, err
}

// Validate runs the playbook through the validation agent.
func (c *HTTPAgentClient) Validate(ctx context.Context, playbook string) (workflow.ValidateOutcome, error) {
	var out workflow.ValidateOutcome
	err := c.post(ctx, c.endpoints.Validator, "/api/validate", map[string]string{"playbook": playbook}, &out)
	return out, err
}

// GenerateSpec asks the spec agent for a prose specification of the
// snippet.
func (c *HTTPAgentClient) GenerateSpec(ctx context.Context, code, contextText string) (string, error) {
	var resp struct {
		SpecText string `json:"spec_text"`
	}
	body := map[string]string{"code": code}
	if contextText != "" {
		body["context"] = contextText
	}
	err := c.post(ctx, c.endpoints.Generator, "/api/spec/generate", body, &resp)
	return resp.SpecText, err
}

// Deploy hands the playbook to the deployment agent.
func (c *HTTPAgentClient) Deploy(ctx context.Context, playbook, target string) (workflow.DeployOutcome, error) {
	var out workflow.DeployOutcome
	err := c.post(ctx, c.endpoints.Deployer, "/api/deploy", map[string]string{
		"playbook": playbook,
		"target":   target,
	}, &out)
	if err != nil {
		return out, err
	}
	if out.Target == "" {
		out.Target = target
	}
	if out.Status == "" {
		out.Status = "queued"
	}
	return out, nil
}

var _ AgentClient = (*HTTPAgentClient)(nil)

package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ebukadev08/notification-system/internal/models"
)

// TemplateClient renders templates via the template service.
type TemplateClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewTemplateClient creates a new TemplateClient.
func NewTemplateClient(baseURL string, timeout time.Duration) *TemplateClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TemplateClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "template-service",
		}),
	}
}

// Render asks the template service to render the template with the given
// variables and returns the subject and body.
func (c *TemplateClient) Render(ctx context.Context, templateCode string, variables map[string]interface{}) (models.RenderedContent, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.render(ctx, templateCode, variables)
	})
	if err != nil {
		return models.RenderedContent{}, err
	}
	return result.(models.RenderedContent), nil
}

func (c *TemplateClient) render(ctx context.Context, templateCode string, variables map[string]interface{}) (models.RenderedContent, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"variables": variables,
	})
	if err != nil {
		return models.RenderedContent{}, err
	}

	path := fmt.Sprintf("%s/api/v1/templates/%s/render", c.baseURL, url.PathEscape(templateCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return models.RenderedContent{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.RenderedContent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.RenderedContent{}, fmt.Errorf("template service returned %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Data models.RenderedContent `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RenderedContent{}, err
	}
	return envelope.Data, nil
}

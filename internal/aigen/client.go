package aigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/pkg/utils"
)

// ClientConfig holds structured-generation collaborator configuration
type ClientConfig struct {
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"api_key"`
	Model          string        `json:"model"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// Client calls the external structured-generation API. Callers treat the
// returned JSON as untrusted and validate it themselves.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a generation client, or nil when no credential is
// configured so callers get the explicit disabled state.
func NewClient(config *ClientConfig) *Client {
	if config.APIKey == "" {
		return nil
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: utils.GetLogger(),
	}
}

type generateRequest struct {
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Format       string `json:"format"`
}

type generateResponse struct {
	Output json.RawMessage `json:"output"`
}

// Generate requests a structured JSON object from the collaborator.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	body, err := json.Marshal(generateRequest{
		Model:        c.config.Model,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Format:       "json",
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeGeneration, "Failed to encode generation request", err.Error())
	}

	url := c.config.BaseURL + "/v1/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeGeneration, "Failed to build generation request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeGeneration, "Generation request failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, utils.NewAppError(utils.ErrCodeGeneration,
			fmt.Sprintf("Generation returned status %d", resp.StatusCode), string(payload))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeGeneration, "Failed to decode generation response", err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"model":    c.config.Model,
		"duration": time.Since(start),
	}).Debug("Generation request completed")

	return decoded.Output, nil
}

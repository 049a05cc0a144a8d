package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// --- Response types (дублируются из verticle, CLI не импортирует internal/verticle) ---

// DeploymentResponse — деплой в ответе узла.
type DeploymentResponse struct {
	ID         string `json:"id"`
	RuntimeID  string `json:"runtime_id"`
	Unit       string `json:"unit"`
	Status     string `json:"status"`
	DeployedAt string `json:"deployed_at"`
}

// NodeInfoResponse — ответ /_kovert/deployment.
type NodeInfoResponse struct {
	RuntimeID      string               `json:"runtime_id"`
	DeploymentID   string               `json:"deployment_id"`
	Clustered      bool                 `json:"clustered"`
	Addr           string               `json:"addr"`
	WorkerPoolSize int                  `json:"worker_pool_size,omitempty"`
	WorkingDir     string               `json:"working_dir,omitempty"`
	Deployments    []DeploymentResponse `json:"deployments,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API узла kovert.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API узла.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Health возвращает тело ответа /healthz.
func (c *Client) Health() (string, error) {
	resp, err := c.do(http.MethodGet, "/healthz")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// Deployment возвращает сведения о runtime и деплоях узла.
func (c *Client) Deployment() (*NodeInfoResponse, error) {
	var info NodeInfoResponse
	err := c.get("/_kovert/deployment", &info)
	return &info, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

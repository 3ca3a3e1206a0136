package display

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnshRaj112/reflections-backend/internal/form"
	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// Client reads the retrieval endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets baseURL. A nil httpClient gets a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

type listResponse struct {
	Success bool                `json:"success"`
	Data    []models.Reflection `json:"data"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details string              `json:"details"`
}

// Fetch lists reflections newest first.
func (c *Client) Fetch(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error) {
	q := url.Values{}
	if f.Neighborhood != "" {
		q.Set("neighborhood", f.Neighborhood)
	}
	if f.FeaturedOnly {
		q.Set("featured", "true")
	}
	u := c.baseURL + form.ReflectionsPath
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("display: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("display: fetch: %w", err)
	}
	defer resp.Body.Close()

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &form.ServerError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("display: decode: %w", err)
	}
	if resp.StatusCode >= 300 || !body.Success {
		return nil, &form.ServerError{Status: resp.StatusCode, Kind: body.Error, Message: body.Message, Details: body.Details}
	}
	if body.Data == nil {
		body.Data = []models.Reflection{}
	}
	return body.Data, nil
}

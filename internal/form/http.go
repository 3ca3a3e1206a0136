package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// ReflectionsPath is the submission and retrieval endpoint.
const ReflectionsPath = "/api/reflections"

// ServerError is a non-2xx answer from the server.
type ServerError struct {
	Status  int
	Kind    string
	Message string
	Details string
	Fields  []string
}

func (e *ServerError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

type apiResponse struct {
	Success bool                `json:"success"`
	Data    []models.Reflection `json:"data"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details string              `json:"details"`
	Fields  []string            `json:"fields"`
}

// HTTPSubmitter posts JSON when there is no file and multipart when there is.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSubmitter targets baseURL (e.g. http://localhost:8080). A nil client
// gets a 60s timeout.
func NewHTTPSubmitter(baseURL string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSubmitter{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, req Request) (*models.Reflection, error) {
	body, contentType, err := encode(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+ReflectionsPath, body)
	if err != nil {
		return nil, fmt.Errorf("form: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("form: send: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &ServerError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("form: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !decoded.Success {
		msg := decoded.Message
		if msg == "" {
			msg = "Failed to save reflection"
		}
		return nil, &ServerError{
			Status:  resp.StatusCode,
			Kind:    decoded.Error,
			Message: msg,
			Details: decoded.Details,
			Fields:  decoded.Fields,
		}
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("form: response carried no record")
	}
	return &decoded.Data[0], nil
}

func encode(req Request) (io.Reader, string, error) {
	if req.File == nil {
		payload := map[string]string{
			"email":        req.Email,
			"neighborhood": req.Neighborhood,
			"reflection":   req.Reflection,
		}
		if req.Title != "" {
			payload["title"] = req.Title
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("form: encode json: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"email", req.Email},
		{"neighborhood", req.Neighborhood},
		{"reflection", req.Reflection},
	}
	if req.Title != "" {
		fields = append(fields, [2]string{"title", req.Title})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("form: encode multipart: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "photo",
		"filename": req.File.Name,
	}))
	h.Set("Content-Type", req.File.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("form: encode multipart: %w", err)
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, "", fmt.Errorf("form: encode multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("form: encode multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

package linkedin

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate"

	navigatePath = "/session/navigate"
	searchPath   = "/session/search"
	nextPagePath = "/session/next"
)

// BridgeSession talks to a companion browser agent over localhost HTTP. The
// agent owns the persistent authenticated Chrome profile; this client only
// asks it to navigate and hands back rendered HTML. Implements Session.
type BridgeSession struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	logger *zap.Logger
}

type bridgeRequest struct {
	URL         string `json:"url,omitempty"`
	Query       string `json:"query,omitempty"`
	PastCompany string `json:"past_company,omitempty"`
}

type bridgeResponse struct {
	Content   string `json:"content"`
	Exhausted bool   `json:"exhausted,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewBridgeSession creates a Session backed by the browser agent at baseURL.
// The timeout is generous because the agent waits for dynamic content to
// settle before returning.
func NewBridgeSession(baseURL string, logger *zap.Logger) *BridgeSession {
	return &BridgeSession{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		UserAgent: "talentscout",
		logger:    logger,
	}
}

func (s *BridgeSession) Navigate(ctx context.Context, url string) (string, error) {
	resp, err := s.post(ctx, navigatePath, &bridgeRequest{URL: url})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *BridgeSession) Search(ctx context.Context, query, pastCompany string) (string, error) {
	resp, err := s.post(ctx, searchPath, &bridgeRequest{Query: query, PastCompany: pastCompany})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *BridgeSession) NextPage(ctx context.Context) (string, error) {
	resp, err := s.post(ctx, nextPagePath, &bridgeRequest{})
	if err != nil {
		return "", err
	}
	if resp.Exhausted {
		return "", ErrNoMorePages
	}
	return resp.Content, nil
}

func (s *BridgeSession) post(ctx context.Context, path string, payload *bridgeRequest) (*bridgeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := s.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("User-Agent", s.UserAgent)

	if s.logger != nil {
		s.logger.Debug("browser bridge request", zap.String("url", url))
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browser bridge: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browser bridge: bad status: %s", resp.Status)
	}

	var parsed bridgeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("browser bridge: decode response: %w", err)
	}

	if parsed.Error != "" {
		return nil, fmt.Errorf("browser bridge: %s", parsed.Error)
	}

	return &parsed, nil
}

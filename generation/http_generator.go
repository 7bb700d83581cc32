package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrMissingConfig = errors.New("generation endpoint URL and service key are required")

// HTTPGenerator calls the article generation edge function.
type HTTPGenerator struct {
	url    string
	key    string
	client *http.Client
}

func NewHTTPGenerator(url, serviceKey string, client *http.Client) (*HTTPGenerator, error) {
	url = strings.TrimSpace(url)
	serviceKey = strings.TrimSpace(serviceKey)
	if url == "" || serviceKey == "" {
		return nil, ErrMissingConfig
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPGenerator{url: url, key: serviceKey, client: client}, nil
}

func (g *HTTPGenerator) Generate(ctx context.Context, voteID uint) error {
	body, err := json.Marshal(map[string]uint{"voteId": voteID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.key)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call generation endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/noah-isme/cd-sync-api/pkg/config"
	"github.com/noah-isme/cd-sync-api/pkg/httpclient"
)

// Zoom registers attendees with the Zoom webinar API.
type Zoom struct {
	cfg    config.ZoomConfig
	client *http.Client
}

// NewZoom constructs the registrar.
func NewZoom(cfg config.ZoomConfig) *Zoom {
	return &Zoom{
		cfg:    cfg,
		client: httpclient.New(0, cfg.Timeout),
	}
}

// Register adds a registrant to the given webinar. A reported failure status
// and a transport error are equivalent to the caller.
func (z *Zoom) Register(ctx context.Context, webinarID, email, firstName, lastName string) error {
	payload := map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal registrant: %w", err)
	}

	endpoint := fmt.Sprintf("%s/webinars/%s/registrants", z.cfg.BaseURL, url.PathEscape(webinarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+z.cfg.Token)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zoom registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("zoom registration failed with status %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Status == "failed" {
		return fmt.Errorf("zoom registration reported failure for %s", email)
	}
	return nil
}

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

// GotoWebinar registers attendees with the GotoWebinar REST API.
type GotoWebinar struct {
	cfg    config.GotoWebinarConfig
	client *http.Client
}

// NewGotoWebinar constructs the registrar.
func NewGotoWebinar(cfg config.GotoWebinarConfig) *GotoWebinar {
	return &GotoWebinar{
		cfg:    cfg,
		client: httpclient.New(0, cfg.Timeout),
	}
}

// Register adds a registrant to the given webinar. Any non-2xx response is a
// registration failure.
func (g *GotoWebinar) Register(ctx context.Context, webinarKey, companyName, email, firstName, lastName string) error {
	payload := map[string]string{
		"firstName":   firstName,
		"lastName":    lastName,
		"email":       email,
		"companyName": companyName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal registrant: %w", err)
	}

	endpoint := fmt.Sprintf("%s/webinars/%s/registrants", g.cfg.BaseURL, url.PathEscape(webinarKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gotowebinar registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("gotowebinar registration failed with status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

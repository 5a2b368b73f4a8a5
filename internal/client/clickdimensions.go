package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/cd-sync-api/internal/models"
	"github.com/noah-isme/cd-sync-api/pkg/config"
	appErrors "github.com/noah-isme/cd-sync-api/pkg/errors"
	"github.com/noah-isme/cd-sync-api/pkg/httpclient"
)

const submitUserAgent = "cd-sync-api"

// SubmitResult is the raw outcome of a form delivery attempt.
type SubmitResult struct {
	StatusCode int
	Location   string
	Body       string
}

// ClickDimensions talks to the remote marketing-automation endpoint: schema
// fetches for validation and the actual form capture POST.
type ClickDimensions struct {
	cfg config.ClickDimensionsConfig

	// The submit client never follows redirects; the 302 target is the
	// success/failure signal.
	submitClient *http.Client
	apiClient    *http.Client
}

// NewClickDimensions constructs the adapter.
func NewClickDimensions(cfg config.ClickDimensionsConfig) *ClickDimensions {
	return &ClickDimensions{
		cfg:          cfg,
		submitClient: httpclient.NewNoRedirect(cfg.ConnectTimeout, 0),
		apiClient:    httpclient.New(cfg.ConnectTimeout, cfg.FrontendTimeout),
	}
}

// GetCaptureFields fetches the capture-field definitions of one remote form.
func (c *ClickDimensions) GetCaptureFields(ctx context.Context, captureFormKey string) ([]models.CaptureField, error) {
	var fields []models.CaptureField
	endpoint := fmt.Sprintf("%s/api/forms/capture-fields/%s", c.cfg.BaseURL, url.PathEscape(captureFormKey))
	if err := c.getJSON(ctx, endpoint, &fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSchemaFetch.Code, appErrors.ErrSchemaFetch.Status, "failed to fetch capture fields")
	}
	return fields, nil
}

// GetAllFields fetches the account-wide form field definitions.
func (c *ClickDimensions) GetAllFields(ctx context.Context) (models.FormFieldMap, error) {
	var fields models.FormFieldMap
	endpoint := c.cfg.BaseURL + "/api/forms/fields"
	if err := c.getJSON(ctx, endpoint, &fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSchemaFetch.Code, appErrors.ErrSchemaFetch.Status, "failed to fetch form fields")
	}
	return fields, nil
}

// Submit posts the payload to the remote capture endpoint and returns the
// raw response. The timeout bounds the whole call; redirects are surfaced,
// not followed.
func (c *ClickDimensions) Submit(ctx context.Context, captureFormKey string, data models.FormData, referer string, timeout time.Duration) (*SubmitResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	form := url.Values{}
	for key, value := range data {
		form.Set(key, value)
	}

	endpoint := fmt.Sprintf("%s/forms/h/%s", c.cfg.BaseURL, url.PathEscape(captureFormKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", submitUserAgent)

	resp, err := c.submitClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	return &SubmitResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
		Body:       string(body),
	}, nil
}

func (c *ClickDimensions) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/pkg/config"
	"github.com/noah-isme/cd-sync-api/pkg/httpclient"
)

// VerifyResult is the bot-score verdict for an intake request.
type VerifyResult struct {
	Accepted bool
	Score    float64
}

// Recaptcha verifies captcha tokens against the remote siteverify endpoint.
type Recaptcha struct {
	cfg    config.RecaptchaConfig
	client *http.Client
	logger *zap.Logger
}

// NewRecaptcha constructs the verifier.
func NewRecaptcha(cfg config.RecaptchaConfig, logger *zap.Logger) *Recaptcha {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recaptcha{
		cfg:    cfg,
		client: httpclient.New(0, cfg.Timeout),
		logger: logger,
	}
}

// Verify checks the token for the given remote address. A missing token or a
// transport failure yields a rejected verdict rather than an error; the
// caller only needs the accept/score pair.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (VerifyResult, error) {
	if token == "" {
		r.logger.Sugar().Warnw("captcha token missing", "ip", remoteIP)
		return VerifyResult{}, nil
	}

	form := url.Values{}
	form.Set("secret", r.cfg.Secret)
	form.Set("response", token)
	form.Set("remoteip", remoteIP)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Sugar().Warnw("captcha verification unreachable", "error", err)
		return VerifyResult{}, nil
	}
	defer resp.Body.Close()

	var payload struct {
		Success    bool     `json:"success"`
		Score      float64  `json:"score"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return VerifyResult{}, fmt.Errorf("decode verify response: %w", err)
	}

	if !payload.Success {
		r.logger.Sugar().Warnw("captcha rejected", "ip", remoteIP, "errors", payload.ErrorCodes)
		return VerifyResult{}, nil
	}

	return VerifyResult{Accepted: true, Score: payload.Score}, nil
}

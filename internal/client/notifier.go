package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cd-sync-api/pkg/config"
	"github.com/noah-isme/cd-sync-api/pkg/httpclient"
)

// Notifier delivers operator notifications to a webhook. Sends are
// fire-and-forget: failures are logged, never propagated.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
	logger *zap.Logger
}

// NewNotifier constructs the sink. With an empty webhook URL every Send is a
// logged no-op.
func NewNotifier(cfg config.NotifyConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		cfg:    cfg,
		client: httpclient.New(0, cfg.Timeout),
		logger: logger,
	}
}

// Send posts a subject/message pair to the webhook.
func (n *Notifier) Send(ctx context.Context, subject, message string) {
	if n == nil {
		return
	}
	subject = strings.TrimSpace(n.cfg.SubjectPrefix + " " + subject)
	if n.cfg.WebhookURL == "" {
		n.logger.Sugar().Infow("notification skipped, no webhook configured", "subject", subject)
		return
	}

	body, err := json.Marshal(map[string]string{"subject": subject, "message": message})
	if err != nil {
		n.logger.Sugar().Warnw("notification marshal failed", "subject", subject, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Sugar().Warnw("notification request build failed", "subject", subject, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Sugar().Warnw("notification delivery failed", "subject", subject, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Sugar().Warnw("notification rejected", "subject", subject, "status", resp.StatusCode)
	}
}

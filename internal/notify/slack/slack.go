// Package slack notifies a Slack channel about high-risk triage
// outcomes via an incoming webhook, so clinical staff see escalations
// without polling the dashboard.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/triageai/internal/triage"
)

const httpTimeout = 10 * time.Second

// Notifier posts triage records to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Slack notifier. If webhookURL is empty, Notify is a
// no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Notify implements triage.Notifier.
func (n *Notifier) Notify(ctx context.Context, rec *triage.Record) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(rec))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(rec *triage.Record) map[string]any {
	decidedBy := "statistical model"
	if rec.RuleTriggered != "" {
		decidedBy = "clinical rule " + rec.RuleTriggered
	}

	return map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf(":rotating_light: %s risk triage - %s", rec.RiskLevel, rec.Department),
				},
			},
			{
				"type": "section",
				"fields": []map[string]any{
					mrkdwn("*Patient:* %s", rec.PatientID),
					mrkdwn("*Age / Gender:* %d / %s", rec.Patient.Age, rec.Patient.Gender),
					mrkdwn("*Symptoms:* %s", strings.Join(rec.Patient.Symptoms, ", ")),
					mrkdwn("*Decided by:* %s", decidedBy),
					mrkdwn("*Confidence:* %.2f", rec.Confidence),
				},
			},
			{
				"type": "section",
				"text": mrkdwn("%s", rec.Explanation),
			},
		},
	}
}

func mrkdwn(format string, args ...any) map[string]any {
	return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf(format, args...)}
}

// Package claude generates natural-language triage explanations with
// the Anthropic API. It implements triage.Explainer; the caller owns
// the fallback when a call fails.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/triageai/internal/patient"
	"github.com/linnemanlabs/triageai/internal/triage"
)

const (
	responseTokens = 512
	// Explanation is the only external call on the triage path with its
	// own deadline policy; the pipeline falls back to the template when
	// this expires.
	requestTimeout = 30 * time.Second
)

const systemPrompt = `You are a medical AI assistant helping explain patient triage decisions to healthcare professionals.
Generate a concise, professional 2-3 sentence explanation of the triage classification.
Mention the most critical factors and any immediate recommendations.
Use medical terminology appropriately but remain clear. Do not use markdown formatting.`

// Client calls the Anthropic Messages API for explanation text.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude explanation client with the given API key and
// model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
		),
		model: model,
	}
}

// Explain implements triage.Explainer with a single-shot message.
func (c *Client) Explain(ctx context.Context, req *triage.ExplainRequest) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(req))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("claude: empty response")
	}
	return text, nil
}

// buildPrompt renders the structured patient profile and decision the
// model explains. Absent vitals are reported as not measured rather
// than omitted, so the model does not invent values.
func buildPrompt(req *triage.ExplainRequest) string {
	p := req.Patient

	ruleLine := "None (statistical model prediction)"
	if req.RuleName != "" {
		ruleLine = req.RuleName
	}

	conditions := "None"
	if len(p.PreExisting) > 0 {
		conditions = strings.Join(p.PreExisting, ", ")
	}

	return fmt.Sprintf(`Patient Profile:
- Age: %d years old
- Gender: %s
- Symptoms: %s
- Vital Signs:
  * Blood Pressure: %s mmHg
  * Heart Rate: %s bpm
  * Temperature: %s C
  * SpO2: %s%%
- Pre-existing Conditions: %s

Triage Decision:
- Risk Level: %s
- Recommended Department: %s
- Clinical Rule Triggered: %s

Top Contributing Factors (from explainable AI):
%s

Explain why this patient was classified as %s risk.`,
		p.Age,
		p.Gender,
		strings.Join(p.Symptoms, ", "),
		bloodPressure(p),
		intVital(p.HeartRate),
		floatVital(p.Temperature),
		floatVital(p.SpO2),
		conditions,
		req.RiskLevel,
		req.Department,
		ruleLine,
		formatFactors(req.TopFactors),
		req.RiskLevel,
	)
}

func formatFactors(factors []triage.TopFactor) string {
	if len(factors) == 0 {
		return "None available"
	}
	lines := make([]string, 0, len(factors))
	for i, f := range factors {
		lines = append(lines, fmt.Sprintf("%d. %s (%s risk, contribution: %.2f)",
			i+1, f.Feature, f.Direction, f.Contribution))
	}
	return strings.Join(lines, "\n")
}

func bloodPressure(p *patient.Input) string {
	if p.BPSystolic == nil || p.BPDiastolic == nil {
		return "not measured"
	}
	return fmt.Sprintf("%d/%d", *p.BPSystolic, *p.BPDiastolic)
}

func intVital(v *int) string {
	if v == nil {
		return "not measured"
	}
	return fmt.Sprintf("%d", *v)
}

func floatVital(v *float64) string {
	if v == nil {
		return "not measured"
	}
	return fmt.Sprintf("%.1f", *v)
}

// Package classifier adapts the frozen statistical risk model to the
// triage pipeline: artifact loading, feature scaling, class
// probabilities, and best-effort per-feature attribution.
package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/linnemanlabs/triageai/internal/triage"
)

// Scaler holds the standardization parameters applied at training time.
// Prediction must apply the identical transform: (x - Mean) / Scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Bundle is the frozen model artifact produced by the offline training
// pipeline: a multinomial logistic model plus the scaler, class label
// order, and the symptom/condition vocabularies the feature schema is
// derived from. Loaded once at startup and treated as immutable for the
// process lifetime.
type Bundle struct {
	Version    int         `json:"version"`
	Classes    []string    `json:"classes"`
	Scaler     Scaler      `json:"scaler"`
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
	Symptoms   []string    `json:"symptoms"`
	Conditions []string    `json:"conditions"`
}

// Load reads and validates a model bundle from a JSON artifact file.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config, not user input
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse model bundle %s: %w", path, err)
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model bundle %s: %w", path, err)
	}

	return &b, nil
}

// Validate checks the bundle's internal consistency: class labels are
// known risk levels and every matrix dimension agrees with the feature
// schema derived from the embedded vocabularies. A dimension mismatch
// here would otherwise corrupt predictions silently.
func (b *Bundle) Validate() error {
	if len(b.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	for _, c := range b.Classes {
		if !triage.RiskLevel(c).Valid() {
			return fmt.Errorf("unknown class label %q", c)
		}
	}

	n := len(triage.NewEncoder(b.Symptoms, b.Conditions).Schema())

	if len(b.Scaler.Mean) != n || len(b.Scaler.Scale) != n {
		return fmt.Errorf("scaler has %d/%d parameters, feature schema has %d columns",
			len(b.Scaler.Mean), len(b.Scaler.Scale), n)
	}
	for i, s := range b.Scaler.Scale {
		if s == 0 {
			return fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}

	if len(b.Weights) != len(b.Classes) {
		return fmt.Errorf("weights have %d rows, want %d classes", len(b.Weights), len(b.Classes))
	}
	for i, row := range b.Weights {
		if len(row) != n {
			return fmt.Errorf("weights row %d has %d columns, feature schema has %d", i, len(row), n)
		}
	}
	if len(b.Intercepts) != len(b.Classes) {
		return fmt.Errorf("intercepts have %d entries, want %d classes", len(b.Intercepts), len(b.Classes))
	}

	return nil
}

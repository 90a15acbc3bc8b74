package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/triageai/internal/triage"
)

const maxTopFactors = 3

// Classifier implements triage.Classifier over a loaded Bundle. All
// state is read-only after construction, so concurrent Predict calls
// need no locking.
type Classifier struct {
	bundle   *Bundle
	weights  *mat.Dense // classes x features
	features []string   // schema order shared with the encoder
	logger   log.Logger
}

// New builds a classifier from a validated bundle. The feature name
// list is taken from the same encoder schema the bundle was validated
// against, so display names always line up with vector columns.
func New(bundle *Bundle, logger log.Logger) (*Classifier, error) {
	if logger == nil {
		logger = log.Nop()
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	features := triage.NewEncoder(bundle.Symptoms, bundle.Conditions).Schema()

	w := mat.NewDense(len(bundle.Classes), len(features), nil)
	for i, row := range bundle.Weights {
		w.SetRow(i, row)
	}

	return &Classifier{
		bundle:   bundle,
		weights:  w,
		features: features,
		logger:   logger,
	}, nil
}

// Ready reports whether the model artifacts are loaded.
func (c *Classifier) Ready() bool {
	return c != nil && c.bundle != nil
}

// Predict scales the raw feature vector with the training-time scaler,
// computes class probabilities, and returns the argmax class with its
// probability as confidence plus up to three ranked attribution
// factors. Attribution is best-effort: on failure the classification is
// still returned with an empty factor list.
func (c *Classifier) Predict(features []float64) (*triage.Prediction, error) {
	if !c.Ready() {
		return nil, triage.ErrModelUnavailable
	}
	if len(features) != len(c.features) {
		return nil, fmt.Errorf("feature vector has %d columns, schema has %d", len(features), len(c.features))
	}

	scaled := make([]float64, len(features))
	for i, x := range features {
		scaled[i] = (x - c.bundle.Scaler.Mean[i]) / c.bundle.Scaler.Scale[i]
	}

	probs := c.probabilities(scaled)
	idx := floats.MaxIdx(probs)

	factors, err := c.topFactors(idx, scaled)
	if err != nil {
		c.logger.Warn(context.Background(), "attribution failed, returning prediction without factors", "error", err)
		factors = nil
	}

	return &triage.Prediction{
		RiskLevel:  triage.RiskLevel(c.bundle.Classes[idx]),
		Confidence: probs[idx],
		TopFactors: factors,
	}, nil
}

// probabilities computes softmax(W·x + b) with the usual max-shift for
// numerical stability.
func (c *Classifier) probabilities(scaled []float64) []float64 {
	var z mat.VecDense
	z.MulVec(c.weights, mat.NewVecDense(len(scaled), scaled))

	logits := make([]float64, len(c.bundle.Classes))
	for i := range logits {
		logits[i] = z.AtVec(i) + c.bundle.Intercepts[i]
	}

	shift := floats.Max(logits)
	for i, l := range logits {
		logits[i] = math.Exp(l - shift)
	}
	floats.Scale(1/floats.Sum(logits), logits)

	return logits
}

// topFactors ranks the signed per-column contributions to the predicted
// class (weight times scaled value, exact for a linear model) and
// returns the strongest three with sign-derived direction.
func (c *Classifier) topFactors(class int, scaled []float64) ([]triage.TopFactor, error) {
	contribs := make([]float64, len(scaled))
	for j, x := range scaled {
		contribs[j] = c.weights.At(class, j) * x
		if math.IsNaN(contribs[j]) || math.IsInf(contribs[j], 0) {
			return nil, fmt.Errorf("non-finite contribution for feature %s", c.features[j])
		}
	}

	order := make([]int, len(contribs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(contribs[order[a]]) > math.Abs(contribs[order[b]])
	})

	n := maxTopFactors
	if len(order) < n {
		n = len(order)
	}

	factors := make([]triage.TopFactor, 0, n)
	for _, j := range order[:n] {
		direction := triage.DirectionIncreases
		if contribs[j] < 0 {
			direction = triage.DirectionDecreases
		}
		factors = append(factors, triage.TopFactor{
			Feature:      displayName(c.features[j]),
			Contribution: math.Abs(contribs[j]),
			Direction:    direction,
		})
	}

	return factors, nil
}

// displayName formats a schema column for humans: underscores to
// spaces, each word title-cased ("bp_systolic" -> "Bp Systolic").
func displayName(feature string) string {
	words := strings.Split(feature, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

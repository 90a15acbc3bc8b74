package classifier

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	b, err := Load(filepath.Join("testdata", "model.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if b.Version != 3 {
		t.Errorf("version = %d, want 3", b.Version)
	}
	if diff := cmp.Diff([]string{"LOW", "MEDIUM", "HIGH"}, b.Classes); diff != "" {
		t.Errorf("classes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"chest_pain", "fever"}, b.Symptoms); diff != "" {
		t.Errorf("symptoms (-want +got):\n%s", diff)
	}
	if len(b.Weights) != 3 || len(b.Weights[0]) != 14 {
		t.Errorf("weights shape = %dx%d, want 3x14", len(b.Weights), len(b.Weights[0]))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join("testdata", "no_such_model.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestBundleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Bundle)
		want   string
	}{
		{"no classes", func(b *Bundle) { b.Classes = nil }, "no classes"},
		{"unknown class", func(b *Bundle) { b.Classes[0] = "CRITICAL" }, "unknown class"},
		{"scaler dims", func(b *Bundle) { b.Scaler.Mean = b.Scaler.Mean[:5] }, "scaler"},
		{"zero scale", func(b *Bundle) { b.Scaler.Scale[3] = 0 }, "scale[3] is zero"},
		{"weight rows", func(b *Bundle) { b.Weights = b.Weights[:2] }, "weights have 2 rows"},
		{"weight columns", func(b *Bundle) { b.Weights[1] = b.Weights[1][:4] }, "weights row 1"},
		{"intercepts", func(b *Bundle) { b.Intercepts = b.Intercepts[:1] }, "intercepts"},
		{
			// Growing the vocabulary grows the schema, so every
			// matrix dimension stops matching.
			"vocabulary drift",
			func(b *Bundle) { b.Symptoms = append(b.Symptoms, "cough") },
			"scaler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := testBundle()
			tt.mutate(b)

			err := b.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q missing %q", err, tt.want)
			}
		})
	}
}

func TestBundleValidate_OK(t *testing.T) {
	t.Parallel()

	if err := testBundle().Validate(); err != nil {
		t.Errorf("valid bundle rejected: %v", err)
	}
}

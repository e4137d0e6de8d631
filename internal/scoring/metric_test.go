package scoring

import (
	"math"
	"testing"

	"forecast-lab/internal/domain"
)

func TestScore_Brier(t *testing.T) {
	cases := []struct {
		p, r, want float64
	}{
		{1.0, 1.0, 0.0},
		{0.0, 1.0, 1.0},
		{0.5, 1.0, 0.25},
		{0.8, 0.0, 0.64},
		{0.7, 0.5, 0.04},
	}
	for _, c := range cases {
		got, err := Score(domain.MetricBrier, c.p, c.r)
		if err != nil {
			t.Fatalf("Score(brier, %f, %f): %v", c.p, c.r, err)
		}
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("brier(%f, %f) = %f, want %f", c.p, c.r, got, c.want)
		}
	}
}

func TestScore_LogarithmicCorners(t *testing.T) {
	// Certain and wrong clamps to the most negative finite value.
	for _, c := range [][2]float64{{0, 1}, {1, 0}} {
		got, err := Score(domain.MetricLogarithmic, c[0], c[1])
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if got != -math.MaxFloat64 {
			t.Errorf("log(%f, %f) = %g, want -MaxFloat64", c[0], c[1], got)
		}
	}

	// Certain and right is exactly zero.
	for _, c := range [][2]float64{{1, 1}, {0, 0}} {
		got, err := Score(domain.MetricLogarithmic, c[0], c[1])
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if got != 0 {
			t.Errorf("log(%f, %f) = %g, want 0", c[0], c[1], got)
		}
	}

	// Certain prediction against a fractional outcome is still finite.
	got, err := Score(domain.MetricLogarithmic, 0, 0.5)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("log(0, 0.5) = %g, want finite", got)
	}
}

func TestScore_LogarithmicInterior(t *testing.T) {
	got, err := Score(domain.MetricLogarithmic, 0.8, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := math.Log(0.8)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("log(0.8, 1) = %f, want %f", got, want)
	}
}

func TestScore_Spherical(t *testing.T) {
	got, err := Score(domain.MetricSpherical, 0.5, 1.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := 0.5 / math.Sqrt(0.5)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("spherical(0.5, 1) = %f, want %f", got, want)
	}

	// Perfect confident prediction scores 1.
	got, _ = Score(domain.MetricSpherical, 1.0, 1.0)
	if got != 1.0 {
		t.Errorf("spherical(1, 1) = %f, want 1", got)
	}
}

func TestInvert_RoundTripsWithinTolerance(t *testing.T) {
	probs := []float64{0.05, 0.2, 0.35, 0.5, 0.65, 0.8, 0.95}
	for _, m := range domain.AllMetrics {
		for _, p := range probs {
			score, err := Score(m, p, 1.0)
			if err != nil {
				t.Fatalf("Score(%s, %f, 1): %v", m, p, err)
			}
			got, err := Invert(m, score)
			if err != nil {
				t.Fatalf("Invert(%s, %f): %v", m, score, err)
			}
			if math.Abs(got-p) > 1e-4 {
				t.Errorf("Invert(%s, Score(%f)) = %f, want %f", m, p, got, p)
			}
		}
	}
}

func TestInvert_SphericalBounds(t *testing.T) {
	if got, _ := Invert(domain.MetricSpherical, 1.0); got != 1.0 {
		t.Errorf("Invert(spherical, 1) = %f, want 1", got)
	}
	if got, _ := Invert(domain.MetricSpherical, 0.0); got != 0.0 {
		t.Errorf("Invert(spherical, 0) = %f, want 0", got)
	}
}

func TestScore_UnknownMetric(t *testing.T) {
	if _, err := Score(domain.Metric("quadratic"), 0.5, 1.0); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := Invert(domain.Metric("quadratic"), 0.5); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestHigherIsBetter(t *testing.T) {
	if HigherIsBetter(domain.MetricBrier) {
		t.Error("brier is an error metric: lower is better")
	}
	if !HigherIsBetter(domain.MetricLogarithmic) || !HigherIsBetter(domain.MetricSpherical) {
		t.Error("log and spherical are reward metrics: higher is better")
	}
}

package audio

import (
	"math"
	"math/rand"
	"testing"
)

func TestApplyGain_IdentityAtUnitVolume(t *testing.T) {
	samples := []float32{-0.8, -0.25, 0, 0.25, 0.8}

	out := ApplyGain(samples, 1.0)

	if &out[0] != &samples[0] {
		t.Error("volume 1.0 should return the input slice unchanged")
	}
	for i := range samples {
		if out[i] != samples[i] {
			t.Errorf("sample %d changed: %f -> %f", i, samples[i], out[i])
		}
	}
}

func TestApplyGain_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(1000) + 1
		samples := make([]float32, n)
		for i := range samples {
			samples[i] = rng.Float32()*2 - 1
		}
		volume := 0.5 + rng.Float64()*2.5

		out := ApplyGain(samples, volume)

		if len(out) != len(samples) {
			t.Fatalf("length changed: %d -> %d", len(samples), len(out))
		}
		for i, got := range out {
			expected := float64(samples[i]) * volume
			if expected > 1.0 {
				expected = 1.0
			} else if expected < -1.0 {
				expected = -1.0
			}
			if math.Abs(float64(got)-expected) > 1e-6 {
				t.Fatalf("sample %d: got %f, want %f (volume %f)", i, got, expected, volume)
			}
			if got > 1.0 || got < -1.0 {
				t.Fatalf("sample %d out of range after clipping: %f", i, got)
			}
		}
	}
}

func TestApplyGain_Clipping(t *testing.T) {
	samples := []float32{0.9, -0.9, 0.5}

	out := ApplyGain(samples, 3.0)

	if out[0] != 1.0 {
		t.Errorf("expected positive clip to 1.0, got %f", out[0])
	}
	if out[1] != -1.0 {
		t.Errorf("expected negative clip to -1.0, got %f", out[1])
	}
	if math.Abs(float64(out[2])-1.0) > 1e-6 {
		t.Errorf("0.5 * 3.0 should clip to 1.0, got %f", out[2])
	}
}

func TestApplyGain_DoesNotMutateInput(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	ApplyGain(samples, 2.0)

	if samples[0] != 0.1 || samples[1] != 0.2 || samples[2] != 0.3 {
		t.Error("input slice was mutated")
	}
}

func TestApplyGain_Empty(t *testing.T) {
	out := ApplyGain(nil, 2.0)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d samples", len(out))
	}
}

package game

import (
	"testing"

	"github.com/pthm-cable/showfx/noise"
	"github.com/pthm-cable/showfx/renderer"
	"github.com/pthm-cable/showfx/smoke"
)

func TestShaderSupports(t *testing.T) {
	withFBM := func(fbm noise.FBM) smoke.Params {
		p := smoke.DefaultParams()
		p.FBM = noise.NewFBM(fbm)
		return p
	}
	tests := []struct {
		name string
		p    smoke.Params
		want bool
	}{
		{"defaults", smoke.DefaultParams(), true},
		{"three octaves", withFBM(noise.FBM{Octaves: 3}), true},
		{"octave limit", withFBM(noise.FBM{Octaves: renderer.MaxOctaves}), true},
		{"too many octaves", withFBM(noise.FBM{Octaves: renderer.MaxOctaves + 1}), false},
		{"simplex", withFBM(noise.FBM{Octaves: 5, Basis: noise.NewSimplexBasis(1)}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShaderSupports(tt.p); got != tt.want {
				t.Errorf("ShaderSupports = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStepOpacity(t *testing.T) {
	tests := []struct {
		name     string
		o, delta float64
		want     float64
	}{
		{"up", 0.7, OpacityStep, 0.75},
		{"down", 0.7, -OpacityStep, 0.65},
		{"clamp high", 0.98, OpacityStep, 1},
		{"clamp low", 0.02, -OpacityStep, 0},
		{"snaps drift", 0.30000000000000004, OpacityStep, 0.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepOpacity(tt.o, tt.delta); got != tt.want {
				t.Errorf("StepOpacity(%v, %v) = %v, want %v", tt.o, tt.delta, got, tt.want)
			}
		})
	}
}

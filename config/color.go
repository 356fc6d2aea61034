package config

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Color is an RGB colour in the unit cube. In YAML it is written either as a
// "#rrggbb" string or as a [r, g, b] list of floats in [0, 1].
type Color struct {
	R, G, B float64
}

// Colorful converts c to a go-colorful colour.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Hex returns c as "#rrggbb".
func (c Color) Hex() string {
	return c.Colorful().Clamped().Hex()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		col, err := colorful.Hex(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: colour %q: %w", node.Line, node.Value, err)
		}
		*c = Color{R: col.R, G: col.G, B: col.B}
		return nil
	case yaml.SequenceNode:
		var v []float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: colour: %w", node.Line, err)
		}
		if len(v) != 3 {
			return fmt.Errorf("line %d: colour needs 3 components, got %d", node.Line, len(v))
		}
		for _, x := range v {
			if x < 0 || x > 1 {
				return fmt.Errorf("line %d: colour component %g outside [0, 1]", node.Line, x)
			}
		}
		*c = Color{R: v[0], G: v[1], B: v[2]}
		return nil
	default:
		return fmt.Errorf("line %d: colour must be a hex string or [r, g, b]", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler. Colours that survive a hex round
// trip are written as hex, others as float lists.
func (c Color) MarshalYAML() (any, error) {
	hex := c.Hex()
	if back, err := colorful.Hex(hex); err == nil && back.R == c.R && back.G == c.G && back.B == c.B {
		return hex, nil
	}
	return []float64{c.R, c.G, c.B}, nil
}

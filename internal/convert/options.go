package convert

import (
	"slices"
	"strings"

	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/agentic-research/wp2shopify/internal/shopify"
)

// Axis is an option dimension. The declaration order is the slot order.
type Axis int

const (
	Size Axis = iota
	Texture
	Thickness
)

// Axes lists every axis in slot order.
var Axes = []Axis{Size, Texture, Thickness}

// Name is the Shopify option name.
func (a Axis) Name() string {
	switch a {
	case Size:
		return "Size"
	case Texture:
		return "Texture"
	case Thickness:
		return "Thickness"
	default:
		return ""
	}
}

// Suffix is the attribute column suffix, as in meta:attribute_pa_<suffix>.
func (a Axis) Suffix() string {
	switch a {
	case Size:
		return "sizes"
	case Texture:
		return "texture"
	case Thickness:
		return "thickness"
	default:
		return ""
	}
}

func (a Axis) String() string { return a.Name() }

// ExtractOptions collects the sorted, de-duplicated values children supply for
// an axis, using the stock attribute column prefixes. An empty result means
// the axis is inactive.
func ExtractOptions(children []record.Record, axis Axis) []string {
	return extractOptions(children, axis, api.DefaultAttributePrefixes)
}

func extractOptions(children []record.Record, axis Axis, prefixes []string) []string {
	var values []string
	for _, child := range children {
		f := child.Attribute(prefixes, axis.Suffix())
		if f.Blank() {
			continue
		}
		for _, v := range strings.Split(f.Value, "|") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	slices.Sort(values)
	return slices.Compact(values)
}

// AxisValues is an active axis and its ordered values.
type AxisValues struct {
	Axis   Axis
	Values []string
}

// ActiveAxes extracts every axis in slot order and keeps the active ones.
func ActiveAxes(children []record.Record, prefixes []string) []AxisValues {
	var active []AxisValues
	for _, axis := range Axes {
		if values := extractOptions(children, axis, prefixes); len(values) > 0 {
			active = append(active, AxisValues{Axis: axis, Values: values})
		}
	}
	return active
}

// BaseCombination is the first value of every active axis.
func BaseCombination(axes []AxisValues) []string {
	combo := make([]string, len(axes))
	for i, a := range axes {
		combo[i] = a.Values[0]
	}
	return combo
}

// Combinations enumerates the Cartesian product of the axes, last axis
// varying fastest, without the base combination. No axes means no
// combinations.
func Combinations(axes []AxisValues) [][]string {
	if len(axes) == 0 {
		return nil
	}
	for _, a := range axes {
		if len(a.Values) == 0 {
			return nil
		}
	}

	var out [][]string
	idx := make([]int, len(axes))
	for {
		// Advance the odometer first: position 0 is the base combination.
		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i].Values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}

		combo := make([]string, len(axes))
		for j, a := range axes {
			combo[j] = a.Values[idx[j]]
		}
		out = append(out, combo)
	}
}

// OptionSlots pairs the active axes with a combination, filling slots 1..k.
func OptionSlots(axes []AxisValues, combo []string) []shopify.Option {
	n := min(len(axes), len(combo), shopify.MaxOptions)
	if n == 0 {
		return nil
	}
	opts := make([]shopify.Option, n)
	for i := 0; i < n; i++ {
		opts[i] = shopify.Option{Name: axes[i].Axis.Name(), Value: combo[i]}
	}
	return opts
}

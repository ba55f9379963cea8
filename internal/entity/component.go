package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

var ErrInvalidValue = errors.New("invalid component value")

type ComponentKind string

const (
	KindTextbox  ComponentKind = "textbox"
	KindDropdown ComponentKind = "dropdown"
	KindSlider   ComponentKind = "slider"
	KindNumber   ComponentKind = "number"
	KindCheckbox ComponentKind = "checkbox"
	KindFile     ComponentKind = "file"
)

// Component is a UI-bindable value cell. The registry owns it; only event
// handlers running on the UI loop mutate it.
type Component struct {
	Kind        ComponentKind `json:"kind"`
	Label       string        `json:"label"`
	Info        string        `json:"info,omitempty"`
	Value       any           `json:"value"`
	Choices     []string      `json:"choices,omitempty"`
	Min         float64       `json:"min,omitempty"`
	Max         float64       `json:"max,omitempty"`
	Step        float64       `json:"step,omitempty"`
	Integer     bool          `json:"integer,omitempty"`
	FileTypes   []string      `json:"file_types,omitempty"`
	Secret      bool          `json:"secret,omitempty"`
	Visible     bool          `json:"visible"`
	Interactive bool          `json:"interactive"`
	AllowCustom bool          `json:"allow_custom,omitempty"`
}

// Patch is a partial update produced by a reactive rule. Zero fields leave the
// component untouched.
type Patch struct {
	Value       any
	SetValue    bool
	Choices     []string
	SetChoices  bool
	Visible     *bool
	AllowCustom *bool
}

func (p Patch) WithValue(v any) Patch {
	p.Value = v
	p.SetValue = true

	return p
}

func (p Patch) WithChoices(choices []string) Patch {
	p.Choices = choices
	p.SetChoices = true

	return p
}

func (p Patch) WithVisible(visible bool) Patch {
	p.Visible = &visible

	return p
}

func (p Patch) WithAllowCustom(allow bool) Patch {
	p.AllowCustom = &allow

	return p
}

// Apply writes the patch without validating it against the choices; rules
// always produce consistent patches.
func (c *Component) Apply(p Patch) {
	if p.SetChoices {
		c.Choices = append([]string{}, p.Choices...)
	}

	if p.AllowCustom != nil {
		c.AllowCustom = *p.AllowCustom
	}

	if p.SetValue {
		c.Value = p.Value
	}

	if p.Visible != nil {
		c.Visible = *p.Visible
	}
}

// SetValue coerces v to the component's kind and stores it.
func (c *Component) SetValue(v any) error {
	switch c.Kind {
	case KindTextbox, KindFile:
		if v == nil {
			c.Value = ""

			return nil
		}

		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, c.Kind, v)
		}

		c.Value = s
	case KindDropdown:
		if v == nil {
			c.Value = nil

			return nil
		}

		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: dropdown expects a string, got %T", ErrInvalidValue, v)
		}

		if !c.AllowCustom && !slices.Contains(c.Choices, s) {
			return fmt.Errorf("%w: %q is not one of the choices", ErrInvalidValue, s)
		}

		c.Value = s
	case KindCheckbox:
		b, err := toBool(v)
		if err != nil {
			return err
		}

		c.Value = b
	case KindSlider, KindNumber:
		f, err := toFloat(v)
		if err != nil {
			return err
		}

		if c.Integer {
			f = math.Round(f)
		}

		if c.Kind == KindSlider && (f < c.Min || f > c.Max) {
			return fmt.Errorf("%w: %v is outside [%v, %v]", ErrInvalidValue, f, c.Min, c.Max)
		}

		c.Value = f
	default:
		return fmt.Errorf("%w: unknown component kind %q", ErrInvalidValue, c.Kind)
	}

	return nil
}

// Snapshot returns a copy safe to hand to readers outside the UI loop.
func (c *Component) Snapshot() Component {
	out := *c
	if c.Choices != nil {
		out.Choices = append([]string{}, c.Choices...)
	}

	if c.FileTypes != nil {
		out.FileTypes = append([]string{}, c.FileTypes...)
	}

	return out
}

func (c *Component) StringValue() string {
	s, _ := c.Value.(string)

	return s
}

func (c *Component) BoolValue() bool {
	b, _ := c.Value.(bool)

	return b
}

func (c *Component) FloatValue() float64 {
	f, _ := toFloat(c.Value)

	return f
}

func (c *Component) IntValue() int {
	return int(math.Round(c.FloatValue()))
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, b)
		}

		return parsed, nil
	default:
		return false, fmt.Errorf("%w: checkbox expects a boolean, got %T", ErrInvalidValue, v)
	}
}

func toFloat(v any) (float64, error) {
	var f float64

	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}

		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}

		f = parsed
	default:
		return 0, fmt.Errorf("%w: expected a number, got %T", ErrInvalidValue, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidValue, f)
	}

	return f, nil
}

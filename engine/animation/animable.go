package animation

import (
	"github.com/pkg/errors"
)

// AnimableValue is a property a numeric track can drive.
type AnimableValue interface {
	// Type returns the value type the property accepts.
	Type() ValueType

	// SetValue sets the property to an absolute value.
	SetValue(v Value) error

	// ApplyDelta composes a delta onto the current property value.
	ApplyDelta(delta Value) error

	// SetCurrentStateAsBaseValue records the current value as the base ResetToBaseValue restores.
	SetCurrentStateAsBaseValue()

	// ResetToBaseValue restores the recorded base value.
	ResetToBaseValue()
}

// Property is a named stand-alone AnimableValue.
type Property struct {
	name    string
	base    Value
	current Value
	onSet   func(Value)
}

var _ AnimableValue = &Property{}

// NewProperty creates a property whose base and current value are initial.
//
// Parameters:
//   - name: the property name
//   - initial: the starting value; its type fixes the property type
//   - onSet: optional callback invoked with every new current value
//
// Returns:
//   - *Property: the property
func NewProperty(name string, initial Value, onSet func(Value)) *Property {
	return &Property{name: name, base: initial, current: initial, onSet: onSet}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Value returns the current value.
func (p *Property) Value() Value {
	return p.current
}

// BaseValue returns the base value.
func (p *Property) BaseValue() Value {
	return p.base
}

func (p *Property) Type() ValueType {
	return p.current.typ
}

func (p *Property) SetValue(v Value) error {
	if v.typ != p.current.typ {
		return errors.Wrapf(ErrTypeMismatch, "property %q holds %s, got %s", p.name, p.current.typ, v.typ)
	}
	p.set(v)
	return nil
}

func (p *Property) ApplyDelta(delta Value) error {
	v, err := AddValues(p.current, delta)
	if err != nil {
		return errors.Wrapf(err, "property %q", p.name)
	}
	p.set(v)
	return nil
}

func (p *Property) SetCurrentStateAsBaseValue() {
	p.base = p.current
}

func (p *Property) ResetToBaseValue() {
	p.set(p.base)
}

func (p *Property) set(v Value) {
	p.current = v
	if p.onSet != nil {
		p.onSet(v)
	}
}

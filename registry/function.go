package registry

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/prashantdagar001/automation-api/errors"
)

type (
	// ParameterSpec describes one parameter of an automation function.
	ParameterSpec struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Default  any    `json:"default,omitempty"`
		Required bool   `json:"required"`
	}

	// Function is the capability every automation function implements.
	// Concrete modules register implementations at startup instead of being
	// discovered through reflection.
	Function interface {
		Name() string
		Description() string
		Parameters() []ParameterSpec
		Call(ctx context.Context, params map[string]any) (any, error)
	}

	// Module groups related functions under one name, the unit of
	// registration.
	Module interface {
		Name() string
		Functions() []Function
	}
)

type typedFunction[In any] struct {
	name        string
	description string
	params      []ParameterSpec
	fn          func(ctx context.Context, in In) (any, error)
}

// NewFunction builds a Function from a typed handler. The parameter schema
// is reflected from In's struct fields, so the registry and the handler can
// never disagree about parameter names.
func NewFunction[In any](name, description string, fn func(ctx context.Context, in In) (any, error)) Function {
	var in In
	return &typedFunction[In]{
		name:        name,
		description: description,
		params:      reflectParameters(in),
		fn:          fn,
	}
}

func (f *typedFunction[In]) Name() string                { return f.name }
func (f *typedFunction[In]) Description() string         { return f.description }
func (f *typedFunction[In]) Parameters() []ParameterSpec { return f.params }

func (f *typedFunction[In]) Call(ctx context.Context, params map[string]any) (any, error) {
	var in In
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &in,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := decoder.Decode(params); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "failed to decode parameters: %v", err)
	}

	return f.fn(ctx, in)
}

func reflectParameters(in any) []ParameterSpec {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(in)
	if schema == nil || schema.Properties == nil {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var specs []ParameterSpec
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		specs = append(specs, ParameterSpec{
			Name:     pair.Key,
			Type:     pair.Value.Type,
			Default:  pair.Value.Default,
			Required: required[pair.Key] && pair.Value.Default == nil,
		})
	}

	return specs
}

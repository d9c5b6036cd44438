package config

import (
	"context"
	"fmt"

	"github.com/cpcf/mirrorgen/render"
)

var pipelineFields = map[string]struct{}{
	"input":     {},
	"inputExt":  {},
	"output":    {},
	"outputExt": {},
	"exclude":   {},
	"render":    {},
}

// RendererLookup resolves renderer names used in configuration files.
type RendererLookup interface {
	Get(name string) (render.Renderer, bool)
}

// FromMap builds a Config from a loosely typed document such as a decoded
// YAML file. Each field is type-checked and validated before the next, in
// the order input, inputExt, output, outputExt, exclude, render; the first
// bad field is reported. A render value may be a render.Renderer or the
// name of one known to renderers.
func FromMap(m map[string]any, renderers RendererLookup) (*Config, error) {
	c := &Config{}

	input, err := optionalString(m, "input")
	if err != nil {
		return nil, err
	}
	c.setInput(input)

	inputExt, err := optionalString(m, "inputExt")
	if err != nil {
		return nil, err
	}
	if err := c.setInputExt(inputExt); err != nil {
		return nil, err
	}

	output, err := optionalString(m, "output")
	if err != nil {
		return nil, err
	}
	if err := c.setOutput(output); err != nil {
		return nil, err
	}

	outputExt, err := optionalString(m, "outputExt")
	if err != nil {
		return nil, err
	}
	if err := c.setOutputExt(outputExt); err != nil {
		return nil, err
	}

	exclude, err := optionalStrings(m, "exclude")
	if err != nil {
		return nil, err
	}
	if err := c.setExclude(exclude); err != nil {
		return nil, err
	}

	renderer, err := rendererField(m, renderers)
	if err != nil {
		return nil, err
	}
	if err := c.setRenderer(renderer); err != nil {
		return nil, err
	}

	return c, nil
}

func optionalString(m map[string]any, field string) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigError{Field: field, Reason: fmt.Sprintf("must be a string, got %T", v)}
	}
	return s, nil
}

func optionalStrings(m map[string]any, field string) ([]string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &ConfigError{Field: field, Reason: fmt.Sprintf("element %d must be a string, got %T", i, item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &ConfigError{Field: field, Reason: fmt.Sprintf("must be an array of strings, got %T", v)}
	}
}

func rendererField(m map[string]any, renderers RendererLookup) (render.Renderer, error) {
	switch v := m["render"].(type) {
	case nil:
		return nil, &ConfigError{Field: "render", Reason: "a renderer is required"}
	case render.Renderer:
		return v, nil
	case func(ctx context.Context, src []byte, filename string) ([]byte, error):
		return render.RenderFunc(v), nil
	case func(src []byte, filename string) ([]byte, error):
		return render.Simple(v), nil
	case string:
		if renderers == nil {
			return nil, &ConfigError{Field: "render", Reason: fmt.Sprintf("no renderer registry to resolve %q", v)}
		}
		r, ok := renderers.Get(v)
		if !ok {
			return nil, &ConfigError{Field: "render", Reason: fmt.Sprintf("unknown renderer %q", v)}
		}
		return r, nil
	default:
		return nil, &ConfigError{Field: "render", Reason: fmt.Sprintf("must be a renderer or renderer name, got %T", v)}
	}
}

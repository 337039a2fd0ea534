package cleaning

import (
	"fmt"
	"strings"

	"goclean/domain/core"
)

// Params carries the caller-supplied parameters of one operation. Malformed
// entries are local validation failures; the dispatcher never commits a
// partially validated transform.
type Params map[string]interface{}

// Float reads a numeric parameter, falling back when absent
func (p Params) Float(key string, fallback float64) (float64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch t := raw.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%g", &f); err != nil {
			return 0, core.NewInvalidParametersError(fmt.Sprintf("%s must be numeric, got %q", key, t))
		}
		return f, nil
	default:
		return 0, core.NewInvalidParametersError(fmt.Sprintf("%s must be numeric", key))
	}
}

// Int reads an integer parameter, falling back when absent
func (p Params) Int(key string, fallback int) (int, error) {
	f, err := p.Float(key, float64(fallback))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, core.NewInvalidParametersError(fmt.Sprintf("%s must be an integer", key))
	}
	return int(f), nil
}

// String reads a string parameter, falling back when absent
func (p Params) String(key, fallback string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", core.NewInvalidParametersError(fmt.Sprintf("%s must be a string", key))
	}
	return s, nil
}

// RequiredFloat reads a numeric parameter that must be present
func (p Params) RequiredFloat(key string) (float64, error) {
	if _, ok := p[key]; !ok {
		return 0, core.NewInvalidParametersError(fmt.Sprintf("%s is required", key))
	}
	return p.Float(key, 0)
}

// StringSlice reads a list-of-strings parameter; absent means nil
func (p Params) StringSlice(key string) ([]string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch t := raw.(type) {
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, core.NewInvalidParametersError(fmt.Sprintf("%s must be a list of strings", key))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, core.NewInvalidParametersError(fmt.Sprintf("%s must be a list of strings", key))
	}
}

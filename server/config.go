package server

import "dario.cat/mergo"

// Merge overlays the non-zero fields of overrides onto a copy of base and
// returns the result, letting a host start from DefaultPolicy and override
// only the handful of fields it cares about.
func Merge(base *Policy, overrides *Policy) (*Policy, error) {
	result := *base

	if overrides == nil {
		return &result, nil
	}

	if err := mergo.Merge(&result, overrides, mergo.WithOverride); err != nil {
		return nil, err
	}

	return &result, nil
}

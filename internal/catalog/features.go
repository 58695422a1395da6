// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// StringList decodes either a single YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements the go-yaml InterfaceUnmarshaler interface.
func (s *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*s = list
		return nil
	}

	var one string
	if err := unmarshal(&one); err != nil {
		return err
	}

	*s = StringList{one}

	return nil
}

// Feature maps a feature name to the daemons that implement it.
type Feature struct {
	Name    string     `yaml:"feature_name"`
	Desc    string     `yaml:"feature_desc"`
	Daemons StringList `yaml:"daemon"`
}

// FeatureMapping is the content of ops_featuremapping.yaml and ops_diagdump.yaml.
type FeatureMapping struct {
	Features []Feature `yaml:"values"`
}

// Lookup returns the named feature.
func (m *FeatureMapping) Lookup(name string) (Feature, error) {
	for _, f := range m.Features {
		if f.Name == name {
			return f, nil
		}
	}

	return Feature{}, newErrUnknownFeature("Feature", name)
}

// Validate checks that every feature is named, unique and has at least one daemon.
func (m *FeatureMapping) Validate() error {
	var result error

	seen := make(map[string]struct{}, len(m.Features))

	for i, f := range m.Features {
		if f.Name == "" {
			result = multierror.Append(result, fmt.Errorf("feature %d: missing feature_name", i))
			continue
		}

		if _, ok := seen[f.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("feature %s: duplicate feature_name", f.Name))
		}

		seen[f.Name] = struct{}{}

		if len(f.Daemons) == 0 {
			result = multierror.Append(result, fmt.Errorf("feature %s: no daemon", f.Name))
		}
	}

	return result
}

// FeatureMapping loads the vlog feature to daemon mapping.
func (c *Catalog) FeatureMapping() (*FeatureMapping, error) {
	return c.loadMapping(FeatureMappingFile)
}

// DiagFeatures loads the features that support diagnostic dumps.
func (c *Catalog) DiagFeatures() (*FeatureMapping, error) {
	return c.loadMapping(DiagDumpFile)
}

func (c *Catalog) loadMapping(name string) (*FeatureMapping, error) {
	m := &FeatureMapping{}
	if err := c.readYAML(name, m); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, name), err)
	}

	return m, nil
}

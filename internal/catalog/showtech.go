// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Flag is a yes/no catalog switch. The catalogs use "yes" and "true" interchangeably.
type Flag string

// Enabled returns def when the flag is unset.
func (f Flag) Enabled(def bool) bool {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "":
		return def
	case "yes", "true":
		return true
	default:
		return false
	}
}

// SubFeature groups show-tech commands below a feature.
type SubFeature struct {
	Name            string   `yaml:"sub_feature_name"`
	Desc            string   `yaml:"sub_feature_desc"`
	ShowTechAll     Flag     `yaml:"support_showtech_all"`
	ShowTechFeature Flag     `yaml:"support_showtech_feature"`
	Commands        []string `yaml:"cli_cmds"`
}

// InAll reports whether the sub feature runs as part of a full show-tech.
func (s *SubFeature) InAll() bool {
	return s.ShowTechAll.Enabled(true)
}

// InFeature reports whether the sub feature runs when its feature is requested.
func (s *SubFeature) InFeature() bool {
	return s.ShowTechFeature.Enabled(true)
}

// ShowTechFeature is one feature of the show-tech catalog. Commands listed directly on the
// feature run before those of its sub features.
type ShowTechFeature struct {
	Name        string       `yaml:"feature_name"`
	Desc        string       `yaml:"feature_desc"`
	Shell       StringList   `yaml:"shell"`
	Commands    []string     `yaml:"cli_cmds"`
	SubFeatures []SubFeature `yaml:"sub_feature"`
}

// SubFeature returns the named sub feature.
func (f *ShowTechFeature) SubFeature(name string) (*SubFeature, error) {
	for i := range f.SubFeatures {
		if f.SubFeatures[i].Name == name {
			return &f.SubFeatures[i], nil
		}
	}

	return nil, newErrUnknownFeature("Sub Feature", name)
}

// ShowTech is the content of ops_showtech.yaml or ops_showtech.hcl.
type ShowTech struct {
	Features []ShowTechFeature `yaml:"feature"`
}

// Lookup returns the named feature.
func (s *ShowTech) Lookup(name string) (*ShowTechFeature, error) {
	for i := range s.Features {
		if s.Features[i].Name == name {
			return &s.Features[i], nil
		}
	}

	return nil, newErrUnknownFeature("Feature", name)
}

// Validate checks names and commands of every feature and sub feature.
func (s *ShowTech) Validate() error {
	var result error

	seen := make(map[string]struct{}, len(s.Features))

	for i, f := range s.Features {
		if f.Name == "" {
			result = multierror.Append(result, fmt.Errorf("feature %d: missing feature_name", i))
			continue
		}

		if _, ok := seen[f.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("feature %s: duplicate feature_name", f.Name))
		}

		seen[f.Name] = struct{}{}

		result = appendEmptyCommands(result, f.Name, f.Commands)

		for j, sf := range f.SubFeatures {
			if sf.Name == "" {
				result = multierror.Append(result, fmt.Errorf("feature %s: sub feature %d: missing sub_feature_name", f.Name, j))
				continue
			}

			result = appendEmptyCommands(result, f.Name+"/"+sf.Name, sf.Commands)
		}
	}

	return result
}

func appendEmptyCommands(result error, owner string, cmds []string) error {
	for i, c := range cmds {
		if strings.TrimSpace(c) == "" {
			result = multierror.Append(result, fmt.Errorf("%s: command %d is empty", owner, i))
		}
	}

	return result
}

// ShowTech loads the show-tech catalog. An HCL catalog takes precedence over YAML and may
// reference the given variables as var.<name>.
func (c *Catalog) ShowTech(ctx context.Context, vars map[string]string) (*ShowTech, error) {
	var (
		st  *ShowTech
		err error
	)

	name := ShowTechFile

	if c.Exists(ShowTechHCLFile) {
		name = ShowTechHCLFile

		b, rerr := c.read(name)
		if rerr != nil {
			return nil, rerr
		}

		st, err = ParseShowTechHCL(ctx, b, c.Path(name), vars)
	} else {
		st = &ShowTech{}
		err = c.readYAML(name, st)
	}

	if err != nil {
		return nil, err
	}

	if err := st.Validate(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, name), err)
	}

	return st, nil
}

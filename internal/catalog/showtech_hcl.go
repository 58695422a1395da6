// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/Azure/golden"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

const dslName = "supportctl"

func init() {
	golden.RegisterBlock(new(FeatureBlock))
	golden.AddCustomTypeMapping[*SubFeatureBlock](subFeatureCtyType)
}

var _ golden.Config = &showTechConfig{}

type showTechConfig struct {
	*golden.BaseConfig
}

var _ golden.ApplyBlock = (*FeatureBlock)(nil)

// FeatureBlock is a `feature "name" {}` block of an HCL show-tech catalog.
type FeatureBlock struct {
	*golden.BaseBlock
	Description string             `hcl:"description,optional"`
	Shell       []string           `hcl:"shell,optional"`
	Commands    []string           `hcl:"commands,optional"`
	SubFeatures []*SubFeatureBlock `hcl:"sub_feature,block"`
}

// SubFeatureBlock is a nested `sub_feature {}` block.
type SubFeatureBlock struct {
	Name            string   `hcl:"name"`
	Description     string   `hcl:"description,optional"`
	ShowTechAll     *bool    `hcl:"show_tech_all,optional"`
	ShowTechFeature *bool    `hcl:"show_tech_feature,optional"`
	Commands        []string `hcl:"commands,optional"`
}

var subFeatureCtyType = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"name":              cty.String,
	"description":       cty.String,
	"show_tech_all":     cty.Bool,
	"show_tech_feature": cty.Bool,
	"commands":          cty.List(cty.String),
}, []string{
	"description",
	"show_tech_all",
	"show_tech_feature",
	"commands",
})

func (b *FeatureBlock) Type() string {
	return ""
}

func (b *FeatureBlock) BlockType() string {
	return "feature"
}

func (b *FeatureBlock) AddressLength() int {
	return 2
}

func (b *FeatureBlock) CanExecutePrePlan() bool {
	return false
}

// Apply has nothing to do: features are only read.
func (b *FeatureBlock) Apply() error {
	return nil
}

func (b *FeatureBlock) Address() string {
	return "feature." + b.Name()
}

// ParseShowTechHCL decodes an HCL show-tech catalog:
//
//	variable "vrf" {
//	  type    = string
//	  default = "default"
//	}
//
//	feature "bgp" {
//	  description = "Border Gateway Protocol"
//	  commands    = ["show bgp vrf ${var.vrf}"]
//
//	  sub_feature {
//	    name     = "neighbors"
//	    commands = ["show bgp neighbors"]
//	  }
//	}
//
// vars assign declared variables, as --var does on the command line. Locals, functions
// and dynamic sub_feature blocks are available.
func ParseShowTechHCL(ctx context.Context, src []byte, filename string, vars map[string]string) (*ShowTech, error) {
	blocks, order, err := showTechBlocks(src, filename)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, filename), err)
	}

	assigned := make([]golden.CliFlagAssignedVariables, 0, len(vars))

	for _, k := range slices.Sorted(maps.Keys(vars)) {
		assigned = append(assigned, golden.NewCliFlagAssignedVariable(k, vars[k]))
	}

	cfg := &showTechConfig{
		BaseConfig: golden.NewBasicConfig(".", dslName, dslName, nil, assigned, ctx),
	}

	if err := golden.InitConfig(cfg, blocks); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, filename), err)
	}

	if err := cfg.RunPlan(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrInvalidCatalog, filename), err)
	}

	return showTechFromBlocks(golden.Blocks[*FeatureBlock](cfg), order), nil
}

// showTechBlocks parses src into golden blocks and returns the position of each feature
// label in the file.
func showTechBlocks(src []byte, filename string) ([]*golden.HclBlock, map[string]int, error) {
	readFile, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		var result error
		return nil, nil, multierror.Append(result, diags.Errs()...)
	}

	writeFile, _ := hclwrite.ParseConfig(src, filename, hcl.InitialPos)

	readBody, ok := readFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected body type %T", readFile.Body)
	}

	var result error

	blocks := golden.AsHclBlocks(readBody.Blocks, writeFile.Body().Blocks())
	wanted := make([]*golden.HclBlock, 0, len(blocks))
	order := make(map[string]int)

	for _, b := range blocks {
		if !golden.IsBlockTypeWanted(b.Type) {
			result = multierror.Append(result, fmt.Errorf("unsupported block type %q at %s", b.Type, b.Range()))
			continue
		}

		if b.Type == "feature" && len(b.Labels) > 0 {
			order[b.Labels[0]] = len(order)
		}

		wanted = append(wanted, b)
	}

	return wanted, order, result
}

// showTechFromBlocks keeps the order features appear in the file.
func showTechFromBlocks(blocks []*FeatureBlock, order map[string]int) *ShowTech {
	slices.SortStableFunc(blocks, func(a, b *FeatureBlock) int {
		return order[a.Name()] - order[b.Name()]
	})

	st := &ShowTech{Features: make([]ShowTechFeature, 0, len(blocks))}

	for _, f := range blocks {
		feat := ShowTechFeature{
			Name:     f.Name(),
			Desc:     f.Description,
			Shell:    StringList(f.Shell),
			Commands: f.Commands,
		}

		for _, sf := range f.SubFeatures {
			feat.SubFeatures = append(feat.SubFeatures, SubFeature{
				Name:            sf.Name,
				Desc:            sf.Description,
				ShowTechAll:     boolFlag(sf.ShowTechAll),
				ShowTechFeature: boolFlag(sf.ShowTechFeature),
				Commands:        sf.Commands,
			})
		}

		st.Features = append(st.Features, feat)
	}

	return st
}

func boolFlag(b *bool) Flag {
	if b == nil {
		return ""
	}

	return Flag(strconv.FormatBool(*b))
}

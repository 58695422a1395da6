// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package showtech

import (
	"slices"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
)

// Step is one show-tech command together with the banners printed around it.
type Step struct {
	Feature    string
	SubFeature string // empty for commands listed directly on the feature
	Command    string
	Shell      []string

	BeginFeature bool
	EndFeature   bool
	BeginSub     bool
	EndSub       bool
}

// group is the commands of one feature or sub feature in execution order.
type group struct {
	sub  string
	cmds []string
}

// Plan returns the steps for a full show-tech (feature empty), one feature, or one sub
// feature of a feature. Groups without commands are left out.
//
// A full show-tech skips sub features with support_showtech_all disabled, and a feature
// show-tech skips those with support_showtech_feature disabled. A sub feature that is
// requested by name always runs.
func Plan(st *catalog.ShowTech, feature, sub string) ([]runbatch.WorkItem[Step], error) {
	if feature == "" {
		var items []runbatch.WorkItem[Step]

		for i := range st.Features {
			f := &st.Features[i]
			items = append(items, featureSteps(f, (*catalog.SubFeature).InAll)...)
		}

		return items, nil
	}

	f, err := st.Lookup(feature)
	if err != nil {
		return nil, err
	}

	if sub == "" {
		return featureSteps(f, (*catalog.SubFeature).InFeature), nil
	}

	sf, err := f.SubFeature(sub)
	if err != nil {
		return nil, err
	}

	items := groupSteps(f, group{sub: sf.Name, cmds: sf.Commands})

	return items, nil
}

func featureSteps(f *catalog.ShowTechFeature, include func(*catalog.SubFeature) bool) []runbatch.WorkItem[Step] {
	groups := []group{{cmds: f.Commands}}

	for i := range f.SubFeatures {
		sf := &f.SubFeatures[i]
		if include(sf) {
			groups = append(groups, group{sub: sf.Name, cmds: sf.Commands})
		}
	}

	groups = slices.DeleteFunc(groups, func(g group) bool { return len(g.cmds) == 0 })
	if len(groups) == 0 {
		return nil
	}

	var items []runbatch.WorkItem[Step]

	for _, g := range groups {
		items = append(items, groupSteps(f, g)...)
	}

	items[0].Value.BeginFeature = true
	items[len(items)-1].Value.EndFeature = true

	return items
}

// groupSteps returns one step per command of g, with sub feature banners on the first
// and last step.
func groupSteps(f *catalog.ShowTechFeature, g group) []runbatch.WorkItem[Step] {
	items := make([]runbatch.WorkItem[Step], 0, len(g.cmds))

	for _, c := range g.cmds {
		items = append(items, runbatch.WorkItem[Step]{
			Name: c,
			Value: Step{
				Feature:    f.Name,
				SubFeature: g.sub,
				Command:    c,
				Shell:      f.Shell,
			},
		})
	}

	if g.sub != "" && len(items) > 0 {
		items[0].Value.BeginSub = true
		items[len(items)-1].Value.EndSub = true
	}

	return items
}

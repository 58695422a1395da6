// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package showtech

import (
	"context"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/interrupt"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCatalog() *catalog.ShowTech {
	return &catalog.ShowTech{Features: []catalog.ShowTechFeature{
		{
			Name:     "basic",
			Desc:     "Basic system information",
			Commands: []string{"echo uname"},
		},
		{
			Name: "lldp",
			Desc: "Link Layer Discovery Protocol",
			SubFeatures: []catalog.SubFeature{
				{Name: "neighbors", Desc: "LLDP neighbors", Commands: []string{"echo n1", "echo n2"}},
				{Name: "stats", Desc: "LLDP statistics", ShowTechAll: "no", Commands: []string{"echo stats"}},
				{Name: "debug", ShowTechFeature: "no", Commands: []string{"echo debug"}},
				{Name: "empty"},
			},
		},
	}}
}

func names(items []runbatch.WorkItem[Step]) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}

	return out
}

func TestPlanAll(t *testing.T) {
	items, err := Plan(testCatalog(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo uname", "echo n1", "echo n2", "echo debug"}, names(items))

	basic := items[0].Value
	assert.True(t, basic.BeginFeature)
	assert.True(t, basic.EndFeature)
	assert.False(t, basic.BeginSub)

	n1, n2, dbg := items[1].Value, items[2].Value, items[3].Value
	assert.True(t, n1.BeginFeature)
	assert.True(t, n1.BeginSub)
	assert.False(t, n1.EndSub)
	assert.True(t, n2.EndSub)
	assert.False(t, n2.EndFeature)
	assert.True(t, dbg.BeginSub)
	assert.True(t, dbg.EndSub)
	assert.True(t, dbg.EndFeature)
}

func TestPlanFeature(t *testing.T) {
	items, err := Plan(testCatalog(), "lldp", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo n1", "echo n2", "echo stats"}, names(items))
	assert.Equal(t, "stats", items[2].Value.SubFeature)
}

func TestPlanSubFeature(t *testing.T) {
	items, err := Plan(testCatalog(), "lldp", "debug")
	require.NoError(t, err)
	require.Len(t, items, 1)

	s := items[0].Value
	assert.True(t, s.BeginSub)
	assert.True(t, s.EndSub)
	assert.False(t, s.BeginFeature, "a single sub feature has no feature banner")
}

func TestPlanUnknown(t *testing.T) {
	_, err := Plan(testCatalog(), "bgp", "")
	assert.EqualError(t, err, "Feature bgp is not supported")

	_, err = Plan(testCatalog(), "lldp", "nope")
	assert.EqualError(t, err, "Sub Feature nope is not supported")
}

func run(t *testing.T, items []runbatch.WorkItem[Step]) (*runbatch.Report, string) {
	t.Helper()

	var out strings.Builder

	o := runbatch.NewOrchestrator[Step](Collection, interrupt.New(), &out, runbatch.WithPhrases(Phrases))
	report := o.Run(context.Background(), items, (&Runner{}).Action())
	require.NoError(t, WriteSummary(&out, report))

	return report, out.String()
}

func TestRunSubFeature(t *testing.T) {
	items, err := Plan(testCatalog(), "lldp", "debug")
	require.NoError(t, err)

	report, out := run(t, items)
	require.True(t, report.Success())

	want := "= = = = = = = = = = = = = = = = = = = = = = = = = = =\n" +
		"[Begin] Sub Feature debug\n" +
		"= = = = = = = = = = = = = = = = = = = = = = = = = = =\n\n" +
		"\n---------------------------------\n" +
		"Command : echo debug\n" +
		"---------------------------------\n" +
		"debug\n" +
		"= = = = = = = = = = = = = = = = = = = = = = = = = = =\n" +
		"[End] Sub Feature debug\n" +
		"= = = = = = = = = = = = = = = = = = = = = = = = = = =\n\n" +
		"\n====================================================\n" +
		"Show Tech commands executed successfully\n" +
		"====================================================\n"
	assert.Equal(t, want, out)
}

func TestRunFailures(t *testing.T) {
	st := &catalog.ShowTech{Features: []catalog.ShowTechFeature{{
		Name:     "broken",
		Commands: []string{"exit 1", "echo fine", "exit 2"},
	}}}

	items, err := Plan(st, "broken", "")
	require.NoError(t, err)

	report, out := run(t, items)
	assert.Equal(t, 2, report.Failed())
	assert.Contains(t, out, "Command exit 1 failed to execute\n")
	assert.Contains(t, out, "Command exit 2 failed to execute\n")
	assert.Contains(t, out, "fine\n")
	assert.Contains(t, out, "[End] Feature broken\n")
	assert.Contains(t, out, "\n2 show tech commands failed to execute\n")
}

func TestRunOneFailure(t *testing.T) {
	st := &catalog.ShowTech{Features: []catalog.ShowTechFeature{{Name: "x", Commands: []string{"false"}}}}

	items, err := Plan(st, "", "")
	require.NoError(t, err)

	_, out := run(t, items)
	assert.Contains(t, out, "\n1 show tech command failed to execute\n")
}

func TestRunCustomShell(t *testing.T) {
	st := &catalog.ShowTech{Features: []catalog.ShowTechFeature{{
		Name:     "echo",
		Shell:    catalog.StringList{"/bin/echo"},
		Commands: []string{"$HOME is not expanded"},
	}}}

	items, err := Plan(st, "", "")
	require.NoError(t, err)

	report, out := run(t, items)
	require.True(t, report.Success())
	assert.Contains(t, out, "$HOME is not expanded\n")
}

func TestList(t *testing.T) {
	var out strings.Builder

	require.NoError(t, List(&out, &catalog.ShowTech{Features: []catalog.ShowTechFeature{{
		Name: "lldp",
		Desc: "Link Layer Discovery Protocol",
		SubFeatures: []catalog.SubFeature{
			{Name: "neighbors-and-other-things", Desc: "Neighbors"},
		},
	}}}))

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 7)
	assert.Equal(t, "Show Tech Supported Features List ", lines[0])
	assert.Equal(t, strings.Repeat("-", 60), lines[1])
	assert.Equal(t, "Feature  SubFeature        Desc", lines[2])
	assert.Equal(t, "lldp                       Link Layer Discovery Protocol", lines[4])
	assert.Empty(t, lines[5])
	assert.Equal(t, "         neighbors-and-oth Neighbors", lines[6])
}

func TestCreateFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	f, err := CreateFile(fs, "/st.txt", false)
	require.NoError(t, err)
	_, err = f.WriteString("first")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = CreateFile(fs, "/st.txt", false)
	require.ErrorIs(t, err, ErrFileExists)

	f, err = CreateFile(fs, "/st.txt", true)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b, err := afero.ReadFile(fs, "/st.txt")
	require.NoError(t, err)
	assert.Empty(t, b)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package showtech runs the show-tech command bundles of the catalog.
package showtech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-FFFFFF/supportctl/internal/catalog"
	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/shellexec"
	"github.com/spf13/afero"
)

var (
	// ErrFileExists is returned when the output file exists and overwriting was not forced.
	ErrFileExists = errors.New("output file already exists, use --force to overwrite")
	// ErrOpenFile is returned when the output file cannot be created.
	ErrOpenFile = errors.New("failed to open output file")
)

var (
	featureRule = strings.Repeat("=", 52)
	subRule     = strings.TrimSpace(strings.Repeat("= ", 27))
	commandRule = strings.Repeat("-", 33)
	listRule    = strings.Repeat("-", 60)
)

// Collection names show-tech runs in reports, progress events and metrics.
const Collection = "show-tech"

// Phrases is the report wording of a show-tech run.
var Phrases = runbatch.Phrases{
	Action:         "Show Tech",
	Success:        "Show Tech commands executed successfully",
	ItemNoun:       "command",
	ItemNounPlural: "commands",
	Failure:        "%d show tech %s failed to execute",
}

// Runner executes show-tech steps.
type Runner struct {
	// Reporter receives each output line of the running command. When nil the run's
	// reporter is used.
	Reporter  progress.Reporter
	MaxOutput int64
}

// Action returns the work item action. Banners are written to the item output around
// the command output.
func (r *Runner) Action() runbatch.Action[Step] {
	return func(ctx context.Context, item runbatch.WorkItem[Step], out io.Writer) error {
		s := item.Value

		if s.BeginFeature {
			fmt.Fprintf(out, "%s\n[Begin] Feature %s\n%s\n\n", featureRule, s.Feature, featureRule) //nolint:errcheck
		}

		if s.BeginSub {
			fmt.Fprintf(out, "%s\n[Begin] Sub Feature %s\n%s\n\n", subRule, s.SubFeature, subRule) //nolint:errcheck
		}

		fmt.Fprintf(out, "\n%s\nCommand : %s\n%s\n", commandRule, s.Command, commandRule) //nolint:errcheck

		opts := []shellexec.Option{shellexec.WithMaxOutput(r.MaxOutput)}
		rep := r.Reporter
		if rep == nil {
			rep = progress.FromContext(ctx)
		}

		if rep != nil {
			opts = append(opts, shellexec.WithReporter(rep, Collection, item.Name))
		}

		err := shellexec.Run(ctx, shellexec.Command{Line: s.Command, Shell: s.Shell}, out, opts...)
		if err != nil {
			ctxlog.Warn(ctx, "show tech command failed", "feature", s.Feature, "command", s.Command, "error", err)

			if ctx.Err() == nil {
				fmt.Fprintf(out, "\n%s\nCommand %s failed to execute\n%s\n", commandRule, s.Command, commandRule) //nolint:errcheck
			}
		}

		if s.EndSub {
			fmt.Fprintf(out, "%s\n[End] Sub Feature %s\n%s\n\n", subRule, s.SubFeature, subRule) //nolint:errcheck
		}

		if s.EndFeature {
			fmt.Fprintf(out, "%s\n[End] Feature %s\n%s\n\n", featureRule, s.Feature, featureRule) //nolint:errcheck
		}

		return err //nolint:wrapcheck
	}
}

// WriteSummary writes the framed summary line of report.
func WriteSummary(w io.Writer, report *runbatch.Report) error {
	_, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", featureRule, report.Summary(), featureRule)
	return err //nolint:wrapcheck
}

// List writes the features and sub features of the catalog.
func List(w io.Writer, st *catalog.ShowTech) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Show Tech Supported Features List \n%s\n", listRule)
	fmt.Fprintf(&b, "Feature  SubFeature        Desc\n%s\n", listRule)

	for _, f := range st.Features {
		fmt.Fprintf(&b, "%-27.26s%s\n\n", f.Name, f.Desc)

		for _, sf := range f.SubFeatures {
			fmt.Fprintf(&b, "         %-18.17s%s\n", sf.Name, sf.Desc)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}

// CreateFile creates the output file at path. An existing file is truncated only when
// force is set.
func CreateFile(fs afero.Fs, path string, force bool) (afero.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := fs.OpenFile(path, flags, 0o644)

	switch {
	case errors.Is(err, os.ErrExist):
		return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
	case err != nil:
		return nil, errors.Join(ErrOpenFile, err)
	}

	return f, nil
}

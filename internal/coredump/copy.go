// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package coredump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"

	"github.com/matt-FFFFFF/supportctl/internal/ctxlog"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
	"github.com/matt-FFFFFF/supportctl/internal/shellexec"
	"github.com/spf13/afero"
)

// Transfer scripts of the switch image.
const (
	DefaultTFTPScript = "/usr/bin/tftp_noi.sh"
	DefaultSFTPScript = "/usr/bin/sftp_noi.sh"
)

// Protocol is a core dump transfer protocol.
type Protocol string

// Supported transfer protocols.
const (
	TFTP Protocol = "tftp"
	SFTP Protocol = "sftp"
)

var (
	// ErrInvalidParameter is returned for a copy request that fails validation.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUtility is returned when the transfer script is missing or not executable.
	ErrUtility = errors.New("utility not available for execution")
)

var (
	userNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	hostNameRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,256}$`)
	fileNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,50}$`)
	daemonRe   = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,50}$`)
	instanceRe = regexp.MustCompile(`^[0-9]{1,5}$`)
)

// CopyRequest selects the cores to copy and where to send them.
type CopyRequest struct {
	Daemon   string // KernelName copies the kernel core
	Instance string // optional, daemons only
	Protocol Protocol
	Host     string
	User     string // required for SFTP
	DestFile string // optional, defaults to the source file name
}

type fieldCheck struct {
	what, value string
	re          *regexp.Regexp
	optional    bool
}

// Validate checks every field against the characters the transfer scripts accept.
func (r *CopyRequest) Validate() error {
	checks := []fieldCheck{
		{"daemon name", r.Daemon, daemonRe, false},
		{"instance id", r.Instance, instanceRe, true},
		{"host", r.Host, hostNameRe, false},
		{"destination file name", r.DestFile, fileNameRe, true},
	}

	switch r.Protocol {
	case TFTP:
	case SFTP:
		checks = append(checks, fieldCheck{"user name", r.User, userNameRe, false})
	default:
		return fmt.Errorf("%w: protocol %q", ErrInvalidParameter, r.Protocol)
	}

	for _, c := range checks {
		if c.value == "" && c.optional {
			continue
		}

		if !c.re.MatchString(c.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidParameter, c.what, c.value)
		}
	}

	return nil
}

// Kernel reports whether the request is for the kernel core.
func (r *CopyRequest) Kernel() bool {
	return r.Daemon == KernelName
}

// Select returns the dumps matching r. Only one kernel core is kept per system, so at
// most one kernel dump is returned.
func (r *CopyRequest) Select(dumps []Dump) []Dump {
	var out []Dump

	for _, d := range dumps {
		if r.Kernel() {
			if d.Kernel() {
				return []Dump{d}
			}

			continue
		}

		if d.Kernel() || d.Daemon != r.Daemon {
			continue
		}

		if r.Instance != "" && d.Instance != r.Instance {
			continue
		}

		out = append(out, d)
	}

	return out
}

// NotFound is printed when Select returns nothing.
func (r *CopyRequest) NotFound() string {
	switch {
	case r.Kernel():
		return "No coredump found for kernel"
	case r.Instance != "":
		return fmt.Sprintf("No coredump found for daemon %s with instance %s", r.Daemon, r.Instance)
	default:
		return "No coredump found for daemon " + r.Daemon
	}
}

// CheckScript returns ErrUtility unless script is an executable regular file.
func CheckScript(afs afero.Fs, script string) error {
	fi, err := afs.Stat(script)
	if err != nil || !fi.Mode().IsRegular() || fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s", ErrUtility, script)
	}

	return nil
}

// Transfer is the argument vector copying one core file.
type Transfer struct {
	Source string
	Argv   []string
}

// Transfers returns one work item per dump. The TFTP script takes host, source and
// destination. The SFTP script takes the user first.
func (r *CopyRequest) Transfers(script string, dumps []Dump) []runbatch.WorkItem[Transfer] {
	items := make([]runbatch.WorkItem[Transfer], 0, len(dumps))

	for _, d := range dumps {
		dest := r.DestFile
		if dest == "" {
			dest = path.Base(d.Path)
		}

		argv := []string{script}
		if r.Protocol == SFTP {
			argv = append(argv, r.User)
		}

		argv = append(argv, r.Host, d.Path, dest)

		items = append(items, runbatch.WorkItem[Transfer]{
			Name:  path.Base(d.Path),
			Value: Transfer{Source: d.Path, Argv: argv},
		})
	}

	return items
}

// CopyCollection names core dump copies in reports, progress events and metrics.
const CopyCollection = "core-dump-copy"

// CopyPhrases is the report wording of a core dump copy.
var CopyPhrases = runbatch.Phrases{
	Action:         "Core dump copy",
	Success:        "Core dumps copied successfully",
	ItemNoun:       "core dump",
	ItemNounPlural: "core dumps",
	Failure:        "%d %s failed to copy",
}

// CopyAction runs the transfer script of one item.
func CopyAction() runbatch.Action[Transfer] {
	return func(ctx context.Context, item runbatch.WorkItem[Transfer], out io.Writer) error {
		argv := item.Value.Argv
		cmd := shellexec.Command{Shell: argv[:len(argv)-1], Line: argv[len(argv)-1]}

		var opts []shellexec.Option
		if rep := progress.FromContext(ctx); rep != nil {
			opts = append(opts, shellexec.WithReporter(rep, CopyCollection, item.Name))
		}

		if err := shellexec.Run(ctx, cmd, out, opts...); err != nil {
			ctxlog.Warn(ctx, "core dump copy failed", "source", item.Value.Source, "error", err)

			if ctx.Err() == nil {
				fmt.Fprintf(out, "Command %s failed to execute\n", argv[0]) //nolint:errcheck
			}

			return err //nolint:wrapcheck
		}

		return nil
	}
}

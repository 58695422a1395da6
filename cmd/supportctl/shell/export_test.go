// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shell

import "github.com/prashantv/gostub"

// Prompter is the line reader used by the shell.
type Prompter = prompter

// StubPrompter makes the shell read from p. The returned func restores the terminal reader.
func StubPrompter(p Prompter) func() {
	return gostub.Stub(&newPrompter, func() prompter { return p }).Reset
}

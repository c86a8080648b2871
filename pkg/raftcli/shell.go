/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package raftcli provides the operator-facing shell helpers shared by
cmd/raft-shell: a readline-based REPL loop, command dispatch, and the
handful of color/status helpers the teacher's pkg/cli used for its own
admin prompt.
*/
package raftcli

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// Color escape codes, matching the teacher's pkg/cli terminal helpers.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// Command is one operator command the shell can dispatch to.
type Command struct {
	Name string
	Help string
	Run  func(args []string) (string, error)
}

// Shell is an interactive readline REPL over a fixed command set.
type Shell struct {
	prompt   string
	commands map[string]Command
	rl       *readline.Instance
}

// NewShell builds a Shell that prompts with prompt and dispatches to
// commands by name.
func NewShell(prompt string, commands []Command) (*Shell, error) {
	byName := make(map[string]Command, len(commands))
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		byName[c.Name] = c
		names = append(names, c.Name)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		AutoComplete:    readline.NewPrefixCompleter(completerItems(names)...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("raftcli: initializing readline: %w", err)
	}
	return &Shell{prompt: prompt, commands: byName, rl: rl}, nil
}

func completerItems(names []string) []readline.PrefixCompleterInterface {
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, n := range names {
		items = append(items, readline.PcItem(n))
	}
	return items
}

// Close releases the underlying readline instance.
func (s *Shell) Close() error {
	return s.rl.Close()
}

// Run reads commands until EOF or an "exit"/"quit" command, printing
// each command's result or error.
func (s *Shell) Run() error {
	for {
		line, err := s.rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		name := fields[0]
		if name == "exit" || name == "quit" {
			return nil
		}
		cmd, ok := s.commands[name]
		if !ok {
			fmt.Fprintf(s.rl.Stderr(), "%sunknown command: %s%s\n", colorRed, name, colorReset)
			continue
		}
		out, err := cmd.Run(fields[1:])
		if err != nil {
			fmt.Fprintf(s.rl.Stderr(), "%serror: %v%s\n", colorRed, err, colorReset)
			continue
		}
		if out != "" {
			fmt.Fprintln(s.rl.Stdout(), out)
		}
	}
}

// Info formats a line for informational status output.
func Info(format string, args ...interface{}) string {
	return colorCyan + fmt.Sprintf(format, args...) + colorReset
}

// OK formats a line for success output.
func OK(format string, args ...interface{}) string {
	return colorGreen + fmt.Sprintf(format, args...) + colorReset
}

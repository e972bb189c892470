// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CB3D7"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7A0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7A82"))
)

// stdoutIsTTY gates styling so piped output stays plain.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printHeading(text string) {
	if stdoutIsTTY() {
		fmt.Println(headingStyle.Render(text))
		return
	}
	fmt.Println(text)
}

func printSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if stdoutIsTTY() {
		fmt.Println(successStyle.Render(msg))
		return
	}
	fmt.Println(msg)
}

func printMuted(text string) {
	if stdoutIsTTY() {
		fmt.Println(mutedStyle.Render(text))
		return
	}
	fmt.Println(text)
}

func printError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, errorStyle.Render(msg))
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

// writeJSON encodes v to path, or stdout when path is empty.
func writeJSON(path string, v interface{}, compact bool) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

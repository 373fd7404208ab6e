package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	}
	return "INFO"
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return "\x1b[32m"
	case statusWarn:
		return "\x1b[33m"
	case statusError:
		return "\x1b[31m"
	case statusInfo:
		return "\x1b[34m"
	}
	return ""
}

const statusLabelWidth = 20

// renderStatusLine formats one "Label: [KIND] message" row with the labels
// padded to a common column.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := "[" + kind.label() + "]"
	if message != "" {
		statusText += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", statusText)
	if colorize && kind.color() != "" {
		line = kind.color() + line + ansiReset
	}
	return line
}

// renderSectionHeader returns the banner and underline for a section.
func renderSectionHeader(title string, colorize bool) []string {
	banner := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(banner))
	if colorize {
		banner = statusInfo.color() + banner + ansiReset
		rule = statusInfo.color() + rule + ansiReset
	}
	return []string{banner, rule}
}

// shouldColorize enables ANSI colors only when writing to a real terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Package logging provides colored, leveled log output for the jules CLI.
//
// All output functions write a prefixed, color-coded line to stderr so that
// stdout stays clean for machine-readable listings. Debug output is
// suppressed unless verbose mode is enabled via SetVerbose(true).
package logging

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// verbose controls whether Debug() produces output.
var verbose bool

// Color printers for each log level.
var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	warnPrefix    = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	debugPrefix   = color.New(color.FgCyan).SprintFunc()
)

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	verbose = v
}

// Info prints an informational message to stderr in blue.
func Info(msg string) {
	fmt.Fprintln(os.Stderr, infoPrefix("[jules]")+" "+msg)
}

// Infof is Info with fmt.Sprintf formatting.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Success prints a success message to stderr in green.
func Success(msg string) {
	fmt.Fprintln(os.Stderr, successPrefix("[jules]")+" "+msg)
}

// Successf is Success with fmt.Sprintf formatting.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Warn prints a warning message to stderr in yellow.
func Warn(msg string) {
	fmt.Fprintln(os.Stderr, warnPrefix("[warn]")+" "+msg)
}

// Warnf is Warn with fmt.Sprintf formatting.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message to stderr in red.
func Error(msg string) {
	fmt.Fprintln(os.Stderr, errorPrefix("[error]")+" "+msg)
}

// Errorf is Error with fmt.Sprintf formatting.
func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}

// Debug prints a debug message to stderr in cyan, only when verbose mode
// is enabled.
func Debug(msg string) {
	if !verbose {
		return
	}
	fmt.Fprintln(os.Stderr, debugPrefix("[debug]")+" "+msg)
}

// Debugf is Debug with fmt.Sprintf formatting.
func Debugf(format string, args ...any) {
	if !verbose {
		return
	}
	Debug(fmt.Sprintf(format, args...))
}

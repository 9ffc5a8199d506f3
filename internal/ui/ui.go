package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/sokinpui/gpt.go/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

// Out is where status lines go. Stdout is reserved for the reply.
var Out io.Writer = os.Stderr

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Out, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Out, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Out, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Out, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Out, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Out, "  "+format+"\n", a...)
}

// --- Summaries ---

func PrintUpdateSummary(summary model.Summary) {
	Header("\n--- Update Summary ---")

	if summary.Message != "" {
		Info(summary.Message)
	}
	if len(summary.Created) == 0 && len(summary.Modified) == 0 && len(summary.Failed) == 0 && len(summary.Skipped) == 0 {
		Info("No files were updated.")
		return
	}

	printGroup(SuccessColor, "Created %d new file(s):", summary.Created)
	printGroup(SuccessColor, "Modified %d file(s):", summary.Modified)
	printGroup(WarningColor, "Would update %d file(s) (dry run):", summary.Skipped)
	printGroup(ErrorColor, "Failed to update %d file(s):", summary.Failed)
}

func printGroup(c *color.Color, title string, files []string) {
	if len(files) == 0 {
		return
	}
	c.Fprintf(Out, title+"\n", len(files))
	for _, f := range files {
		fmt.Fprintf(Out, "  - %s\n", f)
	}
}

// PrintTurns shows a stored conversation, one header per turn.
func PrintTurns(w io.Writer, turns []model.Turn) {
	if len(turns) == 0 {
		Info("No conversation history.")
		return
	}
	for _, t := range turns {
		switch t.Tag {
		case model.TagUserQuestion:
			HeaderColor.Fprintln(w, "## You")
		case model.TagAIAnswer:
			HeaderColor.Fprintln(w, "## Assistant")
		default:
			HeaderColor.Fprintf(w, "## %s\n", t.Tag)
		}
		fmt.Fprintln(w, t.Body)
		fmt.Fprintln(w)
	}
}

package prompt

import (
	"strings"
)

// DefaultMaxAttachmentChars caps the attached file section of a message.
const DefaultMaxAttachmentChars = 16000

// NewestMessageMarker separates the stored history from the new message.
const NewestMessageMarker = "<NEWEST_MESSAGE>"

const (
	persona = "You are a helpful AI assistant who's specialized in software production."

	fileChangeFormat = " Provide any suggested file changes with the following format: " +
		"'<filechange: path/to/file>changes to this file go here</filechange>' " +
		"so that the answer can be parsed and the files automatically updated."
)

// Compose builds the outbound user message. File content is trimmed and, if
// anything remains, attached after a label and cut at maxChars characters.
func Compose(message, fileContent string, maxChars int) string {
	fileContent = strings.TrimSpace(fileContent)
	if fileContent == "" {
		return "Message: " + message
	}
	return "Message: " + message + "\nAttached Files:\n" + truncate(fileContent, maxChars)
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

// Build joins history and the new message into one prompt.
func Build(history, message string) string {
	divider := "\n"
	if history != "" {
		divider = "\n\n" + NewestMessageMarker + "\n"
	}
	return history + divider + message
}

// Instructions configures the system instruction sent with every request.
type Instructions struct {
	// FileChanges asks the model to use the <filechange:...> format.
	FileChanges           bool
	PreferredTechnologies []string
}

// System renders the system instruction.
func (in Instructions) System() string {
	var b strings.Builder
	b.WriteString(persona)
	if in.FileChanges {
		b.WriteString(fileChangeFormat)
	}
	if len(in.PreferredTechnologies) > 0 {
		b.WriteString(" User's preferred technologies: ")
		b.WriteString(strings.Join(in.PreferredTechnologies, ", "))
		b.WriteString(".")
	}
	return b.String()
}

package model

// Conversation turn tags as they appear in the history file.
const (
	TagUserQuestion = "user-question"
	TagAIAnswer     = "ai-answer"
)

// FileBlock is one file's contents (full or line-sliced) embedded in an outbound message.
type FileBlock struct {
	Path    string
	Content string
}

// Turn is one persisted unit of conversation.
type Turn struct {
	Tag  string
	Body string
}

// Directive names a target file and its full replacement content.
type Directive struct {
	Path    string
	Content string
}

// Status is the outcome of applying a single directive.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusDryRun
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// FileUpdateResult reports what happened to one target path.
type FileUpdateResult struct {
	Path string
	// Action is "create" or "modify", decided before the write.
	Action string
	Status Status
	// Err holds the failure reason when Status is StatusFailure.
	Err error
}

// Summary holds the results of an update run for display.
type Summary struct {
	Created  []string
	Modified []string
	Failed   []string
	Skipped  []string
	Message  string
}

// Summarize groups results by outcome, preserving their order.
func Summarize(results []FileUpdateResult) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Status == StatusFailure:
			s.Failed = append(s.Failed, r.Path)
		case r.Status == StatusDryRun:
			s.Skipped = append(s.Skipped, r.Path)
		case r.Action == "create":
			s.Created = append(s.Created, r.Path)
		default:
			s.Modified = append(s.Modified, r.Path)
		}
	}
	return s
}

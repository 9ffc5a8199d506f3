package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Actions accepted as the first positional argument.
const (
	ActionNew      = "new"
	ActionContinue = "continue"
	ActionShow     = "show"
)

// Config holds all the command-line flag values and positional arguments.
type Config struct {
	Action  string
	Message string
	Paths   []string

	UpdateFiles   bool
	Debug         bool
	DryRun        bool
	CodeBlocks    bool
	FromClipboard bool
	CopyReply     bool
	Raw           bool
	NoAnimation   bool
	ReloadNvim    bool
	Verbose       bool

	HistoryPath string
	Model       string
	ConfigPath  string
	Root        string
}

// ParseFlags defines and parses command-line flags using pflag. args excludes the program name.
// Usage and errors are written to output.
func ParseFlags(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := pflag.NewFlagSet("gpt", pflag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVarP(&cfg.UpdateFiles, "update-files", "u", false, "Ask the model for file changes and apply them.")
	fs.BoolVar(&cfg.Debug, "debug", false, "Do not call the model; echo the composed prompt as the reply. Implies --dry-run.")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Report the files that would change without writing them.")
	fs.BoolVar(&cfg.CodeBlocks, "code-blocks", false, "Fall back to markdown code blocks named in backticks when the reply has no file changes.")
	fs.BoolVarP(&cfg.FromClipboard, "clipboard", "c", false, "Read the message from the clipboard.")
	fs.BoolVar(&cfg.CopyReply, "copy", false, "Copy the reply to the clipboard.")
	fs.BoolVar(&cfg.Raw, "raw", false, "Print the reply without markdown rendering.")
	fs.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the loading spinner.")
	fs.BoolVar(&cfg.ReloadNvim, "nvim", false, "Reload updated files in the Neovim at $NVIM_LISTEN_ADDRESS.")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging.")
	fs.StringVar(&cfg.HistoryPath, "history", "", "Conversation history file (default $TMPDIR/conversation.txt).")
	fs.StringVar(&cfg.Model, "model", "", "Model name (overrides the config file).")
	fs.StringVar(&cfg.ConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/gpt/config.yaml).")
	fs.StringVar(&cfg.Root, "root", "", "Project root that file changes are confined to (default current directory).")

	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: gpt [flags] <new|continue|show> <message> [paths...]")
		fmt.Fprintln(output, "\nSend a message, optionally with files attached, and keep the conversation going.")
		fmt.Fprintln(output, "\nExample: gpt -u new \"add a --verbose flag\" cmd/ internal/cli/cli.go[1:40]")
		fmt.Fprintln(output, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("missing action: expected one of %s, %s, %s", ActionNew, ActionContinue, ActionShow)
	}
	cfg.Action = strings.ToLower(rest[0])

	switch cfg.Action {
	case ActionShow:
		if len(rest) > 1 {
			return nil, fmt.Errorf("%s takes no arguments", ActionShow)
		}
	case ActionNew, ActionContinue:
		if len(rest) < 2 && !cfg.FromClipboard {
			return nil, fmt.Errorf("%s requires a message", cfg.Action)
		}
		if cfg.FromClipboard {
			// With -c every remaining argument is a path.
			cfg.Paths = rest[1:]
		} else {
			cfg.Message = rest[1]
			cfg.Paths = rest[2:]
		}
	default:
		return nil, fmt.Errorf("unknown action %q: expected one of %s, %s, %s", rest[0], ActionNew, ActionContinue, ActionShow)
	}

	if cfg.Debug {
		cfg.DryRun = true
	}
	return cfg, nil
}

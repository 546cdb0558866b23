package services

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnknownCommand is returned by Reply when no command matches the text
var ErrUnknownCommand = errors.New("unknown command")

const (
	greetingMessage = "Hello, world!"
	unknownMessage  = "I don't understand.  For a list of commands, type 'help'."
	helpMessage     = `
Here are a list of commands I understand:
*help*: show this message
*info load*: show current CPU and RAM use of this server
*info disk*: get current disk usage of select file systems
*about*: About me!
`
)

// ReplyFunc computes a reply. An empty reply means nothing is sent.
type ReplyFunc func(ctx context.Context) (string, error)

// DiskReporter provides the computed disk replies
type DiskReporter interface {
	UsageMessage(ctx context.Context) (string, error)
	CheckMessage(ctx context.Context) (string, error)
}

// LoadReporter provides the computed host load reply
type LoadReporter interface {
	LoadSummary(ctx context.Context) (string, error)
}

// Replier maps exact (lower-cased) message text to a reply
type Replier struct {
	handlers map[string]ReplyFunc
}

func constant(text string) ReplyFunc {
	return func(context.Context) (string, error) {
		return text, nil
	}
}

// NewReplier builds the command table
func NewReplier(disk DiskReporter, hostLoad LoadReporter, about string) *Replier {
	loadReply := hostLoad.LoadSummary
	usageReply := disk.UsageMessage

	return &Replier{
		handlers: map[string]ReplyFunc{
			"hi":    constant(greetingMessage),
			"hello": constant(greetingMessage),
			"help":  constant(helpMessage),
			"about": constant(about),

			"info load":  loadReply,
			"info usage": loadReply,
			"info cpu":   loadReply,
			"info ram":   loadReply,

			"info disk":       usageReply,
			"info diskusage":  usageReply,
			"info disk usage": usageReply,

			// Debugging aid; not listed in help
			"check disk": disk.CheckMessage,
		},
	}
}

// Reply returns the reply to text. Unknown text yields ErrUnknownCommand; a known
// command may still compute an empty reply, which means nothing is sent.
func (r *Replier) Reply(ctx context.Context, text string) (string, error) {
	handler, ok := r.handlers[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return "", ErrUnknownCommand
	}
	return handler(ctx)
}

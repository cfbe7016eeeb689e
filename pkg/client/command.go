package client

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kvwire/kvwire/pkg/respio"
)

// Command is an ordered argument list plus the inline encoding hint.
// Numeric arguments are rendered to text by the caller. The hint is
// advisory: the wire encoder downgrades to array form when any argument
// is not inline-safe.
type Command struct {
	Args   [][]byte
	Inline bool
}

func NewCommand(args ...[]byte) *Command {
	return &Command{Args: args}
}

// TextCommand builds a command from text parts, array form.
func TextCommand(parts ...string) *Command {
	return &Command{
		Args: lo.Map(parts, func(s string, _ int) []byte { return []byte(s) }),
	}
}

// Name returns the upper-cased command word, for logging and stats.
func (c *Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return strings.ToUpper(string(c.Args[0]))
}

// encodedSize is the wire size of the inline form, used against the
// inline threshold.
func (c *Command) encodedSize() int {
	n := len(respio.CRLF)
	for i, arg := range c.Args {
		if i > 0 {
			n++
		}
		n += len(arg)
	}
	return n
}

type result struct {
	reply *respio.Reply
	err   error
}

// Pending is one submitted command awaiting its reply. Exactly one of
// reply or error is resolved into it, once.
type Pending struct {
	cmd   *Command
	start time.Time
	done  chan result
}

func newPending(cmd *Command) *Pending {
	return &Pending{
		cmd:   cmd,
		start: time.Now(),
		done:  make(chan result, 1),
	}
}

// Wait blocks until the command resolves or ctx is done. A context
// cancellation abandons the awaitable but does not cancel the command:
// once written, its reply slot in the stream stays claimed and the pump
// still consumes the reply to keep positional correlation sound.
func (p *Pending) Wait(ctx context.Context) (*respio.Reply, error) {
	select {
	case res := <-p.done:
		return res.reply, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) resolve(res result) {
	p.done <- res
}

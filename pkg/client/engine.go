package client

import (
	"sync"

	"github.com/kvwire/kvwire/pkg/respio"
)

// engine serializes submitted commands onto the wire and matches replies
// to them in strict FIFO order. Correlation is positional: the decoder's
// Nth reply belongs to the Nth written command. A single pump loop runs
// at a time, guarded by the pumping flag; it writes command N+1 only
// after awaiting the reply for N.
type engine struct {
	mu      sync.Mutex
	fifo    []*Pending
	pumping bool
	failed  error
	writer  *respio.Writer
	dec     *respio.Decoder
	stats   *CommandStats
}

func newEngine(writer *respio.Writer, dec *respio.Decoder, stats *CommandStats) *engine {
	return &engine{
		writer: writer,
		dec:    dec,
		stats:  stats,
	}
}

// submit enqueues the command and starts the pump if idle. It never
// blocks on the wire.
func (e *engine) submit(cmd *Command) (*Pending, error) {
	p := newPending(cmd)
	e.mu.Lock()
	if e.failed != nil {
		err := e.failed
		e.mu.Unlock()
		return nil, err
	}
	e.fifo = append(e.fifo, p)
	if !e.pumping {
		e.pumping = true
		go e.pump()
	}
	e.mu.Unlock()
	return p, nil
}

func (e *engine) pump() {
	for {
		e.mu.Lock()
		if e.failed != nil {
			rest := e.fifo
			e.fifo = nil
			e.pumping = false
			err := e.failed
			e.mu.Unlock()
			for _, p := range rest {
				p.resolve(result{err: err})
			}
			return
		}
		if len(e.fifo) == 0 {
			e.pumping = false
			e.mu.Unlock()
			return
		}
		p := e.fifo[0]
		e.fifo = e.fifo[1:]
		e.mu.Unlock()

		if err := e.writer.WriteCommand(p.cmd.Args, p.cmd.Inline); err != nil {
			e.abort(p, wrapTransport("write", err))
			return
		}
		reply, err := e.dec.Next()
		if err != nil {
			e.abort(p, wrapTransport("read", err))
			return
		}
		if reply.Type == respio.TypeError {
			e.finish(p, result{err: ServerError(reply.Data)})
			continue
		}
		e.finish(p, result{reply: reply})
	}
}

func (e *engine) finish(p *Pending, res result) {
	if e.stats != nil {
		e.stats.observe(p.cmd.Name(), p.start, res.err)
	}
	p.resolve(res)
}

// abort poisons the engine and fails the in-flight command and every
// queued one with the same error.
func (e *engine) abort(inflight *Pending, err error) {
	e.mu.Lock()
	if e.failed == nil {
		e.failed = err
	}
	err = e.failed
	rest := e.fifo
	e.fifo = nil
	e.pumping = false
	e.mu.Unlock()
	if inflight != nil {
		e.finish(inflight, result{err: err})
	}
	for _, p := range rest {
		p.resolve(result{err: err})
	}
}

// shutdown refuses further submissions and fails everything queued. The
// running pump, if blocked on the decoder, is woken by the caller
// poisoning the decoder.
func (e *engine) shutdown(err error) {
	e.mu.Lock()
	if e.failed == nil {
		e.failed = err
	}
	err = e.failed
	rest := e.fifo
	e.fifo = nil
	e.mu.Unlock()
	for _, p := range rest {
		p.resolve(result{err: err})
	}
}

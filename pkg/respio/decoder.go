package respio

import (
	"bytes"
	"sync"

	"github.com/kvwire/kvwire/pkg/common"
)

const (
	DefaultBufferSize = 8 * common.KB // 8KB
	MaxBulkSize       = 512 * common.MB
)

var crlf = []byte(CRLF)

const (
	stateLine = iota
	stateBulk
)

const (
	tokLine = iota
	tokBulk
	tokNull
)

// token is one framing unit: a CRLF-terminated line, a bulk payload of a
// known length, or the null bulk sentinel.
type token struct {
	kind int
	data []byte
}

type tokenResult struct {
	tok token
	err error
}

// Decoder turns a pushed byte stream into a sequence of decoded replies.
// Feed is non-blocking and may be called from the transport goroutine;
// Next blocks the (single) consumer goroutine until one complete
// top-level reply is available. The token FIFO and the waiter slot are
// mutually exclusive: a waiter only exists while the FIFO is empty.
type Decoder struct {
	mu      sync.Mutex
	q       ChunkQueue
	toks    []token
	waiter  chan tokenResult
	state   int
	bulkLen int
	err     error
	busy    bool
	inline  bool
}

type DecoderOption func(*Decoder)

// WithInlineCommands makes lines that do not start with a RESP type
// marker decode as whitespace-separated command arrays and empty lines
// skip. Servers accept this form; a client never sees it, so the
// default treats such lines as fatal framing violations.
func WithInlineCommands() DecoderOption {
	return func(d *Decoder) {
		d.inline = true
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends one chunk of received bytes and runs the tokenizer.
// The chunk is retained until consumed; callers must not reuse it.
func (d *Decoder) Feed(chunk []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return
	}
	d.q.Append(chunk)
	d.tokenize()
}

// Fail poisons the decoder. The pending receiver, if any, resolves with
// err, and later feeds are ignored. Later Next calls first drain tokens
// that were already decoded, then resolve with err. Used by the
// transport on EOF or read failure.
func (d *Decoder) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failLocked(err)
}

func (d *Decoder) failLocked(err error) {
	if d.err != nil {
		return
	}
	d.err = err
	if d.waiter != nil {
		d.waiter <- tokenResult{err: err}
		d.waiter = nil
	}
}

// Err returns the poisoning error, if any.
func (d *Decoder) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Buffered returns the number of bytes held but not yet tokenized.
func (d *Decoder) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.q.Len()
}

// tokenize advances the framing state machine as far as the buffered
// bytes allow. Caller holds d.mu.
func (d *Decoder) tokenize() {
	for d.err == nil {
		switch d.state {
		case stateLine:
			i := d.q.IndexOf(crlf)
			if i < 0 {
				return
			}
			line := d.q.Take(i)
			d.q.Discard(2)
			if len(line) > 0 && line[0] == TypeBulk {
				n, err := parseInt64(line[1:])
				if err != nil {
					d.failLocked(ErrInvalidSyntax)
					return
				}
				if n == -1 {
					d.deliver(token{kind: tokNull})
					continue
				}
				if n < 0 {
					d.failLocked(ErrInvalidSyntax)
					return
				}
				if n > MaxBulkSize {
					d.failLocked(ErrTooLarge)
					return
				}
				d.state = stateBulk
				d.bulkLen = int(n)
				continue
			}
			d.deliver(token{kind: tokLine, data: line})
		case stateBulk:
			if d.q.Len() < d.bulkLen+2 {
				return
			}
			payload := d.q.Take(d.bulkLen)
			tail := d.q.Take(2)
			if tail[0] != '\r' || tail[1] != '\n' {
				d.failLocked(ErrBadCRLFEnd)
				return
			}
			d.state = stateLine
			d.deliver(token{kind: tokBulk, data: payload})
		}
	}
}

// deliver hands a token to the pending receiver, or queues it.
// Caller holds d.mu.
func (d *Decoder) deliver(tok token) {
	if d.waiter != nil {
		d.waiter <- tokenResult{tok: tok}
		d.waiter = nil
		return
	}
	d.toks = append(d.toks, tok)
}

// nextToken pops the token FIFO or parks the caller as the single
// pending receiver.
func (d *Decoder) nextToken() (token, error) {
	d.mu.Lock()
	if len(d.toks) > 0 {
		tok := d.toks[0]
		d.toks = d.toks[1:]
		d.mu.Unlock()
		return tok, nil
	}
	if d.err != nil {
		err := d.err
		d.mu.Unlock()
		return token{}, err
	}
	w := make(chan tokenResult, 1)
	d.waiter = w
	d.mu.Unlock()
	res := <-w
	return res.tok, res.err
}

// Next blocks until the next top-level reply has been fully decoded.
// At most one Next may be outstanding at a time.
func (d *Decoder) Next() (*Reply, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return nil, ErrDecoderBusy
	}
	d.busy = true
	d.mu.Unlock()

	reply, err := d.assemble()

	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
	return reply, err
}

// assemble consumes tokens for exactly one reply, recursing for arrays.
func (d *Decoder) assemble() (*Reply, error) {
	tok, err := d.nextToken()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokNull:
		return nullReply, nil
	case tokBulk:
		return &Reply{Type: TypeBulk, Data: tok.data}, nil
	}
	line := tok.data
	if len(line) == 0 {
		if d.inline {
			return d.assemble()
		}
		d.Fail(ErrInvalidSyntax)
		return nil, ErrInvalidSyntax
	}
	switch line[0] {
	case TypeStatus:
		return &Reply{Type: TypeStatus, Data: line[1:]}, nil
	case TypeError:
		// Error text is kept verbatim, leading code token included.
		return &Reply{Type: TypeError, Data: line[1:]}, nil
	case TypeInt:
		n, parseErr := parseInt64(line[1:])
		if parseErr != nil {
			d.Fail(ErrInvalidSyntax)
			return nil, ErrInvalidSyntax
		}
		return &Reply{Type: TypeInt, Int: n}, nil
	case TypeArray:
		n, parseErr := parseInt64(line[1:])
		if parseErr != nil || n < -1 {
			d.Fail(ErrInvalidSyntax)
			return nil, ErrInvalidSyntax
		}
		if n == -1 {
			return nullReply, nil
		}
		elems := make([]*Reply, n)
		for i := int64(0); i < n; i++ {
			elem, elemErr := d.assemble()
			if elemErr != nil {
				return nil, elemErr
			}
			elems[i] = elem
		}
		return &Reply{Type: TypeArray, Array: elems}, nil
	default:
		if d.inline {
			return inlineCommand(line), nil
		}
		d.Fail(ErrInvalidSyntax)
		return nil, ErrInvalidSyntax
	}
}

// inlineCommand splits a bare command line into the equivalent array of
// bulk strings.
func inlineCommand(line []byte) *Reply {
	fields := bytes.Fields(line)
	elems := make([]*Reply, len(fields))
	for i, f := range fields {
		elems[i] = &Reply{Type: TypeBulk, Data: f}
	}
	return &Reply{Type: TypeArray, Array: elems}
}

package respio

import "errors"

var (
	ErrInvalidSyntax = errors.New("invalid RESP syntax")
	ErrTooLarge      = errors.New("value too large")
	ErrBadCRLFEnd    = errors.New("bad CRLF end")
	// ErrDecoderBusy means a second Next call was made while one was
	// already outstanding. That is a programming error, not a stream
	// condition; the decoder refuses the call and stays usable.
	ErrDecoderBusy = errors.New("decoder already has a pending receiver")
)

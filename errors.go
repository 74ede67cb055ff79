package multiclient

import (
	"errors"

	"github.com/cozodb/openai-multi-client/sink"
)

var (
	// ErrNilInvoker is returned by New when no invoker is supplied.
	ErrNilInvoker = errors.New("multiclient: invoker is nil")

	// ErrClosed is returned by Submit once the client has stopped
	// accepting new requests.
	ErrClosed = errors.New("multiclient: client is closed to new requests")

	// ErrAlreadyClosed is returned by Close when the client was
	// closed before.
	ErrAlreadyClosed = errors.New("multiclient: already closed")
)

// ErrDone is returned by Next once every submitted request has
// produced an outcome and all outcomes have been consumed.
var ErrDone = sink.ErrDone

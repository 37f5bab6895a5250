package directus

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// TransportError is returned for any failed remote call: network failure,
// non-2xx status or a malformed response body. Status is zero when no
// response was received.
type TransportError struct {
	Op     string
	Status int
	Body   []byte
	// Messages holds the messages of the service error envelope, if any.
	Messages []string
	Err      error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError extracts a TransportError from the error chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

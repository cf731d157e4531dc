package sender

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrAlreadySent is reported by Add and Send on a batch that was already sent successfully.
var ErrAlreadySent = errors.New("data has already been sent, start a new batch")

// UsageError reports a call the caller could have avoided, such as reusing a closed batch.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that the server did not answer within the configured timeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "socket timed out after " + strconv.FormatFloat(e.Timeout.Seconds(), 'f', -1, 64) + " seconds"
}

// TransportError carries the underlying socket error of a failed exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that does not start with the expected header.
type ProtocolError struct {
	Received []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("got invalid response from server: %q", prefix(e.Received, headerLen))
}

// DecodeError reports a response payload that is not valid UTF-8 JSON.
type DecodeError struct {
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func prefix(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

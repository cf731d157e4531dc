package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
	"unicode/utf8"
)

const readChunkSize = 4096

// Batch is an ordered, single-use list of items. A Batch is not safe for
// concurrent use; callers must serialize Add and Send on the same batch.
//
// The first failing Add is remembered and returned by Err and by Send.
type Batch struct {
	sender *Sender
	items  []Item
	closed bool
	err    error
}

// Add appends one item built from key and value. Host, clock and ns default from
// the Sender unless overridden by opts.
func (b *Batch) Add(key string, value float64, opts ...EntryOption) *Batch {
	if !b.usable("add") {
		return b
	}
	var fields entryFields
	for _, opt := range opts {
		opt(&fields)
	}
	b.items = append(b.items, b.sender.newItem(key, value, fields))
	return b
}

// AddArgs appends one item using positional optional arguments, in any of the shapes
//
//	key, value, host
//	key, value, clock
//	key, value, clock, host
//	key, value, clock, ns, host
//
// where a string is a host and a number is a clock or ns offset.
func (b *Batch) AddArgs(key string, value float64, args ...interface{}) *Batch {
	if !b.usable("add") {
		return b
	}
	fields, err := resolveArgs(args)
	if err != nil {
		b.err = &UsageError{Op: "add", Err: err}
		return b
	}
	b.items = append(b.items, b.sender.newItem(key, value, fields))
	return b
}

// AddItem appends item verbatim.
func (b *Batch) AddItem(item Item) *Batch {
	if !b.usable("add") {
		return b
	}
	b.items = append(b.items, item)
	return b
}

func (b *Batch) usable(op string) bool {
	if b.closed {
		b.err = &UsageError{Op: op, Err: ErrAlreadySent}
		return false
	}
	return b.err == nil
}

// Err returns the first error recorded by an Add call.
func (b *Batch) Err() error {
	return b.err
}

func (b *Batch) Len() int {
	return len(b.items)
}

// Items returns the items in transmission order.
func (b *Batch) Items() []Item {
	return b.items
}

// Closed reports whether the batch has been sent successfully.
func (b *Batch) Closed() bool {
	return b.closed
}

// Payload renders the JSON document of the request. The request level clock is
// taken at the time of this call.
func (b *Batch) Payload() ([]byte, error) {
	req := request{
		Request: senderDataRequest,
		Data:    b.items,
	}
	if req.Data == nil {
		req.Data = []Item{}
	}
	if b.sender.timestamps {
		clock := epochSeconds(b.sender.now())
		req.Clock = &clock
		if b.sender.nsTiming {
			ns := fractionNanos(clock)
			req.NS = &ns
		}
	}
	return json.Marshal(req)
}

// Send ships the batch in one TCP exchange and returns the server's response.
// The batch is closed only when a well-formed response was received; after any
// error it can be sent again.
func (b *Batch) Send(ctx context.Context) (*Response, error) {
	if b.closed {
		return nil, &UsageError{Op: "send", Err: ErrAlreadySent}
	}
	if b.err != nil {
		return nil, b.err
	}

	payload, err := b.Payload()
	if err != nil {
		return nil, &UsageError{Op: "send", Err: fmt.Errorf("failed to encode: %w", err)}
	}

	received, err := b.sender.exchange(ctx, EncodeFrame(payload))
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(received)
	if err != nil {
		return nil, err
	}
	b.closed = true
	return resp, nil
}

func parseResponse(received []byte) (*Response, error) {
	body, err := DecodeFrame(received)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, &DecodeError{Payload: body, Err: errors.New("payload is not valid UTF-8")}
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Payload: body, Err: err}
	}
	return &resp, nil
}

// exchange writes frame and collects everything the server sends until it
// closes the connection. The timeout applies to connecting and to every idle
// period while writing and reading.
func (s *Sender) exchange(ctx context.Context, frame []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.Endpoint())
	if err != nil {
		return nil, s.exchangeError(ctx, "connect", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, s.exchangeError(ctx, "send", err)
	}
	if _, err := conn.Write(frame); err != nil {
		return nil, s.exchangeError(ctx, "send", err)
	}

	var response bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, s.exchangeError(ctx, "receive", err)
		}
		n, err := conn.Read(chunk)
		response.Write(chunk[:n])
		if err == io.EOF {
			return response.Bytes(), nil
		}
		if err != nil {
			return nil, s.exchangeError(ctx, "receive", err)
		}
	}
}

func (s *Sender) exchangeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return &TransportError{Op: op, Err: ctx.Err()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Timeout: s.timeout}
	}
	return &TransportError{Op: op, Err: err}
}

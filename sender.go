package sender

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort      = 10051
	DefaultTimeout   = 5 * time.Second
	fallbackHostname = "localhost"
)

// Config declares the connection target and timestamp behavior of a Sender.
// Zero values of Port, Timeout and Hostname select the defaults.
type Config struct {
	Address string
	Port    int
	Timeout time.Duration
	// Timestamps attaches a clock, in seconds, to every item and to the request.
	Timestamps bool
	// NsTiming attaches a nanosecond offset next to the clock. Implies Timestamps.
	NsTiming bool
	// Hostname is the default target host of added items.
	Hostname string
}

// Sender is the immutable result of a Config. It is safe for concurrent use
// by any number of batches.
type Sender struct {
	address    string
	port       int
	timeout    time.Duration
	timestamps bool
	nsTiming   bool
	hostname   string

	now func() time.Time
}

func NewSender(config Config) (*Sender, error) {
	if config.Address == "" {
		return nil, errors.New("address is required")
	}

	s := &Sender{
		address:    config.Address,
		port:       config.Port,
		timeout:    config.Timeout,
		timestamps: config.Timestamps || config.NsTiming,
		nsTiming:   config.NsTiming,
		hostname:   config.Hostname,
		now:        time.Now,
	}
	if s.port == 0 {
		s.port = DefaultPort
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.hostname == "" {
		s.hostname = localHostname()
	}
	return s, nil
}

func localHostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallbackHostname
	}
	return name
}

func (s *Sender) Address() string {
	return s.address
}

func (s *Sender) Port() int {
	return s.port
}

// Endpoint is the host:port dialed by Send.
func (s *Sender) Endpoint() string {
	return net.JoinHostPort(s.address, strconv.Itoa(s.port))
}

func (s *Sender) Timeout() time.Duration {
	return s.timeout
}

func (s *Sender) Timestamps() bool {
	return s.timestamps
}

func (s *Sender) NsTiming() bool {
	return s.nsTiming
}

func (s *Sender) Hostname() string {
	return s.hostname
}

// NewBatch starts an empty batch bound to this sender.
func (s *Sender) NewBatch() *Batch {
	return &Batch{sender: s}
}

// Add starts a new batch holding a single item.
func (s *Sender) Add(key string, value float64, opts ...EntryOption) *Batch {
	return s.NewBatch().Add(key, value, opts...)
}

// AddItem starts a new batch holding item as given.
func (s *Sender) AddItem(item Item) *Batch {
	return s.NewBatch().AddItem(item)
}

// Send ships a single value in its own batch.
func (s *Sender) Send(ctx context.Context, key string, value float64, opts ...EntryOption) (*Response, error) {
	return s.Add(key, value, opts...).Send(ctx)
}

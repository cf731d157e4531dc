package sender

import (
	"fmt"
	"math"
	"time"
)

// Item is one value as transmitted in the "data" list of a request.
type Item struct {
	Host  string   `json:"host"`
	Key   string   `json:"key"`
	Value float64  `json:"value"`
	Clock *float64 `json:"clock,omitempty"`
	NS    *int64   `json:"ns,omitempty"`
}

type entryFields struct {
	host  *string
	clock *float64
	ns    *int64
}

// EntryOption overrides one of the fields that Add otherwise derives from the Sender.
type EntryOption func(*entryFields)

// WithHost attributes the item to host instead of the sender's default hostname.
func WithHost(host string) EntryOption {
	return func(f *entryFields) {
		f.host = &host
	}
}

// WithClock sets the capture time in epoch seconds. Ignored unless the sender
// has timestamps enabled.
func WithClock(clock float64) EntryOption {
	return func(f *entryFields) {
		f.clock = &clock
	}
}

// WithTime is WithClock for a time.Time. The nanosecond part is kept as the
// fractional part of the clock.
func WithTime(t time.Time) EntryOption {
	return WithClock(epochSeconds(t))
}

// WithNS sets the nanosecond offset. Ignored unless the sender has nanosecond timing enabled.
func WithNS(ns int64) EntryOption {
	return func(f *entryFields) {
		f.ns = &ns
	}
}

// newItem is the single place items are built. Clock defaults to the time of the
// call and ns to the fractional part of the clock.
func (s *Sender) newItem(key string, value float64, fields entryFields) Item {
	item := Item{
		Host:  s.hostname,
		Key:   key,
		Value: value,
	}
	if fields.host != nil {
		item.Host = *fields.host
	}
	if !s.timestamps {
		return item
	}

	clock := epochSeconds(s.now())
	if fields.clock != nil {
		clock = *fields.clock
	}
	item.Clock = &clock

	if s.nsTiming {
		ns := fractionNanos(clock)
		if fields.ns != nil {
			ns = *fields.ns
		}
		item.NS = &ns
	}
	return item
}

// resolveArgs applies the positional rules inherited from the untyped sender API:
// the third argument is a host when it is a string and a clock when it is a number,
// a numeric fourth argument is the ns offset, and the host is taken from the first
// string among the third, fourth and fifth arguments.
func resolveArgs(args []interface{}) (entryFields, error) {
	var fields entryFields
	if len(args) > 3 {
		return fields, fmt.Errorf("at most 3 optional arguments are accepted, got %d", len(args))
	}

	for i, arg := range args {
		if host, ok := arg.(string); ok {
			if fields.host == nil {
				fields.host = &host
			}
			continue
		}
		n, ok := toFloat(arg)
		if !ok {
			return fields, fmt.Errorf("argument %d has unsupported type %T", i+3, arg)
		}
		switch i {
		case 0:
			fields.clock = &n
		case 1:
			ns := int64(n)
			fields.ns = &ns
		default:
			return fields, fmt.Errorf("argument %d must be a host name, got %T", i+3, arg)
		}
	}
	return fields, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// fractionNanos is never negative; clocks before the epoch get an ns of 0.
func fractionNanos(clock float64) int64 {
	ns := int64(math.Mod(clock, 1) * float64(time.Second))
	if ns < 0 {
		return 0
	}
	return ns
}

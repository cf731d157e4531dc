package sender

import (
	"fmt"
	"time"

	protocol "github.com/influxdata/line-protocol"
)

const (
	// HostTag names the tag that selects the target host of a converted metric.
	HostTag = "host"
	// valueField is the field name that maps to the bare metric name as key.
	valueField = "value"
)

// SimpleMetric is a minimal protocol.Metric for callers that have no Influx
// implementation of their own.
type SimpleMetric struct {
	name      string
	tags      []*protocol.Tag
	fields    []*protocol.Field
	timestamp time.Time
}

func NewSimpleMetric(name string) *SimpleMetric {
	return &SimpleMetric{name: name}
}

// SetTime fixes the capture time. Without it Time reports the current time.
func (m *SimpleMetric) SetTime(t time.Time) {
	m.timestamp = t
}

func (m *SimpleMetric) Time() time.Time {
	if m.timestamp.IsZero() {
		return time.Now()
	}
	return m.timestamp
}

func (m *SimpleMetric) Name() string {
	return m.name
}

func (m *SimpleMetric) TagList() []*protocol.Tag {
	return m.tags
}

func (m *SimpleMetric) FieldList() []*protocol.Field {
	return m.fields
}

func (m *SimpleMetric) AddTag(key, value string) {
	m.tags = append(m.tags, &protocol.Tag{Key: key, Value: value})
}

// SetHost is AddTag with HostTag.
func (m *SimpleMetric) SetHost(host string) {
	m.AddTag(HostTag, host)
}

func (m *SimpleMetric) AddField(key string, value interface{}) {
	m.fields = append(m.fields, &protocol.Field{Key: key, Value: value})
}

// AddMetric appends one item per field of m. The key is "<name>.<field>", or just
// the name for a field called "value". The host comes from the "host" tag when
// present. Clock and ns are taken from m.Time() when the sender enables them.
func (b *Batch) AddMetric(m protocol.Metric) *Batch {
	if !b.usable("add") {
		return b
	}
	items, err := b.sender.metricItems(m)
	if err != nil {
		b.err = &UsageError{Op: "add", Err: err}
		return b
	}
	b.items = append(b.items, items...)
	return b
}

func (s *Sender) metricItems(m protocol.Metric) ([]Item, error) {
	var fields entryFields
	for _, tag := range m.TagList() {
		if tag.Key == HostTag {
			host := tag.Value
			fields.host = &host
		}
	}
	t := m.Time()
	clock := epochSeconds(t)
	ns := int64(t.Nanosecond())
	fields.clock = &clock
	fields.ns = &ns

	items := make([]Item, 0, len(m.FieldList()))
	for _, field := range m.FieldList() {
		value, err := fieldValue(field.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", field.Key, m.Name(), err)
		}
		key := m.Name()
		if field.Key != valueField {
			key += "." + field.Key
		}
		items = append(items, s.newItem(key, value, fields))
	}
	return items, nil
}

func fieldValue(v interface{}) (float64, error) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	if n, ok := toFloat(v); ok {
		return n, nil
	}
	return 0, fmt.Errorf("unsupported value type %T", v)
}

package sender

import (
	"context"
	"errors"
	"sync"
	"time"

	protocol "github.com/influxdata/line-protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const ItemsChanSize = 100

type ErrorListener func(err error)

type ResponseListener func(resp *Response)

// ClientConfig configures a buffered Client. With neither BatchSize nor
// BatchTimeout set, every item is sent on its own.
type ClientConfig struct {
	Sender       *Sender
	BatchSize    int
	BatchTimeout time.Duration
	ErrorListener
	ResponseListener
	// Registerer receives the client's counters when set.
	Registerer prometheus.Registerer
}

// Client ships items in the background. Failed batches are reported to the
// ErrorListener and dropped. Once the context is done, Send and Flush discard
// their input instead of blocking.
type Client interface {
	Send(item Item)
	SendMetric(m protocol.Metric)
	Flush()
}

func NewClient(ctx context.Context, config ClientConfig) (Client, error) {
	if config.Sender == nil {
		return nil, errors.New("sender is required")
	}
	stats := newClientStats()
	if config.Registerer != nil {
		if err := stats.register(config.Registerer); err != nil {
			return nil, err
		}
	}
	return &clientImpl{
		ctx:    ctx,
		config: config,
		stats:  stats,
	}, nil
}

type clientImpl struct {
	ctx         context.Context
	config      ClientConfig
	stats       *clientStats
	items       chan *Item
	processSync sync.Once
}

func (c *clientImpl) start() {
	c.processSync.Do(func() {
		c.items = make(chan *Item, ItemsChanSize)
		go c.processItems()
	})
}

func (c *clientImpl) Flush() {
	c.start()
	select {
	case c.items <- nil:
	case <-c.ctx.Done():
	}
}

func (c *clientImpl) Send(item Item) {
	c.start()
	select {
	case c.items <- &item:
	case <-c.ctx.Done():
	}
}

// SendMetric converts m with the client's sender and queues the resulting items.
func (c *clientImpl) SendMetric(m protocol.Metric) {
	items, err := c.config.Sender.metricItems(m)
	if err != nil {
		c.reportError(&UsageError{Op: "add", Err: err})
		return
	}
	for _, item := range items {
		c.Send(item)
	}
}

func (c *clientImpl) processItems() {

	batch := make([]Item, 0, c.config.BatchSize)

	var batchTimerChan <-chan time.Time

	for {
		reset := false

		select {
		case <-c.ctx.Done():
			return

		case item := <-c.items:
			if item == nil {
				c.flush(batch)
				reset = true
			} else {
				batch = append(batch, *item)
				if c.shouldFlush(len(batch)) {
					c.flush(batch)
					reset = true
				} else if batchTimerChan == nil && c.config.BatchTimeout != 0 {
					batchTimerChan = time.After(c.config.BatchTimeout)
				}
			}

		case <-batchTimerChan:
			c.flush(batch)
			reset = true
		}

		if reset {
			batch = batch[0:0]
			// and "clear" timer
			batchTimerChan = nil
		}
	}
}

func (c *clientImpl) shouldFlush(currentBatchSize int) bool {
	if c.config.BatchSize == 0 && c.config.BatchTimeout == 0 {
		return true
	}

	if c.config.BatchSize > 0 && currentBatchSize >= c.config.BatchSize {
		return true
	}
	return false
}

func (c *clientImpl) flush(items []Item) {
	if len(items) == 0 {
		return
	}

	b := c.config.Sender.NewBatch()
	for _, item := range items {
		b.AddItem(item)
	}

	resp, err := b.Send(c.ctx)
	if err != nil {
		c.stats.failed.Inc()
		c.reportError(err)
		return
	}
	c.stats.sent.Inc()
	c.stats.items.Add(float64(len(items)))
	if c.config.ResponseListener != nil {
		c.config.ResponseListener(resp)
	}
}

func (c *clientImpl) reportError(err error) {
	if c.config.ErrorListener != nil {
		c.config.ErrorListener(err)
	}
}

type clientStats struct {
	sent   prometheus.Counter
	failed prometheus.Counter
	items  prometheus.Counter
}

func newClientStats() *clientStats {
	return &clientStats{
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zabbix_sender_batches_sent_total",
			Help: "Batches acknowledged by the server.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zabbix_sender_batches_failed_total",
			Help: "Batches dropped after a failed exchange.",
		}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zabbix_sender_items_sent_total",
			Help: "Items contained in acknowledged batches.",
		}),
	}
}

func (s *clientStats) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{s.sent, s.failed, s.items} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

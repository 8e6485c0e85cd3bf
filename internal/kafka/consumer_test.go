package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) snapshot() ([]int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64{}, f.committed...), f.closed
}

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// attempts counts handler calls per offset.
type attempts struct {
	mu sync.Mutex
	n  map[int64]int
}

func (a *attempts) inc(off int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.n == nil {
		a.n = map[int64]int{}
	}
	a.n[off]++
	return a.n[off]
}

func (a *attempts) get(off int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n[off]
}

func startConsumer(t *testing.T, c *Consumer, h Handler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func fastConsumer(fr reader, workers int) *Consumer {
	c := newConsumer(fr, workers, quietLog())
	c.minBackoff = time.Millisecond
	c.maxBackoff = 5 * time.Millisecond
	return c
}

func TestConsumerRetriesFailedMessageBeforeLaterOffsets(t *testing.T) {
	fr := &fakeReader{msgs: make(chan kafka.Message, 10)}
	for i := int64(0); i < 3; i++ {
		fr.msgs <- kafka.Message{Partition: 0, Offset: i}
	}

	var calls attempts
	var order []int64
	var mu sync.Mutex
	last := make(chan struct{})
	h := func(_ context.Context, m kafka.Message) error {
		if m.Offset == 0 && calls.inc(0) <= 2 {
			return errors.New("db unavailable")
		}
		mu.Lock()
		order = append(order, m.Offset)
		mu.Unlock()
		if m.Offset == 2 {
			close(last)
		}
		return nil
	}

	stop := startConsumer(t, fastConsumer(fr, 3), h)
	select {
	case <-last:
	case <-time.After(2 * time.Second):
		t.Fatal("messages were not handled")
	}
	stop()

	committed, closed := fr.snapshot()
	assert.Equal(t, []int64{0, 1, 2}, committed)
	assert.Equal(t, []int64{0, 1, 2}, order)
	assert.Equal(t, 3, calls.get(0))
	assert.True(t, closed)
}

func TestConsumerLeavesFailingMessageUncommittedOnShutdown(t *testing.T) {
	fr := &fakeReader{msgs: make(chan kafka.Message, 10)}
	fr.msgs <- kafka.Message{Partition: 0, Offset: 0}
	fr.msgs <- kafka.Message{Partition: 0, Offset: 1}

	var calls attempts
	h := func(_ context.Context, m kafka.Message) error {
		calls.inc(m.Offset)
		if m.Offset == 0 {
			return errors.New("db unavailable")
		}
		return nil
	}

	stop := startConsumer(t, fastConsumer(fr, 1), h)
	require.Eventually(t, func() bool { return calls.get(0) >= 3 }, 2*time.Second, time.Millisecond)
	stop()

	committed, _ := fr.snapshot()
	assert.Empty(t, committed)
	assert.Zero(t, calls.get(1), "later offset must wait for the failing one")
}

func TestConsumerKeepsOtherPartitionsMoving(t *testing.T) {
	fr := &fakeReader{msgs: make(chan kafka.Message, 10)}
	fr.msgs <- kafka.Message{Partition: 0, Offset: 10}
	fr.msgs <- kafka.Message{Partition: 1, Offset: 20}
	fr.msgs <- kafka.Message{Partition: 1, Offset: 21}

	h := func(_ context.Context, m kafka.Message) error {
		if m.Partition == 0 {
			return errors.New("db unavailable")
		}
		return nil
	}

	stop := startConsumer(t, fastConsumer(fr, 2), h)
	require.Eventually(t, func() bool {
		committed, _ := fr.snapshot()
		return len(committed) == 2
	}, 2*time.Second, time.Millisecond)
	stop()

	committed, _ := fr.snapshot()
	assert.Equal(t, []int64{20, 21}, committed)
}

type brokenReader struct{ fakeReader }

func (b *brokenReader) FetchMessage(context.Context) (kafka.Message, error) {
	return kafka.Message{}, io.ErrUnexpectedEOF
}

func TestConsumerReturnsReaderError(t *testing.T) {
	c := newConsumer(&brokenReader{}, 0, quietLog())
	err := c.Start(context.Background(), func(context.Context, kafka.Message) error { return nil })
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 1, c.workers)
}

func TestProducerDropsWhenFullOrClosed(t *testing.T) {
	p := NewProducer([]string{"localhost:0"}, "bookstore.orders", 1, quietLog())

	p.Publish([]byte("o1"), []byte("a"))
	p.Publish([]byte("o2"), []byte("b"))
	assert.Len(t, p.inbox, 1)

	p.Close()
	p.Close()
	assert.NotPanics(t, func() { p.Publish([]byte("o3"), []byte("c")) })
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
	}
	p, err := UnwrapPayload[payload](MustMarshal(map[string]string{"order_id": "o1"}))
	require.NoError(t, err)
	assert.Equal(t, "o1", p.OrderID)

	_, err = UnwrapPayload[payload]([]byte("{"))
	assert.ErrorContains(t, err, "decode payload")
}

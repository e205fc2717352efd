package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("cancel removes subscriber", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		ctx, cancel := context.WithCancel(context.Background())

		ch := broker.Subscribe(ctx)
		assert.NotNil(t, ch)
		assert.Equal(t, 1, broker.GetSubscriberCount())

		cancel()
		assert.Eventually(t, func() bool { return broker.GetSubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-ch
		assert.False(t, ok)
	})

	t.Run("shutdown closes channels", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		ch1 := broker.Subscribe(context.Background())
		ch2 := broker.Subscribe(context.Background())
		require.Equal(t, 2, broker.GetSubscriberCount())

		broker.Shutdown()
		broker.Shutdown()

		_, ok1 := <-ch1
		_, ok2 := <-ch2
		assert.False(t, ok1)
		assert.False(t, ok2)
		assert.Equal(t, 0, broker.GetSubscriberCount())

		late := broker.Subscribe(context.Background())
		_, ok := <-late
		assert.False(t, ok, "subscribe after shutdown yields a closed channel")
	})

	t.Run("concurrent shutdown", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		ch := broker.Subscribe(context.Background())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NotPanics(t, broker.Shutdown)
			}()
		}
		wg.Wait()

		_, ok := <-ch
		assert.False(t, ok)
	})
}

func TestBrokerPublish(t *testing.T) {
	t.Parallel()
	broker := NewBroker[int]()
	ch := broker.Subscribe(t.Context())

	broker.Publish(EventTypeUpdated, 7)

	select {
	case ev := <-ch:
		assert.Equal(t, EventTypeUpdated, ev.Type)
		assert.Equal(t, 7, ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBrokerPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	t.Parallel()
	broker := NewBroker[int]()
	_ = broker.Subscribe(t.Context())

	done := make(chan struct{})
	go func() {
		for i := 0; i < bufferSize*4; i++ {
			broker.Publish(EventTypeUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

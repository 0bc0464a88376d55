package sources_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/arielf-camacho/fanin/helpers"
	"github.com/arielf-camacho/fanin/sources"
)

type subStep struct {
	data string
	err  error
}

// fakeSubscription replays its steps and then blocks until the context is
// done, or reports nats.ErrConnectionClosed when closeAfter is set.
type fakeSubscription struct {
	mu           sync.Mutex
	steps        []subStep
	closeAfter   bool
	unsubscribed atomic.Bool
}

func (f *fakeSubscription) NextMsgWithContext(ctx context.Context) (*nats.Msg, error) {
	f.mu.Lock()
	if len(f.steps) > 0 {
		step := f.steps[0]
		f.steps = f.steps[1:]
		f.mu.Unlock()

		if step.err != nil {
			return nil, step.err
		}
		return &nats.Msg{Subject: "events", Data: []byte(step.data)}, nil
	}
	f.mu.Unlock()

	if f.closeAfter {
		return nil, nats.ErrConnectionClosed
	}

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSubscription) Unsubscribe() error {
	f.unsubscribed.Store(true)
	return nil
}

func TestNATSSource_Forward(t *testing.T) {
	t.Parallel()

	decode := func(msg *nats.Msg) (string, error) {
		if string(msg.Data) == "bad" {
			return "", errors.New("undecodable")
		}
		return string(msg.Data), nil
	}

	cases := map[string]struct {
		expected    []string
		expectedErr error
		collector   *helpers.Collector[string]
		sub         func() *fakeSubscription
		ctx         func() (context.Context, context.CancelFunc)
	}{
		"forwards-messages-until-connection-closes": {
			expected:    []string{"a", "b"},
			expectedErr: nats.ErrConnectionClosed,
			collector:   helpers.NewCollector[string](),
			sub: func() *fakeSubscription {
				return &fakeSubscription{
					steps:      []subStep{{data: "a"}, {data: "b"}},
					closeAfter: true,
				}
			},
		},
		"retries-timeouts": {
			expected:    []string{"a", "b"},
			expectedErr: nats.ErrConnectionClosed,
			collector:   helpers.NewCollector[string](),
			sub: func() *fakeSubscription {
				return &fakeSubscription{
					steps:      []subStep{{data: "a"}, {err: nats.ErrTimeout}, {data: "b"}},
					closeAfter: true,
				}
			},
		},
		"skips-undecodable-messages": {
			expected:    []string{"a", "b"},
			expectedErr: nats.ErrConnectionClosed,
			collector:   helpers.NewCollector[string](),
			sub: func() *fakeSubscription {
				return &fakeSubscription{
					steps:      []subStep{{data: "a"}, {data: "bad"}, {data: "b"}},
					closeAfter: true,
				}
			},
		},
		"bad-subscription-is-terminal": {
			expected:    []string{"a"},
			expectedErr: nats.ErrBadSubscription,
			collector:   helpers.NewCollector[string](),
			sub: func() *fakeSubscription {
				return &fakeSubscription{
					steps: []subStep{{data: "a"}, {err: nats.ErrBadSubscription}, {data: "b"}},
				}
			},
		},
		"stops-when-sink-is-gone": {
			expected:  []string{"a"},
			collector: helpers.NewCollector[string]().FailAfter(1),
			sub: func() *fakeSubscription {
				return &fakeSubscription{
					steps: []subStep{{data: "a"}, {data: "b"}},
				}
			},
		},
		"stops-when-context-is-done": {
			expected:  []string{"a"},
			collector: helpers.NewCollector[string](),
			sub: func() *fakeSubscription {
				return &fakeSubscription{steps: []subStep{{data: "a"}}}
			},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// Given
			ctx, cancel := context.WithCancel(context.Background())
			if c.ctx != nil {
				ctx, cancel = c.ctx()
			}
			defer cancel()

			var reported error
			sub := c.sub()
			source := sources.NATS(sub, decode).
				Context(ctx).
				ErrorHandler(func(err error) { reported = err }).
				Build()

			// When
			source.Forward(c.collector)

			// Then
			assert.Equal(t, c.expected, c.collector.Items())
			assert.True(t, sub.unsubscribed.Load())
			if c.expectedErr != nil {
				assert.ErrorIs(t, reported, c.expectedErr)
			} else {
				assert.NoError(t, reported)
			}
		})
	}
}

func TestSubscribeNATS_NilConnection(t *testing.T) {
	t.Parallel()

	// When
	sub, err := sources.SubscribeNATS(nil, "events")

	// Then
	assert.Nil(t, sub)
	assert.Error(t, err)
}

func TestNATSData(t *testing.T) {
	t.Parallel()

	// When
	data, err := sources.NATSData(&nats.Msg{Data: []byte("payload")})

	// Then
	assert.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

package sinks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arielf-camacho/fanin/multiplex"
	"github.com/arielf-camacho/fanin/primitives"
	"github.com/arielf-camacho/fanin/sinks"
	"github.com/arielf-camacho/fanin/sources"
)

func TestReduceSink_From(t *testing.T) {
	t.Parallel()

	errTooBig := errors.New("too big")
	sum := func(result int, value int, _ uint) (int, error) {
		return result + value, nil
	}

	cases := map[string]struct {
		expected    int
		expectedErr error
		fn          func(result int, value int, index uint) (int, error)
		producers   func() []primitives.Producer[int]
	}{
		"sums-all-producers": {
			expected: 21,
			fn:       sum,
			producers: func() []primitives.Producer[int] {
				return []primitives.Producer[int]{
					sources.Slice([]int{1, 2, 3}).Build(),
					sources.Slice([]int{4, 5, 6}).Build(),
				}
			},
		},
		"no-producers": {
			expected: 0,
			fn:       sum,
			producers: func() []primitives.Producer[int] {
				return nil
			},
		},
		"stops-on-error": {
			expected:    1,
			expectedErr: errTooBig,
			fn: func(result int, value int, _ uint) (int, error) {
				if value > 1 {
					return result, errTooBig
				}
				return result + value, nil
			},
			producers: func() []primitives.Producer[int] {
				return []primitives.Producer[int]{sources.Slice([]int{1, 2, 3}).Build()}
			},
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// Given
			var reported error
			rx := multiplex.Start(c.producers()...)
			defer rx.Close()
			sink := sinks.Reduce(c.fn, 0).
				ErrorHandler(func(err error, _ uint, _ int, _ int) { reported = err }).
				Build()

			// When
			require.NoError(t, sink.From(rx).Wait())

			// Then
			assert.Equal(t, c.expected, sink.Result())
			assert.ErrorIs(t, reported, c.expectedErr)
		})
	}

	t.Run("panics-on-second-From", func(t *testing.T) {
		t.Parallel()

		// Given
		sink := sinks.Reduce(sum, 0).Build()
		sink.From(multiplex.Start[int]())

		// Then
		assert.Panics(t, func() { sink.From(multiplex.Start[int]()) })
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriterSink_From(t *testing.T) {
	t.Parallel()

	t.Run("writes-every-value", func(t *testing.T) {
		t.Parallel()

		// Given
		var buf bytes.Buffer
		rx := multiplex.Start[string](sources.Slice([]string{"a", "b", "c"}).Build())

		// When
		err := sinks.Writer(&buf, sinks.Lines[string]).Build().From(rx).Wait()

		// Then
		require.NoError(t, err)
		assert.Equal(t, "a\nb\nc\n", buf.String())
	})

	t.Run("reports-write-errors", func(t *testing.T) {
		t.Parallel()

		// Given
		rx := multiplex.Start[string](sources.Slice([]string{"a"}).Build())
		defer rx.Close()

		// When
		err := sinks.Writer(failingWriter{}, sinks.Lines[string]).Build().From(rx).Wait()

		// Then
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("stops-when-context-is-done", func(t *testing.T) {
		t.Parallel()

		// Given
		var buf bytes.Buffer
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rx := multiplex.Start[string](sources.Channel(make(chan string)).Build())
		defer rx.Close()

		// When
		err := sinks.Writer(&buf, sinks.Lines[string]).Context(ctx).Build().From(rx).Wait()

		// Then
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

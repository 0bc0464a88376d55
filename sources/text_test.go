package sources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/arielf-camacho/fanin/sources"
)

func TestText(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		decode   func([]byte) (string, error)
		input    []byte
		expected string
	}{
		"utf8": {
			decode:   sources.UTF8Text,
			input:    []byte("1234"),
			expected: "1234",
		},
		"utf8-replaces-invalid-bytes": {
			decode:   sources.UTF8Text,
			input:    []byte{'f', 0xff, 'o'},
			expected: "f\uFFFDo",
		},
		"latin1": {
			decode:   sources.Text(charmap.ISO8859_1),
			input:    []byte{'c', 'a', 'f', 0xe9},
			expected: "café",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// When
			result, err := c.decode(c.input)

			// Then
			require.NoError(t, err)
			assert.Equal(t, c.expected, result)
		})
	}
}

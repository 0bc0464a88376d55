package sources_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arielf-camacho/fanin/helpers"
	"github.com/arielf-camacho/fanin/sources"
)

func TestMapProducer_Forward(t *testing.T) {
	t.Parallel()

	t.Run("translates-values", func(t *testing.T) {
		t.Parallel()

		// Given
		source := sources.Map(sources.Slice([]int{1, 2, 3}).Build(), strconv.Itoa)
		collector := helpers.NewCollector[string]()

		// When
		source.Forward(collector)

		// Then
		assert.Equal(t, []string{"1", "2", "3"}, collector.Items())
	})

	t.Run("propagates-sink-failure", func(t *testing.T) {
		t.Parallel()

		// Given
		source := sources.Map(sources.Slice([]int{1, 2, 3}).Build(), strconv.Itoa)
		collector := helpers.NewCollector[string]().FailAfter(1)

		// When
		source.Forward(collector)

		// Then
		assert.Equal(t, []string{"1"}, collector.Items())
	})
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelValid(t *testing.T) {
	t.Parallel()

	assert.True(t, LabelManufacturer.Valid())
	assert.True(t, LabelTrader.Valid())
	assert.True(t, LabelUnclear.Valid())
	assert.False(t, Label("wholesaler").Valid())
	assert.False(t, Label("").Valid())
}

func TestLabelRank(t *testing.T) {
	t.Parallel()

	t.Run("manufacturer before trader before unclear", func(t *testing.T) {
		t.Parallel()
		assert.Less(t, LabelManufacturer.Rank(), LabelTrader.Rank())
		assert.Less(t, LabelTrader.Rank(), LabelUnclear.Rank())
	})

	t.Run("unknown labels sort last", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, LabelUnclear.Rank(), Label("bogus").Rank())
	})
}

func TestLabelStringValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "manufacturer", string(LabelManufacturer))
	assert.Equal(t, "trader", string(LabelTrader))
	assert.Equal(t, "unclear", string(LabelUnclear))
}

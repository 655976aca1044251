package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageCost(t *testing.T) {
	// 10 units at 2.50 plus 10 incoming at 3.50 -> 3.00
	assert.Equal(t, int64(300), weightedAverageCost(10, 250, 10, 350))

	// uneven blend rounds to whole cents: (5*100 + 3*200) / 8 = 137.5 -> 138
	assert.Equal(t, int64(138), weightedAverageCost(5, 100, 3, 200))

	// no existing stock: incoming cost wins
	assert.Equal(t, int64(420), weightedAverageCost(0, 999, 7, 420))

	// negative stock treated the same as empty
	assert.Equal(t, int64(420), weightedAverageCost(-2, 999, 7, 420))

	// incoming at the same cost leaves the average unchanged
	assert.Equal(t, int64(250), weightedAverageCost(100, 250, 50, 250))
}

package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleWrapsInOrder(t *testing.T) {
	c := NewCycle([]string{"a", "b", "c"})
	got := []string{c.Next(), c.Next(), c.Next(), c.Next()}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestCycleEmptyPalette(t *testing.T) {
	assert.Equal(t, FallbackColor, NewCycle(nil).Next())
}

func TestLookups(t *testing.T) {
	m, ok := CategoryMeta("Groceries")
	assert.True(t, ok)
	assert.Equal(t, Meta{Icon: "shopping_cart", Color: "green"}, m)

	_, ok = CategoryMeta("Pets")
	assert.False(t, ok)

	assert.Equal(t, "work", StreamIcon("Salary"))
	assert.Equal(t, DefaultStreamIcon, StreamIcon("Lottery"))

	assert.Equal(t, "#f97316", SwatchFor("orange").Text)
	assert.Equal(t, SwatchFor("blue"), SwatchFor("no-such-color"))
}

package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockerPhases(t *testing.T) {
	c := NewClocker()
	assert.Empty(t, c.Results(), "no phases before the first record")

	time.Sleep(20 * time.Millisecond)
	c.Record("hire")
	time.Sleep(10 * time.Millisecond)
	c.Record("wait")

	results := c.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "hire", results[0].Label)
	assert.Equal(t, "wait", results[1].Label)
	assert.GreaterOrEqual(t, results[0].Duration, 15*time.Millisecond)
	assert.GreaterOrEqual(t, results[1].Duration, 5*time.Millisecond)
}

func TestClockerDuration(t *testing.T) {
	c := NewClocker()
	c.Record("first")
	c.Record("second")

	_, ok := c.Duration("missing")
	assert.False(t, ok)

	d, ok := c.Duration("first")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, d, time.Duration(0))

	// Empty label means the last phase.
	last, ok := c.Duration("")
	assert.True(t, ok)
	secondD, _ := c.Duration("second")
	assert.Equal(t, secondD, last)
}

func TestClockerReset(t *testing.T) {
	c := NewClocker()
	c.Record("before")
	require.Len(t, c.Results(), 1)

	c.Reset()
	assert.Empty(t, c.Results())

	_, ok := c.Duration("before")
	assert.False(t, ok)
}

func TestClockerResultsText(t *testing.T) {
	c := NewClocker()
	c.Record("hire")
	c.Record("")
	c.Record("dismiss")

	text := c.ResultsText()
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "hire: "))
	assert.True(t, strings.HasPrefix(lines[1], "(#2): "))
	assert.True(t, strings.HasPrefix(lines[2], "dismiss: "))
	assert.Contains(t, lines[0], "seconds")
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoercions(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "", String(3))

	assert.Equal(t, 3, Int(3))
	assert.Equal(t, 3, Int(int64(3)))
	assert.Equal(t, 3, Int(3.9))
	assert.Equal(t, 0, Int("3"))

	assert.True(t, Bool(true))
	assert.False(t, Bool("true"))

	assert.Equal(t, []string{"a"}, StringSlice([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, StringSlice([]any{"a", 1, "b"}))
	assert.Nil(t, StringSlice("a"))
}

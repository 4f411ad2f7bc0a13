package lg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenRendersFields(t *testing.T) {
	out := flatten(String("task", "check"), Int("attempts", 3))
	assert.Contains(t, out, "task")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "attempts")
	assert.Contains(t, out, "3")
}

func TestFlattenEmpty(t *testing.T) {
	assert.Equal(t, "", flatten())
}

package intutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	assert.Equal(t, -3, Min(4, -3, 7))
	assert.Equal(t, 7, Max(4, -3, 7))
	assert.Equal(t, 2, Min(2))
	assert.Equal(t, 2, Max(2))
}

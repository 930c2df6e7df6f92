package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)

	p.Display()
	assert.Contains(t, out.String(), "|          |")
	assert.Contains(t, out.String(), "0.00%")

	for i := 0; i < 6; i++ {
		p.Increment()
	}
	assert.Equal(t, 1.0, p.Fraction(), "progress exceeds maximum")

	out.Reset()
	p.Display()
	assert.Contains(t, out.String(), "|"+strings.Repeat("█", 10)+"|")
	assert.Contains(t, out.String(), "100.00%")

	out.Reset()
	p.Close()
	assert.Equal(t, "\n", out.String())
}

func TestManualProgressBarHalf(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)
	p.Increment()
	p.Increment()
	p.Display()

	assert.Contains(t, out.String(), "|"+strings.Repeat("█", 5)+
		strings.Repeat(" ", 5)+"|")
	assert.Contains(t, out.String(), "50.00%")
}

package progressbar

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledBarWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriter(&buf, "36-21-31", 10, false, 80)
	b.Add(3)
	b.Finish()
	assert.Empty(t, buf.String())
}

func TestEnabledBarRedraws(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriter(&buf, "36-21-31", 4, true, 60)
	b.Add(1)
	b.Add(1)
	b.Finish()

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r\033[K"))
	assert.Contains(t, out, "36-21-31:  50%|")
	assert.Contains(t, out, " 2/4 [")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLineNarrowTerminal(t *testing.T) {
	b := NewWriter(&bytes.Buffer{}, "g", 0, false, 5)
	assert.True(t, strings.HasPrefix(b.line(), "g: 100%||"))
}

func TestNewOnNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bar")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	b := New(f, "g", 2)
	b.Add(2)
	b.Finish()

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	assert.Zero(t, info.Size())
}

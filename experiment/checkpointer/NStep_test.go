package checkpointer

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder records the filenames it is saved to
type recorder struct {
	saved []string
	err   error
}

func (r *recorder) Save(filename string) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, filename)
	return nil
}

func TestNStep(t *testing.T) {
	obj := &recorder{}
	n, err := NewNStep(3, obj, FilenameEnumerator(0, "net", ".bin"))
	require.NoError(t, err)

	// Steps are counted across episodes
	for episode := 0; episode < 2; episode++ {
		for i := 1; i <= 4; i++ {
			require.NoError(t, n.Checkpoint(ts.New(ts.Mid, 0, nil, i)))
		}
	}
	assert.Equal(t, []string{"net1.bin", "net2.bin"}, obj.saved)
}

func TestNStepErrors(t *testing.T) {
	_, err := NewNStep(0, &recorder{}, FileTimer("net", ".bin"))
	assert.Error(t, err)

	failure := errors.New("disk full")
	n, err := NewNStep(1, &recorder{err: failure}, FileTimer("net", ".bin"))
	require.NoError(t, err)
	assert.ErrorIs(t, n.Checkpoint(ts.TimeStep{}), failure)
}

func TestFileNames(t *testing.T) {
	next := FilenameEnumerator(4, filepath.Join("dir", "file"), ".gob")
	assert.Equal(t, filepath.Join("dir", "file5.gob"), next())
	assert.Equal(t, filepath.Join("dir", "file6.gob"), next())

	timed := FileTimer("file", ".gob")()
	assert.True(t, strings.HasPrefix(timed, "file-"))
	assert.True(t, strings.HasSuffix(timed, ".gob"))
}

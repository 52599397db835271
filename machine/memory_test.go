package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory_MinSize(t *testing.T) {
	assert := assert.New(t)

	_, err := NewMemory(MinSize - 1)
	assert.Error(err)

	m, err := NewMemory(MinSize)
	assert.NoError(err)
	assert.Equal(MinSize, m.Size())
}

func TestMemory_ReadWrite_Bounds(t *testing.T) {
	assert := assert.New(t)

	m, err := NewMemory(100)
	require.NoError(t, err)

	err = m.Write(99, 42)
	assert.NoError(err)

	v, err := m.Read(99)
	assert.NoError(err)
	assert.Equal(Word(42), v)

	_, err = m.Read(100)
	assert.Error(err)
	assert.IsType(OutOfRange{}, err)

	err = m.Write(-1, 0)
	assert.Error(err)
	assert.IsType(OutOfRange{}, err)
}

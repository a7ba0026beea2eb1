package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDDeterministic(t *testing.T) {
	in := InputHash(NewHash([]byte("CustomerId,Exited\n1,0\n")))
	cfg := ComputeConfigHash(map[string]interface{}{"policy": "reject", "workers": 4})

	first := NewRunID(in, cfg)
	second := NewRunID(in, cfg)

	assert.Equal(t, first, second)
	_, err := ParseRunID(first.String())
	require.NoError(t, err)
}

func TestNewRunIDChangesWithInputs(t *testing.T) {
	cfg := ComputeConfigHash(map[string]interface{}{"policy": "reject"})
	a := NewRunID(InputHash(NewHash([]byte("a"))), cfg)
	b := NewRunID(InputHash(NewHash([]byte("b"))), cfg)
	c := NewRunID(InputHash(NewHash([]byte("a"))), ComputeConfigHash(map[string]interface{}{"policy": "drop"}))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestComputeConfigHashOrderIndependent(t *testing.T) {
	m1 := map[string]interface{}{"a": 1, "b": "x", "c": 2.5}
	m2 := map[string]interface{}{"c": 2.5, "a": 1, "b": "x"}

	assert.Equal(t, ComputeConfigHash(m1), ComputeConfigHash(m2))
}

func TestHashReaderMatchesNewHash(t *testing.T) {
	payload := "RowNumber,CustomerId\n1,15634602\n"
	h, err := HashReader(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, NewHash([]byte(payload)), h)
	assert.Len(t, h.Short(), 12)
}

func TestParseRunIDRejectsGarbage(t *testing.T) {
	_, err := ParseRunID("   ")
	assert.Error(t, err)

	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

package testkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerGeneratorDeterministic(t *testing.T) {
	cfg := DefaultCustomerConfig()
	cfg.CustomerCount = 200

	var a, b bytes.Buffer
	require.NoError(t, NewCustomerGenerator(cfg).WriteCSV(&a))
	require.NoError(t, NewCustomerGenerator(cfg).WriteCSV(&b))
	assert.Equal(t, a.String(), b.String())

	cfg.Seed++
	var c bytes.Buffer
	require.NoError(t, NewCustomerGenerator(cfg).WriteCSV(&c))
	assert.NotEqual(t, a.String(), c.String())
}

func TestCustomerGeneratorShape(t *testing.T) {
	cfg := DefaultCustomerConfig()
	cfg.CustomerCount = 500
	cfg.ComplaintRate = 0.3
	rows := NewCustomerGenerator(cfg).Rows()
	require.Len(t, rows, 500)

	complaints, churnedComplaints := 0, 0
	for _, r := range rows {
		assert.Len(t, r, len(cfg.Headers()))
		if r[14] == "1" {
			complaints++
			if r[13] == "1" {
				churnedComplaints++
			}
		}
	}
	assert.InDelta(t, 150, complaints, 50)
	assert.Greater(t, float64(churnedComplaints)/float64(complaints), 0.85)
}

func TestCustomerGeneratorMissingSignals(t *testing.T) {
	cfg := DefaultCustomerConfig()
	cfg.CustomerCount = 300
	cfg.MissingSignalRate = 0.5
	cfg.WithCardType = false

	blank := 0
	for _, r := range NewCustomerGenerator(cfg).Rows() {
		assert.Len(t, r, 16)
		if r[14] == "" || r[15] == "" {
			blank++
		}
	}
	assert.Greater(t, blank, 100)
}

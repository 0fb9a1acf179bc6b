package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureSetHash_OrderIndependent(t *testing.T) {
	a := SignatureSetHash([]string{"sig1", "sig2", "sig3"})
	b := SignatureSetHash([]string{"sig3", "sig1", "sig2"})
	assert.Equal(t, a, b)
}

func TestSignatureSetHash_DuplicatesIgnored(t *testing.T) {
	a := SignatureSetHash([]string{"sig1", "sig2"})
	b := SignatureSetHash([]string{"sig2", "sig1", "sig2"})
	assert.Equal(t, a, b)
}

func TestSignatureSetHash_DifferentSetsDiffer(t *testing.T) {
	a := SignatureSetHash([]string{"sig1", "sig2"})
	b := SignatureSetHash([]string{"sig1", "sig3"})
	assert.NotEqual(t, a, b)
}

func TestSignatureSetHash_Empty(t *testing.T) {
	// Hash of the empty string; stable across runs.
	assert.Len(t, SignatureSetHash(nil), 64)
	assert.Equal(t, SignatureSetHash(nil), SignatureSetHash([]string{}))
}

func TestComputeLotID_Deterministic(t *testing.T) {
	a := ComputeLotID("sig1", 1000)
	b := ComputeLotID("sig1", 1000)
	c := ComputeLotID("sig1", 1001)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

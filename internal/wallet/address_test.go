package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_KnownGoodAddresses(t *testing.T) {
	good := []string{
		"11111111111111111111111111111111",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
	for _, addr := range good {
		assert.NoError(t, Validate(addr), addr)
	}
}

func TestValidate_RejectsBadBase58(t *testing.T) {
	err := Validate("0OIl-not-base58-0OIl-not-base58-0OIl-not")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestValidate_RejectsBadLength(t *testing.T) {
	assert.ErrorIs(t, Validate("abc"), ErrInvalidAddress)
	assert.ErrorIs(t, Validate(""), ErrInvalidAddress)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "EPjF..Dt1v", Short("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
	assert.Equal(t, "abc", Short("abc"))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://md:***@db:5432/marketdata", MaskDSN("postgres://md:s3cret@db:5432/marketdata"))
	assert.Equal(t, "nats://localhost:4222", MaskDSN("nats://localhost:4222"))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "********cdef", MaskKey("456789abcdef"))
	assert.Equal(t, "***", MaskKey("abc"))
	assert.Equal(t, "", MaskKey(""))
}

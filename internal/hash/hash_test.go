package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	data := []byte("metrics.2026-10-18T00-00-00Z")
	sum := Checksum(data)

	require.Equal(t, sum, Checksum(data))
	require.True(t, Verify(data, sum))
	require.False(t, Verify(append([]byte{0}, data...), sum))
	require.NotEqual(t, Checksum(nil), Checksum([]byte{0}))
}

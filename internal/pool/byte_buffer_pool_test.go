package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "new buffer should have zero length")
	assert.Equal(t, 1024, cap(bb.B), "new buffer should have specified capacity")
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity is a no-op", func(t *testing.T) {
		bb := NewByteBuffer(64)
		before := &bb.B[:1][0]
		bb.Grow(32)
		assert.Equal(t, 64, cap(bb.B))
		assert.True(t, before == &bb.B[:1][0])
	})

	t.Run("small buffers grow by default size", func(t *testing.T) {
		bb := NewByteBuffer(8)
		_, _ = bb.Write([]byte("abcdefgh"))
		bb.Grow(1)
		assert.Equal(t, 8+ChunkBufferDefaultSize, cap(bb.B))
		assert.Equal(t, []byte("abcdefgh"), bb.Bytes())
	})

	t.Run("large requests grow by the request", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(ChunkBufferDefaultSize * 3)
		assert.GreaterOrEqual(t, cap(bb.B), ChunkBufferDefaultSize*3)
	})
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(16, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	_, _ = bb.Write([]byte("sample"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers come back reset")

	// Oversized buffers are not retained; Put must still accept them.
	big := NewByteBuffer(128)
	p.Put(big)
	p.Put(nil)
}

func TestChunkBufferPool(t *testing.T) {
	bb := GetChunkBuffer()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	PutChunkBuffer(bb)
}

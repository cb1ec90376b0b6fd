package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftdcunwind/errs"
)

func encodeGorilla(values []float64) []byte {
	enc := NewGorillaEncoder()
	defer enc.Finish()

	for _, v := range values {
		enc.Write(v)
	}

	return append([]byte(nil), enc.Bytes()...)
}

func TestGorilla_RoundTrip(t *testing.T) {
	slowlyChanging := make([]float64, 200)
	for i := range slowlyChanging {
		slowlyChanging[i] = 0.5 + math.Sin(float64(i)/20)*0.01
	}

	tests := []struct {
		name   string
		values []float64
	}{
		{"Single", []float64{3.14}},
		{"Constant", []float64{7, 7, 7, 7, 7}},
		{"Integers", []float64{1, 2, 3, 5, 8, 13, 21}},
		{"SlowlyChanging", slowlyChanging},
		{"SignFlips", []float64{-1.5, 1.5, -1.5, 0, math.Copysign(0, -1)}},
		{"Special", []float64{math.Inf(1), math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64}},
		{"WideXor", []float64{1, math.Float64frombits(1), math.Float64frombits(math.MaxUint64 >> 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeGorilla(tt.values)

			got, err := DecodeGorilla(nil, data, len(tt.values))
			require.NoError(t, err)
			require.Len(t, got, len(tt.values))
			for i := range tt.values {
				require.Equal(t, math.Float64bits(tt.values[i]), math.Float64bits(got[i]), "value %d", i)
			}
		})
	}
}

func TestGorilla_NaN(t *testing.T) {
	data := encodeGorilla([]float64{1, math.NaN(), 2})

	got, err := DecodeGorilla(nil, data, 3)
	require.NoError(t, err)
	require.Equal(t, 1.0, got[0])
	require.True(t, math.IsNaN(got[1]))
	require.Equal(t, 2.0, got[2])
}

func TestGorilla_ConstantIsCompact(t *testing.T) {
	values := make([]float64, 800)
	for i := range values {
		values[i] = 42.0
	}

	// 64 bits for the first value, one bit for each repeat
	require.Equal(t, 8+100, len(encodeGorilla(values)))
}

func TestDecodeGorilla_Errors(t *testing.T) {
	_, err := DecodeGorilla(nil, []byte{1, 2, 3}, 1)
	require.ErrorIs(t, err, errs.ErrTruncated)

	data := encodeGorilla([]float64{1, 2})
	_, err = DecodeGorilla(nil, data, 40)
	require.ErrorIs(t, err, errs.ErrTruncated)

	got, err := DecodeGorilla(nil, nil, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

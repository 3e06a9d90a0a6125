package flexhog

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockNormalization_Normalize(t *testing.T) {
	hys := 0.2 / (math.Sqrt(0.08) + l2HysEpsilon)
	small := 0.01 / (0.01 + 0.4)

	cases := []struct {
		norm  BlockNormalization
		block Histogram
		area  int
		want  Histogram
	}{
		{L1, Histogram{1, 3}, 1, Histogram{0.25, 0.75}},
		{L1Sqrt, Histogram{1, 3}, 1, Histogram{0.5, math.Sqrt(0.75)}},
		{L2, Histogram{3, 4}, 1, Histogram{0.6, 0.8}},
		{L2Hys, Histogram{3, 4}, 1, Histogram{hys, hys}},
		{L2Hys, Histogram{0.01, 0, 0}, 4, Histogram{small / (small + l2HysEpsilon), 0, 0}},
	}
	for _, tc := range cases {
		tc.norm.Normalize(tc.block, tc.area)
		assert.InDeltaSlice(t, tc.want, tc.block, 1e-12, tc.norm.String())
	}
}

func TestBlockNormalization_ZeroBlock(t *testing.T) {
	for _, n := range []BlockNormalization{L1, L1Sqrt, L2, L2Hys} {
		block := make(Histogram, 8)
		n.Normalize(block, 4)
		assert.Equal(t, make(Histogram, 8), block, n.String())
	}
}

func TestBlockNormalization_UnknownFallsBackToL2(t *testing.T) {
	block := Histogram{3, 4}
	BlockNormalization(42).Normalize(block, 1)
	assert.InDeltaSlice(t, Histogram{0.6, 0.8}, block, 1e-12)
}

func TestBlockNormalization_Parse(t *testing.T) {
	for _, name := range []string{"l1", "L1Sqrt", "L2", "l2hys"} {
		n, err := ParseBlockNormalization(name)
		require.NoError(t, err)
		assert.True(t, strings.EqualFold(n.String(), name))
	}

	_, err := ParseBlockNormalization("max")
	assert.Error(t, err)
	assert.Equal(t, "BlockNormalization(42)", BlockNormalization(42).String())
}

func TestNormalizerFunc(t *testing.T) {
	var called bool
	var n Normalizer = NormalizerFunc(func(block Histogram, area int) {
		called = true
		block[0] = float64(area)
	})
	block := Histogram{0}
	n.Normalize(block, 4)

	assert.True(t, called)
	assert.Equal(t, 4.0, block[0])
}

package flexhog

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Normalizer normalizes a block vector in place. blockArea is the number
// of cells aggregated in the block.
type Normalizer interface {
	Normalize(block Histogram, blockArea int)
}

// NormalizerFunc adapts an ordinary function to the Normalizer interface.
type NormalizerFunc func(block Histogram, blockArea int)

// Normalize calls f(block, blockArea).
func (f NormalizerFunc) Normalize(block Histogram, blockArea int) {
	f(block, blockArea)
}

// BlockNormalization enumerates the built-in block normalization schemes.
type BlockNormalization int

const (
	// L1 divides the block by its L1 norm.
	L1 BlockNormalization = iota
	// L1Sqrt applies L1 normalization followed by an element-wise square root.
	L1Sqrt
	// L2 divides the block by its Euclidean norm.
	L2
	// L2Hys is L2 normalization followed by clipping and renormalization.
	L2Hys
)

const (
	// l2HysClip is the maximum value a component may hold after the first L2 pass.
	l2HysClip = 0.2
	// l2HysEpsilon regularizes the second L2 pass.
	l2HysEpsilon = 1e-3
)

var _ Normalizer = L2

var normNames = map[BlockNormalization]string{
	L1:     "L1",
	L1Sqrt: "L1Sqrt",
	L2:     "L2",
	L2Hys:  "L2Hys",
}

// String returns the name of the normalization scheme.
func (n BlockNormalization) String() string {
	if s, ok := normNames[n]; ok {
		return s
	}
	return fmt.Sprintf("BlockNormalization(%d)", int(n))
}

// ParseBlockNormalization returns the scheme with the given name.
// The lookup is case insensitive.
func ParseBlockNormalization(name string) (BlockNormalization, error) {
	for n, s := range normNames {
		if strings.EqualFold(s, name) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown block normalization: %q", name)
}

// Normalize applies the scheme to the block in place.
// Unknown values fall back to L2.
func (n BlockNormalization) Normalize(block Histogram, blockArea int) {
	switch n {
	case L1:
		block.NormalizeL1()
	case L1Sqrt:
		block.NormalizeL1()
		for i, v := range block {
			block[i] = math.Sqrt(v)
		}
	case L2Hys:
		normalizeL2Hys(block, blockArea)
	default:
		block.NormalizeL2()
	}
}

// normalizeL2Hys performs the regularized L2 normalization, clips the
// components at l2HysClip and renormalizes.
func normalizeL2Hys(block Histogram, blockArea int) {
	if len(block) == 0 {
		return
	}
	norm := block.Norm()
	if norm == 0 {
		return
	}
	floats.Scale(1/(norm+0.1*float64(blockArea)), block)

	for i, v := range block {
		if v > l2HysClip {
			block[i] = l2HysClip
		}
	}
	floats.Scale(1/(block.Norm()+l2HysEpsilon), block)
}

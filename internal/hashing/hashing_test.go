package hashing

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestStringDeterministic(t *testing.T) {
	assert.Equal(t, String("aten::add"), String("aten::add"))
	assert.NotEqual(t, String("aten::add"), String("aten::mul"))
}

func TestCombineNoRest(t *testing.T) {
	h := String("x")
	assert.Equal(t, h, Combine(h))
}

func TestCombineOrderSensitive(t *testing.T) {
	a, b, c := String("a"), String("b"), String("c")
	assert.NotEqual(t, Combine(a, b, c), Combine(a, c, b))
	assert.Equal(t, Combine(Combine(a, b), c), Combine(a, b, c))
}

func TestHashString(t *testing.T) {
	assert.Equal(t, "0000000000000001", Hash(1).String())
	assert.Len(t, String("x").String(), 16)
}

func TestCombineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("combine is a function of its inputs", prop.ForAll(
		func(a, b uint64) bool {
			return Combine(Hash(a), Hash(b)) == Combine(Hash(a), Hash(b))
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.Property("swapping distinct operands changes the hash", prop.ForAll(
		func(seed, a, b uint64) bool {
			if a == b {
				return true
			}
			return Combine(Hash(seed), Hash(a), Hash(b)) != Combine(Hash(seed), Hash(b), Hash(a))
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}

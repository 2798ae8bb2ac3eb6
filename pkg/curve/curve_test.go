package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/gg20tss/pkg/curve"
)

func TestScalarArithmetic(t *testing.T) {
	a := curve.DefaultRandomScalar()
	b := curve.DefaultRandomScalar()

	sum := a.Clone().Add(b)
	diff := sum.Clone().Sub(b)
	assert.True(t, diff.Equal(a))

	prod := a.Clone().Mul(b)
	inv := b.Clone().Inverse()
	recovered := prod.Clone().Mul(inv)
	assert.True(t, recovered.Equal(a))

	assert.True(t, a.Clone().Negate().Negate().Equal(a))
	assert.False(t, a.IsZero())
}

func TestScalarRoundTrip(t *testing.T) {
	s := curve.DefaultRandomScalar()
	parsed, err := curve.ScalarFromBytesCanonical(s.Bytes())
	require.NoError(t, err)
	assert.True(t, s.Equal(parsed))
}

func TestPointSerialization(t *testing.T) {
	s := curve.DefaultRandomScalar()
	p := s.ActOnBase()

	raw, err := p.SerializeCompressed()
	require.NoError(t, err)
	parsed, err := curve.ParsePointCompressed(raw)
	require.NoError(t, err)
	assert.True(t, p.Equal(parsed))
}

func TestPointArithmetic(t *testing.T) {
	a := curve.DefaultRandomScalar()
	b := curve.DefaultRandomScalar()

	pa := a.ActOnBase()
	pb := b.ActOnBase()
	sum := pa.Add(pb)

	expected := a.Clone().Add(b).ActOnBase()
	assert.True(t, sum.Equal(expected))
	assert.True(t, sum.Sub(pb).Equal(pa))
}

func TestSignatureRoundTrip(t *testing.T) {
	x := curve.DefaultRandomScalar()
	y := x.ActOnBase()

	k := curve.DefaultRandomScalar()
	r := k.ActOnBase().XScalar()

	var digest [32]byte
	copy(digest[:], []byte("a 32 byte message digest, padded"))
	m := curve.ScalarFromBytesReduced(digest[:])

	kInv := k.Inverse()
	s := kInv.Mul(m.Clone().Add(r.Clone().Mul(x)))

	sig := curve.NewSignature(r, s)
	assert.True(t, curve.Verify(sig, digest[:], y))

	der, err := sig.SerializeDER()
	require.NoError(t, err)
	parsed, err := curve.ParseSignatureDER(der)
	require.NoError(t, err)
	assert.True(t, curve.Verify(parsed, digest[:], y))
}

func TestAlternateGeneratorDistinctFromGenerator(t *testing.T) {
	assert.False(t, curve.Generator().Equal(curve.AlternateGenerator()))
}

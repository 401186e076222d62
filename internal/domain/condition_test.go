package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Inclusive(t *testing.T) {
	c, err := Normalize("at least", 85)
	require.NoError(t, err)
	assert.Equal(t, AtLeast(85), c)

	c, err = Normalize("or above", 85)
	require.NoError(t, err)
	assert.Equal(t, AtLeast(85), c)

	c, err = Normalize("at most", 40)
	require.NoError(t, err)
	assert.Equal(t, AtMost(40), c)

	c, err = Normalize("or below", 40)
	require.NoError(t, err)
	assert.Equal(t, AtMost(40), c)
}

func TestNormalize_StrictShiftsWholeDegree(t *testing.T) {
	// ">85" y "86 or above" denotan el mismo evento entero
	c, err := Normalize(">", 85)
	require.NoError(t, err)
	assert.Equal(t, AtLeast(86), c)

	c, err = Normalize("<", 40)
	require.NoError(t, err)
	assert.Equal(t, AtMost(39), c)
}

func TestNormalize_CaseAndWhitespace(t *testing.T) {
	c, err := Normalize("  At Least ", 85)
	require.NoError(t, err)
	assert.Equal(t, AtLeast(85), c)
}

func TestNormalize_UnknownOperator(t *testing.T) {
	_, err := Normalize("approximately", 85)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestNormalizeRange_Valid(t *testing.T) {
	c, err := NormalizeRange(18, 19)
	require.NoError(t, err)
	assert.Equal(t, KindRange, c.Kind)
	assert.Equal(t, 18.0, c.Low)
	assert.Equal(t, 19.0, c.High)
}

func TestNormalizeRange_Inverted(t *testing.T) {
	_, err := NormalizeRange(19, 18)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestCondition_Satisfies(t *testing.T) {
	assert.True(t, AtLeast(85).Satisfies(85)) // inclusivo en el boundary
	assert.False(t, AtLeast(85).Satisfies(84.9))
	assert.True(t, AtMost(40).Satisfies(40))
	assert.False(t, AtMost(40).Satisfies(40.1))

	r, _ := NormalizeRange(18, 19)
	assert.True(t, r.Satisfies(18))
	assert.True(t, r.Satisfies(19))
	assert.False(t, r.Satisfies(19.4))
}

func TestCondition_SignedDistance(t *testing.T) {
	assert.Equal(t, 3.0, AtLeast(85).SignedDistance(88))
	assert.Equal(t, -2.0, AtLeast(85).SignedDistance(83))
	assert.Equal(t, 3.0, AtMost(40).SignedDistance(37))
	assert.Equal(t, -1.5, AtMost(40).SignedDistance(41.5))
}

func TestCondition_SignedDistance_RangeInside(t *testing.T) {
	// dentro del range manda el boundary más próximo
	r, _ := NormalizeRange(18, 22)
	assert.Equal(t, 1.0, r.SignedDistance(19))
	assert.Equal(t, 2.0, r.SignedDistance(20))
	assert.Equal(t, -0.4, r.SignedDistance(22.4))
}

func TestCondition_BoundaryDistance_RangeNearSide(t *testing.T) {
	// cerca de un boundary, lejos del otro: solo el próximo cuenta
	r, _ := NormalizeRange(18, 19)
	assert.InDelta(t, 0.4, r.BoundaryDistance(19.4), 1e-9)
	assert.InDelta(t, 0.5, r.BoundaryDistance(18.5), 1e-9)
}

func TestCondition_Boundaries(t *testing.T) {
	assert.Equal(t, []float64{85}, AtLeast(85).Boundaries())
	assert.Equal(t, []float64{40}, AtMost(40).Boundaries())
	r, _ := NormalizeRange(18, 19)
	assert.Equal(t, []float64{18, 19}, r.Boundaries())
}

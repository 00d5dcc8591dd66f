package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelscript/kestrel/value"
)

func TestTruthy(t *testing.T) {
	assert.False(t, value.NewNull().Truthy())
	assert.False(t, value.NewBool(false).Truthy())
	assert.False(t, value.NewInt(0).Truthy())
	assert.False(t, value.NewFloat(0).Truthy())
	assert.False(t, value.NewStr("").Truthy())

	assert.True(t, value.NewBool(true).Truthy())
	assert.True(t, value.NewInt(1).Truthy())
	assert.True(t, value.NewFloat(0.1).Truthy())
	assert.True(t, value.NewStr("x").Truthy())
}

func TestEqualCrossTypeNumeric(t *testing.T) {
	assert.True(t, value.Equal(value.NewInt(2), value.NewFloat(2.0)))
	assert.False(t, value.Equal(value.NewInt(2), value.NewFloat(2.5)))
	assert.False(t, value.Equal(value.NewInt(0), value.NewNull()))
	assert.False(t, value.Equal(value.NewBool(false), value.NewInt(0)))
}

func TestCompareNumericPromotion(t *testing.T) {
	assert.Equal(t, -1, value.Compare(value.NewInt(1), value.NewFloat(2.5)))
	assert.Equal(t, 1, value.Compare(value.NewFloat(3.5), value.NewInt(2)))
	assert.Equal(t, 0, value.Compare(value.NewInt(4), value.NewFloat(4.0)))
}

func TestCompareStrings(t *testing.T) {
	assert.Equal(t, -1, value.Compare(value.NewStr("abc"), value.NewStr("abd")))
	assert.Equal(t, 0, value.Compare(value.NewStr("x"), value.NewStr("x")))
}

func TestComparePanicsOnNonOrderable(t *testing.T) {
	assert.Panics(t, func() {
		value.Compare(value.NewBool(true), value.NewBool(false))
	})
}

func TestStringFormatting(t *testing.T) {
	assert.Equal(t, "42", value.NewInt(42).String())
	assert.Equal(t, "true", value.NewBool(true).String())
	assert.Equal(t, "null", value.NewNull().String())
	assert.Equal(t, "hi", value.NewStr("hi").String())
}

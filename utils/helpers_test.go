package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualFloat(t *testing.T) {
	assert.True(t, EqualFloat(nil, nil))
	assert.False(t, EqualFloat(FloatPtr(1), nil))
	assert.False(t, EqualFloat(nil, FloatPtr(1)))
	assert.True(t, EqualFloat(FloatPtr(91.6), FloatPtr(91.6)))
	assert.False(t, EqualFloat(FloatPtr(91.6), FloatPtr(91.5)))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "", FormatFloat(nil))
	assert.Equal(t, "103.2", FormatFloat(FloatPtr(103.2)))
	assert.Equal(t, "92", FormatFloat(FloatPtr(92)))
}

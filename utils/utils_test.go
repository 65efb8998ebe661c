package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, 0.99, FormatFloat(1.0-0.01, 2))
	assert.Equal(t, 0.07, FormatFloat(0.07000000000000006, 2))
	assert.Equal(t, 1.235, FormatFloat(1.23456, 3))
	assert.True(t, math.IsNaN(FormatFloat(math.NaN(), 2)))
	assert.True(t, math.IsInf(FormatFloat(math.Inf(-1), 2), -1))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, SecondsToDuration(1.5))
	assert.Equal(t, time.Duration(0), SecondsToDuration(math.NaN()))
}

func TestSetLogLevel(t *testing.T) {
	require.NoError(t, SetLogLevel("debug"))
	require.Error(t, SetLogLevel("loud"))
	require.NoError(t, SetLogLevel("info"))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance_KnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
	}{
		{"same point", 51.5074, -0.1278, 51.5074, -0.1278, 0},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5},
		{"new york to los angeles", 40.7128, -74.0060, 34.0522, -118.2437, 3935.7},
		{"one degree of longitude on the equator", 0, 0, 0, 1, 111.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, 1.0)
		})
	}
}

func TestCalculateDistance_Symmetric(t *testing.T) {
	a := CalculateDistance(12.9716, 77.5946, 19.0760, 72.8777)
	b := CalculateDistance(19.0760, 72.8777, 12.9716, 77.5946)
	assert.InDelta(t, a, b, 1e-9)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 3.14, RoundTo(3.14159, 2))
	assert.Equal(t, 343.5, RoundTo(343.456, 1))
	assert.Equal(t, 2.0, RoundTo(1.5, 0))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
}

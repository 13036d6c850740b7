package keyset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NormalizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero -> default", 0, DefaultLimit},
		{"NoLimit -> default", NoLimit, DefaultLimit},
		{"negative -> default", -10, DefaultLimit},
		{"clamp to MaxLimit", MaxLimit + 1, MaxLimit},
		{"equal MaxLimit unchanged", MaxLimit, MaxLimit},
		{"keep when ok", 17, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeLimit(tt.limit))
		})
	}
}

func Test_clampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero kept", 0, 0},
		{"negative kept", -5, -5},
		{"within max unchanged", 7, 7},
		{"above max clamped", MaxLimit * 3, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clampLimit(tt.limit))
		})
	}
}

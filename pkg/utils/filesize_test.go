package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{5, "5 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{10 * MB, "10.0 MB"},
		{3 * GB, "3.0 GB"},
		{2 * TB, "2.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare bytes", "4096", 4096, false},
		{"bytes unit", "1B", 1, false},
		{"kilobytes", "64KB", 64 * KB, false},
		{"short unit", "64k", 64 * KB, false},
		{"fraction", "1.5MB", 1536 * KB, false},
		{"spaced", " 2 GB ", 2 * GB, false},
		{"zero", "0", 0, false},
		{"empty", "", 0, true},
		{"no number", "MB", 0, true},
		{"bad unit", "10XB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

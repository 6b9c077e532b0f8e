package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBound(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		upper   bool
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{name: "empty", value: "", wantNil: true},
		{name: "date lower", value: "2026-10-01", want: time.Date(2026, 10, 1, 0, 0, 0, 0, madrid)},
		{name: "date upper is next midnight", value: "2026-10-31", upper: true, want: time.Date(2026, 11, 1, 0, 0, 0, 0, madrid)},
		{name: "rfc3339 upper unchanged", value: "2026-10-19T12:00:00Z", upper: true, want: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "ayer", wantErr: true},
		{name: "bad month", value: "2026-13-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBound(tt.value, madrid, tt.upper)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v, want %v", *got, tt.want)
		})
	}
}

package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastfm_Period(t *testing.T) {
	tests := []struct {
		period   string
		expected string
		wantErr  bool
	}{
		{period: "", expected: "overall"},
		{period: "overall", expected: "overall"},
		{period: "7day", expected: "7day"},
		{period: "12month", expected: "12month"},
		{period: "forever", wantErr: true},
		{period: "Overall", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			period, err := (&Lastfm{Period: tt.period}).period()
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid Last.fm period")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, period)
		})
	}
}

func TestLastfm_InvalidPeriodMakesNoRequests(t *testing.T) {
	src := &Lastfm{APIKey: "key", Username: "alice", Period: "weekly"}
	_, err := src.Albums(context.Background())
	assert.Error(t, err)
	assert.Nil(t, src.client)
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("basketball"))
	assert.True(t, Valid("tabletennis"))
	assert.False(t, Valid("curling"))
	assert.False(t, Valid(""))
}

func TestIDs_MatchesSportsOrder(t *testing.T) {
	ids := IDs()
	require.Len(t, ids, len(Sports))
	for i, s := range Sports {
		assert.Equal(t, s.ID, ids[i])
	}
}

func TestMatchActivity(t *testing.T) {
	cases := []struct {
		activity string
		wantID   string
		wantOK   bool
	}{
		{"Drop-in Basketball", "basketball", true},
		{"BASKETBALL LEAGUE", "basketball", true},
		{"Volleyball (Intermediate)", "volleyball", true},
		{"Indoor Soccer", "futsal", true},
		{"Ping Pong Club", "tabletennis", true},
		{"Open Gym", "", false},
		{"Yoga", "", false},
	}
	for _, tc := range cases {
		sport, ok := MatchActivity(tc.activity)
		assert.Equal(t, tc.wantOK, ok, tc.activity)
		if tc.wantOK {
			assert.Equal(t, tc.wantID, sport.ID, tc.activity)
		}
	}
}

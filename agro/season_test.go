package agro_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agro-engine/agro"
)

func TestParseSeason(t *testing.T) {
	tests := []struct {
		label  string
		first  int
		last   int
		summer bool
	}{
		{"23/24", 2023, 2024, true},
		{"23/23", 2023, 2023, false},
		{"9/10", 2009, 2010, true},
		{"00/00", 2000, 2000, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s, err := agro.ParseSeason(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.first, s.FirstYear)
			assert.Equal(t, tt.last, s.LastYear)
			assert.Equal(t, tt.summer, s.Summer())
			assert.Equal(t, tt.label, s.Label)
		})
	}
}

func TestParseSeason_Malformed(t *testing.T) {
	for _, label := range []string{"", "2023/2024", "23", "23/24/25", "ab/cd", "24/23", "+1/2", "23-24", "/24"} {
		t.Run(label, func(t *testing.T) {
			_, err := agro.ParseSeason(label)
			assert.ErrorIs(t, err, agro.ErrMalformedSeason)
			assert.True(t, agro.IsClientError(err))
		})
	}
}

func TestSeason_PlantingYear(t *testing.T) {
	s, err := agro.ParseSeason("23/24")
	require.NoError(t, err)

	assert.Equal(t, 2023, s.PlantingYear(time.November))
	assert.Equal(t, 2023, s.PlantingYear(time.July))
	assert.Equal(t, 2024, s.PlantingYear(time.January))
	assert.Equal(t, 2024, s.PlantingYear(time.June))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := agro.NewDate(2024, time.March, 5)

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(data))

	var back agro.Date
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, back.Equal(d))
	assert.Equal(t, "2024-03", back.MonthKey())
}

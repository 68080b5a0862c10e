package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humorloos/feierabend/internal/schedule"
)

func TestWriteHoursCSV(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)
	day := func(d, hour, minute int) time.Time {
		return time.Date(2021, time.September, d, hour, minute, 0, 0, cet)
	}

	var sb strings.Builder
	err := writeHoursCSV(&sb, []schedule.DayHours{
		{Day: day(1, 0, 0), Start: day(1, 9, 0), End: day(1, 17, 30), Pause: time.Hour},
		{Day: day(2, 0, 0), Start: day(2, 8, 15), End: day(2, 16, 0)},
	})
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"datum,von,bis,pause",
		"01.09.2021,09:00,17:30,60",
		"02.09.2021,08:15,16:00,0",
		"",
	}, "\n"), sb.String())
}

func TestWriteHoursCSVEmptyReport(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writeHoursCSV(&sb, nil))
	assert.Equal(t, "datum,von,bis,pause\n", sb.String())
}

package weekends

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendar2026 = `{
  "year": 2026,
  "months": [
    {"month": 1, "days": "1,2,3,4,5,6,7,8,10,11,17,18,24,25,31"},
    {"month": 2, "days": "1,7,8,14,15,21,22,23+,28"},
    {"month": 3, "days": "1,7,8,9+,14,15,21,22,28,29"},
    {"month": 4, "days": "4,5,11,12,18,19,25,26,30*"}
  ],
  "holidays": [{"date": "01.01", "title": "Новогодние каникулы"}],
  "statistic": {"workdays": 247, "holidays": 118}
}`

func TestParse(t *testing.T) {
	cal, days, err := Parse([]byte(calendar2026))
	require.NoError(t, err)
	assert.Equal(t, 2026, cal.Year)
	assert.Equal(t, 247, cal.Statistic.Workdays)

	assert.Equal(t, "2026-01-01", days[0].Date)
	assert.Equal(t, "Новогодние каникулы", days[0].Title)

	byMonth := make(map[int][]NonWorkingDay)
	dates := make(map[string]bool, len(days))
	for _, d := range days {
		byMonth[d.Month] = append(byMonth[d.Month], d)
		dates[d.Date] = true
	}

	feb := byMonth[2]
	require.Len(t, feb, 9)
	assert.True(t, feb[7].Transferred)
	assert.Equal(t, "2026-02-23", feb[7].Date)

	assert.Len(t, byMonth[4], 8, "shortened working day is skipped")
	assert.False(t, dates["2026-04-30"])
	assert.True(t, dates["2026-03-09"])
	assert.Len(t, days, 42)
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]byte(`{"year": 2026, "months": [{"month": 2, "days": "30"}]}`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`{"year": 2026, "months": [{"month": 1, "days": "x"}]}`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`{"months": []}`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.json")
	require.NoError(t, os.WriteFile(path, []byte(calendar2026), 0o600))

	_, days, err := ParseFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, days)

	_, _, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

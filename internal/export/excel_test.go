package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"careline/internal/models"
)

func TestHistory(t *testing.T) {
	bookings := []models.Booking{
		{
			BookingCode: "BK-1",
			ServiceName: "HIV screening",
			DoctorName:  "Dr. Lan",
			BookingDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
			StartTime:   "09:00",
			Status:      models.StatusConfirmed,
			IsAnonymous: true,
			CreatedAt:   time.Date(2024, time.May, 30, 10, 0, 0, 0, time.UTC),
		},
	}
	results := []models.TestResult{
		{
			ServiceName: "CD4 count",
			ResultDate:  time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			DoctorName:  "Dr. Lan",
			Summary:     "within reference range",
		},
	}

	data, err := History(bookings, results)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Bookings", "Results"}, file.GetSheetList())

	rows, err := file.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Code", rows[0][0])
	assert.Equal(t, "BK-1", rows[1][0])
	assert.Equal(t, "2024-06-03", rows[1][3])
	assert.Equal(t, "Confirmed", rows[1][5])
	assert.Equal(t, "yes", rows[1][6])

	rows, err = file.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"CD4 count", "2024-06-10", "Dr. Lan", "within reference range"}, rows[1])
}

func TestHistory_EmptyInputStillBuildsWorkbook(t *testing.T) {
	data, err := History(nil, nil)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

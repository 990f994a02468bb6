package pms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

func TestStatusTables_CoverEveryCanonicalValue(t *testing.T) {
	bookingTables := map[string]StatusTable[integration.BookingStatus]{
		"mews":      mewsReservationStates,
		"protel":    protelReservationStates,
		"cloudbeds": cloudbedsReservationStates,
		"opera":     operaReservationStatuses,
	}
	for name, table := range bookingTables {
		assert.True(t, table.Covers(integration.AllBookingStatuses), "%s booking table", name)
	}

	roomTables := map[string]StatusTable[integration.RoomStatus]{
		"mews":      mewsResourceStates,
		"protel":    protelHousekeepingStates,
		"cloudbeds": cloudbedsRoomStates,
		"opera":     operaRoomStatuses,
	}
	for name, table := range roomTables {
		assert.True(t, table.Covers(integration.AllRoomStatuses), "%s room table", name)
	}
}

func TestStatusTable_Lookup(t *testing.T) {
	got, err := operaRoomStatuses.Lookup("Clean")
	require.NoError(t, err)
	assert.Equal(t, integration.RoomStatusAvailable, got)

	got, err = operaRoomStatuses.Lookup("Dirty")
	require.NoError(t, err)
	assert.Equal(t, integration.RoomStatusDirty, got)

	_, err = operaRoomStatuses.Lookup("clean")
	require.Error(t, err)
	ie, ok := integration.AsIntegrationError(err)
	require.True(t, ok)
	assert.Equal(t, integration.CodeUnmappedStatus, ie.Code)
	assert.Contains(t, ie.Message, `"clean"`)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Time{}},
		{in: "2026-03-01", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2026-03-01T14:00:00+02:00", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{in: "2026-03-01T10:00:00.1234567Z", want: time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)},
		{in: "01/03/2026", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate("field", tt.in)
			if tt.wantErr {
				assert.Equal(t, integration.CodeInvalidResponse, integration.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("total", " 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.String())

	d, err = parseAmount("total", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseAmount("total", "twelve")
	assert.Equal(t, integration.CodeInvalidResponse, integration.CodeOf(err))
}

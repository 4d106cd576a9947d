package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/internal/model"
)

// 2024-03-04 is a Monday.
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func block(start, end string) *model.AvailabilityBlock {
	return &model.AvailabilityBlock{StaffID: 1, Weekday: 0, StartTime: start, EndTime: end}
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
}

func TestGenerateSlotsTilesBlock(t *testing.T) {
	slots := GenerateSlots([]*model.AvailabilityBlock{block("09:00", "12:00")}, monday, time.UTC, 30*time.Minute, nil)

	require.Len(t, slots, 6)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(12, 0), slots[5].End)
	for _, s := range slots {
		assert.Equal(t, 30*time.Minute, s.End.Sub(s.Start))
	}
}

func TestGenerateSlotsDropsRemainderAndEmptyBlocks(t *testing.T) {
	blocks := []*model.AvailabilityBlock{block("09:00", "10:10"), block("15:00", "14:00"), block("16:00", "16:00")}
	slots := GenerateSlots(blocks, monday, time.UTC, 30*time.Minute, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, at(10, 0), slots[1].End)
}

func TestGenerateSlotsMergesBlocksInOrder(t *testing.T) {
	blocks := []*model.AvailabilityBlock{block("14:00", "15:00"), block("09:00", "10:00"), block("09:00", "10:00")}
	slots := GenerateSlots(blocks, monday, time.UTC, 30*time.Minute, nil)

	require.Len(t, slots, 4)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(9, 30), slots[1].Start)
	assert.Equal(t, at(14, 0), slots[2].Start)
}

func TestGenerateSlotsOverlappingBlocksStayDisjoint(t *testing.T) {
	blocks := []*model.AvailabilityBlock{block("09:00", "10:00"), block("09:15", "10:15")}
	slots := GenerateSlots(blocks, monday, time.UTC, 30*time.Minute, nil)

	for i := 1; i < len(slots); i++ {
		assert.False(t, model.Overlaps(slots[i-1].Start, slots[i-1].End, slots[i].Start, slots[i].End))
		assert.False(t, slots[i].Start.Before(slots[i-1].Start))
	}
}

func TestGenerateSlotsRemovesBooked(t *testing.T) {
	booked := []*model.Appointment{
		{StartAt: at(9, 15), EndAt: at(9, 45), Status: model.AppointmentStatusConfirmed},
		{StartAt: at(11, 0), EndAt: at(11, 30), Status: model.AppointmentStatusCancelled},
		{StartAt: at(10, 30), EndAt: at(11, 0), Status: model.AppointmentStatusRequested},
	}
	slots := GenerateSlots([]*model.AvailabilityBlock{block("09:00", "12:00")}, monday, time.UTC, 30*time.Minute, booked)

	var starts []time.Time
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []time.Time{at(10, 0), at(11, 0), at(11, 30)}, starts)
}

func TestGenerateSlotsUsesClinicTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	slots := GenerateSlots([]*model.AvailabilityBlock{block("09:00", "10:00")}, monday, loc, time.Hour, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC), slots[0].Start.UTC())
}

func TestGenerateSlotsEmpty(t *testing.T) {
	assert.Empty(t, GenerateSlots(nil, monday, time.UTC, 30*time.Minute, nil))
	assert.Empty(t, GenerateSlots([]*model.AvailabilityBlock{block("09:00", "09:20")}, monday, time.UTC, 30*time.Minute, nil))
}

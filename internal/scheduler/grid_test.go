package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTime(t *testing.T) {
	assert.Equal(t, "08:00", SlotTime(0))
	assert.Equal(t, "08:55", SlotTime(1))
	assert.Equal(t, "16:15", SlotTime(9))
}

func TestSessionEndTime(t *testing.T) {
	assert.Equal(t, "08:55", SessionEndTime(0, 55))
	assert.Equal(t, "10:45", SessionEndTime(1, 110))
}

func TestTimeToSlot(t *testing.T) {
	for s := 0; s < SlotsPerDay; s++ {
		assert.Equal(t, s, TimeToSlot(SlotTime(s)))
	}
	assert.Equal(t, -1, TimeToSlot("07:30"))
	assert.Equal(t, -1, TimeToSlot("18:00"))
	assert.Equal(t, -1, TimeToSlot("bogus"))
}

func TestTimeToSlotEnd(t *testing.T) {
	assert.Equal(t, 1, TimeToSlotEnd(SessionEndTime(0, 55)))
	assert.Equal(t, 3, TimeToSlotEnd(SessionEndTime(1, 110)))

	// The end of the last slot is the day boundary, not an invalid time.
	assert.Equal(t, SlotsPerDay, TimeToSlotEnd(SessionEndTime(8, 110)))
	assert.Equal(t, SlotsPerDay, TimeToSlotEnd(SessionEndTime(9, 55)))

	assert.Equal(t, -1, TimeToSlotEnd("08:00"))
	assert.Equal(t, -1, TimeToSlotEnd("07:30"))
	assert.Equal(t, -1, TimeToSlotEnd("18:05"))
	assert.Equal(t, -1, TimeToSlotEnd("bogus"))
}

func TestSpanForDuration(t *testing.T) {
	span, err := SpanForDuration(110)
	require.NoError(t, err)
	assert.Equal(t, 2, span)

	_, err = SpanForDuration(90)
	assert.Error(t, err)
	_, err = SpanForDuration(0)
	assert.Error(t, err)
	_, err = SpanForDuration(55 * 5)
	assert.Error(t, err)
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Monday", DayName(0))
	assert.Equal(t, "Friday", DayName(4))
	assert.Equal(t, "Unknown", DayName(7))
}

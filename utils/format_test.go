package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatChatTime(t *testing.T) {
	now := time.Date(2024, time.March, 14, 18, 30, 0, 0, time.UTC) // Thursday

	assert.Equal(t, "", FormatChatTime(time.Time{}, now))
	assert.Equal(t, "09:05", FormatChatTime(time.Date(2024, 3, 14, 9, 5, 0, 0, time.UTC), now))
	assert.Equal(t, "Yesterday", FormatChatTime(time.Date(2024, 3, 13, 23, 59, 0, 0, time.UTC), now))
	assert.Equal(t, "Monday", FormatChatTime(time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Feb 1", FormatChatTime(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Dec 31, 2023", FormatChatTime(time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), now))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "0:00", FormatDuration(-5*time.Second))
	assert.Equal(t, "1:05", FormatDuration(65*time.Second))
	assert.Equal(t, "1:01:01", FormatDuration(time.Hour+time.Minute+time.Second))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, time.March, 14, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, "just now", TimeAgo(now.Add(-20*time.Second), now))
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-48*time.Hour), now))
	assert.Equal(t, "Feb 1, 2024", TimeAgo(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), now))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Requires Payment", StatusLabel("requires_payment"))
	assert.Equal(t, "Past Due", StatusLabel("PAST_DUE"))
	assert.Equal(t, "Active", StatusLabel("active"))
	assert.Equal(t, "", StatusLabel("  "))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "9.99 USD", FormatPrice(999, "usd"))
	assert.Equal(t, "0.05 EUR", FormatPrice(5, "eur"))
	assert.Equal(t, "120.00 INR", FormatPrice(12000, "inr"))
}

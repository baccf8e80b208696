// file: controllers/format_test.go
package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrettyTimestamp(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "N/A", FormatPrettyTimestamp(time.Time{}))

	today := time.Date(now.Year(), now.Month(), now.Day(), 14, 30, 0, 0, now.Location())
	assert.Equal(t, "today at 14:30", FormatPrettyTimestamp(today))

	yesterday := today.AddDate(0, 0, -1)
	assert.Equal(t, "yesterday at 14:30", FormatPrettyTimestamp(yesterday))

	older := time.Date(2023, time.January, 15, 10, 0, 0, 0, now.Location())
	assert.Equal(t, "on 15 Jan 2023 at 10:00", FormatPrettyTimestamp(older))
}

func TestPartyClass(t *testing.T) {
	assert.Equal(t, "yesh-atid", partyClass("Yesh Atid"))
	assert.Equal(t, "law-and-order", partyClass("Law & Order"))
	assert.Equal(t, "likud", partyClass("Likud"))
}

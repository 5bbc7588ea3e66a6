package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/ledger"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ledger.ParseDate("2030-01-05")
		require.NoError(t, err)
		assert.Equal(t, date("2030-01-05"), d)
	})

	t.Run("rejects non-conforming input", func(t *testing.T) {
		for _, input := range []string{"", "2030/01/05", "05-01-2030", "2030-1-5", "not a date", "2030-01-05T00:00:00Z"} {
			_, err := ledger.ParseDate(input)
			assert.ErrorIs(t, err, ledger.ErrInvalidDateFormat, "input %q", input)
		}
	})
}

func TestSpanDays(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"single day", "2030-01-01", "2030-01-01", 1},
		{"five days inclusive", "2030-01-01", "2030-01-05", 5},
		{"across month boundary", "2030-01-30", "2030-02-02", 4},
		{"across year boundary", "2030-12-30", "2031-01-02", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.SpanDays(date(tt.start), date(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("end before start", func(t *testing.T) {
		_, err := ledger.SpanDays(date("2030-01-05"), date("2030-01-01"))
		assert.ErrorIs(t, err, ledger.ErrInvalidRange)
	})
}

func TestValidateNotPast(t *testing.T) {
	today := date("2030-06-15")

	t.Run("future dates pass", func(t *testing.T) {
		assert.NoError(t, ledger.ValidateNotPast(date("2030-06-16"), date("2030-06-20"), today))
	})

	t.Run("today itself passes", func(t *testing.T) {
		assert.NoError(t, ledger.ValidateNotPast(date("2030-06-15"), date("2030-06-15"), today))
	})

	t.Run("start in the past", func(t *testing.T) {
		err := ledger.ValidateNotPast(date("2030-06-14"), date("2030-06-20"), today)
		assert.ErrorIs(t, err, ledger.ErrPastDate)
	})

	t.Run("ignores time of day on today", func(t *testing.T) {
		lateToday := time.Date(2030, time.June, 15, 23, 30, 0, 0, time.UTC)
		assert.NoError(t, ledger.ValidateNotPast(date("2030-06-15"), date("2030-06-15"), lateToday))
	})
}

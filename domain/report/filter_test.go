package report_test

import (
	"testing"
	"time"

	"github.com/hearthchat/hearth/domain/report"
)

func TestFilter_AnchorDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	dateTo := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	f := report.Filter{DateTo: dateTo}
	if got := f.AnchorDate(now); !got.Equal(dateTo) {
		t.Errorf("anchor with date_to = %v, want %v", got, dateTo)
	}

	f = report.Filter{}
	if got := f.AnchorDate(now); !got.Equal(now) {
		t.Errorf("anchor without date_to = %v, want now", got)
	}

	// date_from alone does not move the anchor.
	f = report.Filter{DateFrom: dateTo}
	if got := f.AnchorDate(now); !got.Equal(now) {
		t.Errorf("anchor with only date_from = %v, want now", got)
	}
}

func TestDayLabel(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := report.DayLabel(d); got != "Jan 2" {
		t.Errorf("label = %q, want Jan 2", got)
	}
}

package report_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/domain/usage"
)

func TestExportCSV_HeaderOnly(t *testing.T) {
	out := string(report.ExportCSV(nil))

	want := `"partner","access_type","total_users","message_volume","last_event"` + "\n"
	if out != want {
		t.Errorf("empty export = %q, want %q", out, want)
	}
}

func TestExportCSV_Rows(t *testing.T) {
	last := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	groups := []report.Group{
		{PartnerCode: "ACME", AccessType: usage.AccessPartner, TotalUsers: 3, MessageVolume: 42, LastEvent: last},
		{PartnerCode: "DIRECT", AccessType: usage.AccessDirect, TotalUsers: 10, MessageVolume: 100, LastEvent: last},
	}

	out := string(report.ExportCSV(groups))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[1] != `"ACME","partner","3","42","2024-01-15 09:30:00"` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExportCSV_QuotesRoundTrip(t *testing.T) {
	// A hostile partner code must survive a standard CSV reader intact.
	groups := []report.Group{
		{PartnerCode: `EVIL"CODE`, AccessType: usage.AccessPartner, TotalUsers: 1, MessageVolume: 1},
	}

	out := report.ExportCSV(groups)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1][0] != `EVIL"CODE` {
		t.Errorf("partner = %q, want EVIL\"CODE", records[1][0])
	}
}

package report

import "strings"

// csvTimeFormat renders last_event as a normalized timestamp string.
const csvTimeFormat = "2006-01-02 15:04:05"

// ExportCSV renders summary groups as CSV bytes. Every field is
// double-quoted and embedded quotes are escaped by doubling, so a partner
// code containing a quote round-trips through any standard CSV reader.
// The export is a lighter snapshot than the dashboard: no dau/wau columns.
//
// This is a PURE function.
func ExportCSV(groups []Group) []byte {
	var b strings.Builder
	writeCSVRow(&b, "partner", "access_type", "total_users", "message_volume", "last_event")
	for _, g := range groups {
		writeCSVRow(&b,
			g.PartnerCode,
			string(g.AccessType),
			itoa(g.TotalUsers),
			itoa(g.MessageVolume),
			g.LastEvent.UTC().Format(csvTimeFormat),
		)
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

package report_test

import (
	"strings"
	"testing"

	"github.com/hearthchat/hearth/domain/report"
)

func TestLineChartSVG_Empty(t *testing.T) {
	svg := report.LineChartSVG(nil, nil)

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("expected well-formed svg, got %q", svg)
	}
	if strings.Contains(svg, "<polyline") {
		t.Error("empty series should not draw a polyline")
	}
}

func TestLineChartSVG_DrawsSeries(t *testing.T) {
	labels := []string{"Jan 1", "Jan 2", "Jan 3", "Jan 4", "Jan 5"}
	values := []int64{1, 3, 2, 5, 4}

	svg := report.LineChartSVG(labels, values)

	if !strings.Contains(svg, "<polyline") {
		t.Error("expected a polyline")
	}
	if got := strings.Count(svg, "<circle"); got != 5 {
		t.Errorf("got %d markers, want 5", got)
	}
	// Axis labels at first, middle and last points only.
	for _, want := range []string{"Jan 1", "Jan 3", "Jan 5"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected label %q", want)
		}
	}
	for _, absent := range []string{"Jan 2<", "Jan 4<"} {
		if strings.Contains(svg, absent) {
			t.Errorf("unexpected label %q", absent)
		}
	}
}

func TestLineChartSVG_SinglePoint(t *testing.T) {
	svg := report.LineChartSVG([]string{"Jan 1"}, []int64{7})

	if got := strings.Count(svg, "<circle"); got != 1 {
		t.Errorf("got %d markers, want 1", got)
	}
	if !strings.Contains(svg, "Jan 1") {
		t.Error("expected the single label to render")
	}
}

func TestLineChartSVG_EscapesLabels(t *testing.T) {
	svg := report.LineChartSVG([]string{`<b>"x"</b>`}, []int64{1})

	if strings.Contains(svg, "<b>") {
		t.Error("expected label markup to be escaped")
	}
	if !strings.Contains(svg, "&lt;b&gt;") {
		t.Error("expected escaped label content")
	}
}

package report

import (
	"fmt"
	"strings"
)

// Chart geometry. Fixed-size rasterization matching the dashboard layout.
const (
	chartWidth   = 520
	chartHeight  = 220
	chartPadding = 40
)

// LineChartSVG renders a minimal line chart as an SVG document.
// The y axis runs from 0 to the observed maximum (at least 1), x ticks are
// evenly spaced, and axis labels are drawn for the first, middle and last
// points only.
//
// This is a PURE function.
func LineChartSVG(labels []string, values []int64) string {
	w := chartWidth - 2*chartPadding
	h := chartHeight - 2*chartPadding

	maxVal := int64(1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	n := len(values)
	span := n - 1
	if span < 1 {
		span = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		chartWidth, chartHeight, chartWidth, chartHeight)

	// Axes
	fmt.Fprintf(&b, `<path d="M%d %d V%d H%d" fill="none" stroke="#e5e7eb" stroke-width="1"/>`,
		chartPadding, chartPadding, chartPadding+h, chartPadding+w)
	fmt.Fprintf(&b, `<text x="8" y="%d" font-size="12" fill="#6b7280">%d</text>`, chartPadding+4, maxVal)
	fmt.Fprintf(&b, `<text x="20" y="%d" font-size="12" fill="#6b7280">0</text>`, chartPadding+h+4)

	if n > 0 {
		// Polyline through all points
		var points []string
		for i, v := range values {
			x := chartPadding + w*i/span
			y := chartPadding + h - int(int64(h)*v/maxVal)
			points = append(points, fmt.Sprintf("%d,%d", x, y))
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="#111827" stroke-width="2"/>`,
			strings.Join(points, " "))

		// Point markers
		for i, v := range values {
			x := chartPadding + w*i/span
			y := chartPadding + h - int(int64(h)*v/maxVal)
			fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="3" fill="#111827"/>`, x, y)
		}

		// Labels at first, middle, last
		for _, i := range labelIndexes(n) {
			if i >= len(labels) {
				continue
			}
			x := chartPadding + w*i/span
			fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="12" fill="#6b7280">%s</text>`,
				maxInt(0, x-18), chartPadding+h+22, escapeXML(labels[i]))
		}
	}

	b.WriteString(`</svg>`)
	return b.String()
}

// labelIndexes returns the distinct indexes of the first, middle and last
// points for a series of n values.
func labelIndexes(n int) []int {
	if n <= 0 {
		return nil
	}
	seen := map[int]bool{}
	var out []int
	for _, i := range []int{0, (n - 1) / 2, n - 1} {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

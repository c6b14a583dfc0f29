package display

import (
	"fmt"
	"html"
	"math"
	"strings"
)

// palette follows the default categorical colours of common plotting tools.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const startAngle = 90.0

// PieSVG renders the chart as a standalone SVG document of the given pixel size.
// Wedges start at 12 o'clock and run counter-clockwise; each carries its label
// outside the rim and its percentage inside. An empty chart renders as "".
func PieSVG(c PieChart, size int) string {
	if c.Empty() {
		return ""
	}

	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size) * 0.35

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" role="img">`, size, size, size, size)

	fractions := c.Fractions()
	pcts := c.Percentages()
	angle := startAngle
	for i, s := range c.Slices {
		f, _ := fractions[i].Float64()
		sweep := f * 360
		color := palette[i%len(palette)]

		if f >= 1 {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, cx, cy, r, color)
		} else if f > 0 {
			x0, y0 := polar(cx, cy, r, angle)
			x1, y1 := polar(cx, cy, r, angle+sweep)
			largeArc := 0
			if sweep > 180 {
				largeArc = 1
			}
			fmt.Fprintf(&b, `<path d="M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 0 %.2f,%.2f Z" fill="%s"/>`,
				cx, cy, x0, y0, r, r, largeArc, x1, y1, color)
		}

		mid := angle + sweep/2
		lx, ly := polar(cx, cy, r*1.1, mid)
		anchor := "start"
		if lx < cx {
			anchor = "end"
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" text-anchor="%s" dominant-baseline="middle">%s</text>`,
			lx, ly, anchor, html.EscapeString(s.Label))

		px, py := polar(cx, cy, r*0.6, mid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle">%s</text>`,
			px, py, pcts[i])

		angle += sweep
	}

	b.WriteString(`</svg>`)
	return b.String()
}

// polar converts an angle in degrees (counter-clockwise from 3 o'clock) to SVG coordinates.
func polar(cx, cy, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return cx + r*math.Cos(rad), cy - r*math.Sin(rad)
}

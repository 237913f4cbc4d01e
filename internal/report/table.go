package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/i474232898/city-weather/internal/weather"
)

var tableHeader = []string{"City", "Temp (°C)", "Wind (km/h)", "Condition", "Status"}

// WriteTable renders outcomes as an aligned text table followed by a
// one line summary. Failed cities get a row with "-" in the numeric
// columns and their failure in the status column.
func WriteTable(w io.Writer, outcomes []weather.Outcome) error {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, tableRow(o))
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	writeLine(&b, tableHeader, widths)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	writeLine(&b, sep, widths)
	for _, row := range rows {
		writeLine(&b, row, widths)
	}

	sum := weather.Summarize(outcomes)
	fmt.Fprintf(&b, "\n%d cities, %d ok, %d failed", sum.Total, sum.Succeeded, sum.Failed)
	if sum.Succeeded > 0 {
		fmt.Fprintf(&b, ", mean %.1f °C, max wind %.1f km/h", sum.MeanTemperature, sum.MaxWindSpeed)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func tableRow(o weather.Outcome) []string {
	if !o.OK() {
		return []string{o.City, "-", "-", "-", o.Describe()}
	}
	return []string{
		o.City,
		strconv.FormatFloat(o.Temperature, 'f', 1, 64),
		strconv.FormatFloat(o.WindSpeed, 'f', 1, 64),
		string(o.Condition),
		o.Describe(),
	}
}

func writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	b.WriteString("\n")
}

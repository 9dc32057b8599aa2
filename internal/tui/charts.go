package tui

import (
	"fmt"
	"sort"
	"strings"
)

// horizontalBars renders one labelled bar per map key, scaled so the
// largest value fills maxWidth cells. Keys render in sorted order so
// the chart is stable across refreshes.
func horizontalBars(data map[string]int, maxWidth int) string {
	if len(data) == 0 {
		return mutedStyle.Render("no data")
	}
	keys := make([]string, 0, len(data))
	labelWidth := 0
	peak := 0
	for k, v := range data {
		keys = append(keys, k)
		if len(k) > labelWidth {
			labelWidth = len(k)
		}
		if v > peak {
			peak = v
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		width := 0
		if peak > 0 {
			width = data[k] * maxWidth / peak
		}
		if data[k] > 0 && width == 0 {
			width = 1
		}
		bar := strings.Repeat("█", width)
		fmt.Fprintf(&b, "%-*s %s %d", labelWidth, k, okStyle.Render(bar), data[k])
	}
	return b.String()
}

// successFailureBar renders a single proportional split of successes
// against failures, with the overall rate alongside.
func successFailureBar(success, failure int, rate float64, width int) string {
	total := success + failure
	if total == 0 {
		return mutedStyle.Render("no finished runs")
	}
	okCells := success * width / total
	if success > 0 && okCells == 0 {
		okCells = 1
	}
	if okCells > width {
		okCells = width
	}
	bar := okStyle.Render(strings.Repeat("█", okCells)) +
		failStyle.Render(strings.Repeat("█", width-okCells))
	return fmt.Sprintf("%s %.1f%% success (%d/%d)", bar, rate, success, total)
}

// trendSparkline compresses a date-keyed counter into one line of
// block characters, oldest date first.
func trendSparkline(data map[string]int) string {
	if len(data) == 0 {
		return mutedStyle.Render("no data")
	}
	dates := make([]string, 0, len(data))
	peak := 0
	for d, v := range data {
		dates = append(dates, d)
		if v > peak {
			peak = v
		}
	}
	sort.Strings(dates)

	levels := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, d := range dates {
		idx := 0
		if peak > 0 {
			idx = data[d] * (len(levels) - 1) / peak
		}
		b.WriteRune(levels[idx])
	}
	first, last := dates[0], dates[len(dates)-1]
	return fmt.Sprintf("%s  %s .. %s", okStyle.Render(b.String()), first, last)
}

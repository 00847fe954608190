package reports

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/wcharczuk/go-chart/v2"

	"ledger/internal/summary"
)

// ErrNoData is returned when there is no month to chart.
var ErrNoData = errors.New("no monthly data to chart")

const (
	barWidth   = 40
	barSpacing = 10
	minWidth   = 600
)

// SummaryChart renders income and expense bars per month, oldest month
// first, as a PNG. The Total row is skipped.
func SummaryChart(rows []summary.Row) ([]byte, error) {
	months := make([]summary.Row, 0, len(rows))
	for _, r := range rows {
		if !r.IsTotal() {
			months = append(months, r)
		}
	}
	if len(months) == 0 {
		return nil, ErrNoData
	}
	slices.Reverse(months)

	bars := make([]chart.Value, 0, 2*len(months))
	var top float64
	for _, r := range months {
		top = max(top, r.Income.InexactFloat64(), r.Expenses.InexactFloat64())
		label := r.Year + "-" + r.MonthNumber
		bars = append(bars,
			chart.Value{
				Label: label + " in",
				Value: r.Income.InexactFloat64(),
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					FillColor:   chart.ColorGreen,
				},
			},
			chart.Value{
				Label: label + " out",
				Value: r.Expenses.InexactFloat64(),
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					FillColor:   chart.ColorRed,
				},
			},
		)
	}

	width := len(bars)*(barWidth+barSpacing) + 120
	if width < minWidth {
		width = minWidth
	}

	graph := chart.BarChart{
		Title: "Income vs expenses",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:      width,
		Height:     500,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.Style{
			FontSize:  9,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render summary chart: %w", err)
	}
	return buffer.Bytes(), nil
}

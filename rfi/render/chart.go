package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cwbudde/algo-rfi/rfi/maskcount"
)

// MaskFractionChart renders an HTML page with one line per counter
// location showing the masked fraction of every chunk against its
// start time.
func MaskFractionChart(w io.Writer, title string, ms []maskcount.Measurement) error {
	if len(ms) == 0 {
		return errNoSamples
	}

	byWhere := make(map[string]map[int64]float64)
	posSet := make(map[int64]struct{})
	for _, m := range ms {
		if byWhere[m.Where] == nil {
			byWhere[m.Where] = make(map[int64]float64)
		}
		byWhere[m.Where][m.Pos] = m.Fraction()
		posSet[m.Pos] = struct{}{}
	}
	positions := make([]int64, 0, len(posSet))
	for p := range posSet {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	wheres := make([]string, 0, len(byWhere))
	for k := range byWhere {
		wheres = append(wheres, k)
	}
	sort.Strings(wheres)

	x := make([]string, len(positions))
	for i, p := range positions {
		x[i] = strconv.FormatInt(p, 10)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d measurements", len(ms))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Chunk start", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Masked fraction", Min: 0, Max: 1}),
	)
	line.SetXAxis(x)
	for _, where := range wheres {
		data := make([]opts.LineData, len(positions))
		for i, p := range positions {
			if v, ok := byWhere[where][p]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(where, data)
	}

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render: chart: %w", err)
	}
	return nil
}

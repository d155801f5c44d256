package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/maskalloc/core/allocation"
)

// WriteLoadChart renders an HTML bar chart comparing the load of each
// pharmacy after the nearest assignment and after rebalancing.
func WriteLoadChart(w io.Writer, res *allocation.Result) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Inhabitants per pharmacy",
			Subtitle: fmt.Sprintf("coeff %.2f, %d rounds, %d moves", res.Coeff, res.Rounds, res.Moves),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Pharmacy"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Inhabitants"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	initial := res.InitialLoads()
	names := make([]string, len(res.Pharmacies))
	before := make([]opts.BarData, len(res.Pharmacies))
	after := make([]opts.BarData, len(res.Pharmacies))
	for i, p := range res.Pharmacies {
		names[i] = p.Name
		if names[i] == "" {
			names[i] = p.ID
		}
		before[i] = opts.BarData{Value: initial[i]}
		after[i] = opts.BarData{Value: p.Load}
	}
	bar.SetXAxis(names).
		AddSeries("nearest", before).
		AddSeries("rebalanced", after)
	return bar.Render(w)
}

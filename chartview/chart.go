// Package chartview : 대시보드 View => go-echarts HTML (봉차트 + 지표 + 신호)
package chartview

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/StudioSol/set"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"dashstream/dashboard"
	"dashstream/model"
)

const axisFormat = "01/02 15:04"

// Render : 한 페이지에 봉차트(지표 overlap)와 신호 산점도
func Render(w io.Writer, view dashboard.View) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Dashboard %s", view.DeploymentID)

	page.AddCharts(buildCandleChart(view))
	if len(view.Signals) > 0 {
		page.AddCharts(buildSignalChart(view))
	}
	return page.Render(w)
}

func timeAxis(candles []model.Candle) []string {
	return lo.Map(candles, func(c model.Candle, _ int) string {
		return c.Time().UTC().Format(axisFormat)
	})
}

// buildCandleChart : go-echarts Kline은 [open, close, low, high] 순서
func buildCandleChart(view dashboard.View) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Candle Chart",
			Subtitle: subtitle(view),
			Show:     opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	if len(view.Candles) == 0 {
		return kline
	}

	kValues := lo.Map(view.Candles, func(c model.Candle, _ int) opts.KlineData {
		return opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	})
	kline.SetXAxis(timeAxis(view.Candles)).
		AddSeries("KLine", kValues).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        "#ec0000",
			Color0:       "#00da3c",
			BorderColor:  "#8A0000",
			BorderColor0: "#008F28",
		}))

	if names := IndicatorNames(view.IndicatorHistory); len(names) > 0 {
		kline.Overlap(buildIndicatorLines(view, names))
	}
	return kline
}

// IndicatorNames : 처음 등장한 순서대로 지표 이름 (같은 스냅샷 안에서는 이름순)
func IndicatorNames(history []model.IndicatorSnapshot) []string {
	names := set.NewLinkedHashSetString()
	for _, snap := range history {
		keys := lo.Keys(snap.Values)
		sort.Strings(keys)
		names.Add(keys...)
	}

	out := make([]string, 0, names.Length())
	for name := range names.Iter() {
		out = append(out, name)
	}
	return out
}

// buildIndicatorLines : 봉 시각(t)에 맞춰 지표 값을 배치. 값이 없는 봉은 빈칸
func buildIndicatorLines(view dashboard.View, names []string) *charts.Line {
	aligned := model.AlignTo(view.Candles, view.IndicatorHistory)

	line := charts.NewLine()
	line.SetXAxis(timeAxis(view.Candles))
	for _, name := range names {
		line.AddSeries(name, lineData(model.Column(aligned, name)))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
		Smooth:       opts.Bool(true),
		ConnectNulls: opts.Bool(true),
	}))
	return line
}

func lineData(values model.Series[float64], present []bool) []opts.LineData {
	data := make([]opts.LineData, values.Length())
	for i, v := range values.Values() {
		if present[i] {
			data[i] = opts.LineData{Value: v}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}
	return data
}

// buildSignalChart : 신호를 시간순으로 가격 위에 찍는다
func buildSignalChart(view dashboard.View) *charts.Scatter {
	signals := lo.Reverse(append([]model.Signal(nil), view.Signals...))

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Signals", Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	scatter.SetXAxis(lo.Map(signals, func(s model.Signal, _ int) string {
		return s.Time().UTC().Format(axisFormat)
	}))

	groups := lo.GroupBy(signals, func(s model.Signal) string { return s.Action })
	actions := lo.Keys(groups)
	sort.Strings(actions)
	for _, action := range actions {
		data := lo.Map(signals, func(s model.Signal, _ int) opts.ScatterData {
			if s.Action != action {
				return opts.ScatterData{Value: nil}
			}
			return opts.ScatterData{Value: s.Price, Name: s.Reason}
		})
		scatter.AddSeries(action, data)
	}
	return scatter
}

func subtitle(view dashboard.View) string {
	s := fmt.Sprintf("status=%s", view.Status.Status)
	if view.HasLatency {
		s += fmt.Sprintf(" latency=%s", view.Latency.Round(time.Millisecond))
	}
	if view.Position != nil {
		s += fmt.Sprintf(" position=%s %s %g@%g", view.Position.Symbol, view.Position.Side, view.Position.Size, view.Position.EntryPrice)
	}
	if view.Error != nil {
		s += " error=" + view.Error.Error()
	}
	return s
}

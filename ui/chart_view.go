package ui

import (
	"fmt"
	"math"

	"agentdash/app"
)

// SVG canvas used by every chart
const (
	chartWidth  = 640.0
	chartHeight = 320.0
	chartPad    = 40.0
	pieRadius   = 130.0
)

var chartPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

type barView struct {
	X, Y, W, H float64
	LabelX     float64
	Value      string
	Count      int
}

type pointView struct {
	X, Y  float64
	Value string
	Count int
}

type sliceView struct {
	Path    string
	Color   string
	Value   string
	Count   int
	Percent float64
}

// chartView is a chart laid out for the SVG template
type chartView struct {
	*app.Chart
	Width, Height float64
	BaseY         float64
	Bars          []barView
	Points        []pointView
	Polyline      string
	Slices        []sliceView
	FullCircle    bool
	CX, CY, R     float64
}

func newChartView(chart *app.Chart) chartView {
	v := chartView{
		Chart:  chart,
		Width:  chartWidth,
		Height: chartHeight,
		BaseY:  chartHeight - chartPad,
		CX:     chartWidth / 2,
		CY:     chartHeight / 2,
		R:      pieRadius,
	}
	if len(chart.Counts) == 0 {
		return v
	}

	switch chart.Kind {
	case app.ChartPie:
		v.layoutPie()
	case app.ChartLine:
		v.layoutLine()
	default:
		v.layoutBars()
	}
	return v
}

// yFor scales a count onto the plot area, 0 at the baseline
func (v *chartView) yFor(count int) float64 {
	maxCount := v.MaxCount()
	if maxCount == 0 {
		return v.BaseY
	}
	plot := v.Height - 2*chartPad
	return v.BaseY - plot*float64(count)/float64(maxCount)
}

func (v *chartView) layoutBars() {
	slot := (v.Width - 2*chartPad) / float64(len(v.Counts))
	for i, vc := range v.Counts {
		x := chartPad + float64(i)*slot
		y := v.yFor(vc.Count)
		v.Bars = append(v.Bars, barView{
			X:      x + slot*0.1,
			Y:      y,
			W:      slot * 0.8,
			H:      v.BaseY - y,
			LabelX: x + slot/2,
			Value:  vc.Value,
			Count:  vc.Count,
		})
	}
}

func (v *chartView) layoutLine() {
	step := 0.0
	if len(v.Counts) > 1 {
		step = (v.Width - 2*chartPad) / float64(len(v.Counts)-1)
	}
	for i, vc := range v.Counts {
		x := chartPad + float64(i)*step
		if len(v.Counts) == 1 {
			x = v.Width / 2
		}
		p := pointView{X: x, Y: v.yFor(vc.Count), Value: vc.Value, Count: vc.Count}
		v.Points = append(v.Points, p)
		if i > 0 {
			v.Polyline += " "
		}
		v.Polyline += fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
}

func (v *chartView) layoutPie() {
	if len(v.Counts) == 1 {
		v.FullCircle = true
	}
	angle := -math.Pi / 2
	for i, vc := range v.Counts {
		sweep := 2 * math.Pi * float64(vc.Count) / float64(v.Total)
		end := angle + sweep
		large := 0
		if sweep > math.Pi {
			large = 1
		}
		x1, y1 := v.CX+v.R*math.Cos(angle), v.CY+v.R*math.Sin(angle)
		x2, y2 := v.CX+v.R*math.Cos(end), v.CY+v.R*math.Sin(end)
		v.Slices = append(v.Slices, sliceView{
			Path: fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
				v.CX, v.CY, x1, y1, v.R, v.R, large, x2, y2),
			Color:   chartPalette[i%len(chartPalette)],
			Value:   vc.Value,
			Count:   vc.Count,
			Percent: vc.Percent,
		})
		angle = end
	}
}

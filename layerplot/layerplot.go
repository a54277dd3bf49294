/*
 * layerplot.go, part of golayers.
 *
 * Copyright 2023 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * golayers is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

/*Package layerplot renders the results of the bond and ELF analyses as
plots: bond-length distributions per bond type and the maximum-ELF profile
across layer counts. Output format follows the file extension given to the
plot name (.png, .svg, .pdf...).*/
package layerplot

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	layers "github.com/rmera/golayers"
)

var (
	inPlaneColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	interlayerColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	bulkColor       = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// BondLengths draws the clustered bond lengths of one cell representation as
// a bar chart: one bar per bucket, bar height the bond count, in-plane and
// interlayer buckets side by side in different colors. plotname needs the
// extension of the desired format.
func BondLengths(inPlane, interlayer []layers.BondSummary, title, plotname string) error {
	if len(inPlane) == 0 && len(interlayer) == 0 {
		return fmt.Errorf("no bond buckets to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "Bond length (Å)"
	p.Y.Label.Text = "Count"
	w := vg.Points(18)

	var labels []string
	plane, err := barChart(inPlane, len(interlayer) > 0, -w/2, w, inPlaneColor)
	if err != nil {
		return err
	}
	if plane != nil {
		p.Add(plane)
		p.Legend.Add(layers.InPlane, plane)
	}
	inter, err := barChart(interlayer, len(inPlane) > 0, w/2, w, interlayerColor)
	if err != nil {
		return err
	}
	if inter != nil {
		p.Add(inter)
		p.Legend.Add(layers.Interlayer, inter)
	}
	//both types share the bucket positions on the nominal axis
	n := len(inPlane)
	if len(interlayer) > n {
		n = len(interlayer)
	}
	for i := 0; i < n; i++ {
		switch {
		case i < len(inPlane) && i < len(interlayer):
			labels = append(labels, fmt.Sprintf("%.3f/%.3f", inPlane[i].Length, interlayer[i].Length))
		case i < len(inPlane):
			labels = append(labels, fmt.Sprintf("%.3f", inPlane[i].Length))
		default:
			labels = append(labels, fmt.Sprintf("%.3f", interlayer[i].Length))
		}
	}
	p.NominalX(labels...)
	p.Legend.Top = true
	return p.Save(14*vg.Centimeter, 10*vg.Centimeter, plotname)
}

func barChart(summaries []layers.BondSummary, paired bool, offset, width vg.Length, col color.Color) (*plotter.BarChart, error) {
	if len(summaries) == 0 {
		return nil, nil
	}
	values := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		values[i] = float64(s.Count)
	}
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return nil, err
	}
	bars.Color = col
	bars.LineStyle.Width = 0
	if paired {
		bars.Offset = offset
	}
	return bars, nil
}

// ELFProfile draws the maximum ELF value against the layer count, one point
// per numerically-labeled result, connected by a line. A "bulk" result, when
// present, becomes a horizontal reference line. Results with other
// non-numeric labels are skipped.
func ELFProfile(results []layers.ElfLayerResult, title, plotname string) error {
	var pts plotter.XYs
	bulk := 0.0
	hasBulk := false
	for _, item := range results {
		if item.Result == nil {
			continue
		}
		if item.Label == "bulk" {
			bulk = item.Result.Metrics.MaxELF
			hasBulk = true
			continue
		}
		n, err := strconv.Atoi(item.Label)
		if err != nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(n), Y: item.Result.Metrics.MaxELF})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no numerically-labeled results to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "Layers"
	p.Y.Label.Text = "Max ELF"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = inPlaneColor
	points.Color = inPlaneColor
	p.Add(line, points)
	p.Legend.Add("slab", line, points)

	if hasBulk {
		ref, err := plotter.NewLine(plotter.XYs{
			{X: pts[0].X, Y: bulk},
			{X: pts[len(pts)-1].X, Y: bulk},
		})
		if err != nil {
			return err
		}
		ref.Color = bulkColor
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(ref)
		p.Legend.Add("bulk", ref)
	}
	p.Legend.Top = true
	return p.Save(14*vg.Centimeter, 10*vg.Centimeter, plotname)
}

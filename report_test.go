/*
 * report_test.go, part of golayers.
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

package layers

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestAnalyzeELFCAR(Te *testing.T) {
	res, err := AnalyzeELFCAR("test/ELFCAR_2", 2, 0.4)
	if err != nil {
		Te.Fatal(err)
	}
	if len(res.Hotspots) != 2 {
		Te.Fatalf("hotspots: got %d, want 2", len(res.Hotspots))
	}
	first, second := res.Hotspots[0], res.Hotspots[1]
	if first.ELF != 0.95 || second.ELF != 0.90 {
		Te.Errorf("hotspot values: got %f, %f, want 0.95, 0.90", first.ELF, second.ELF)
	}
	if first.FracCoord != [3]float64{0, 0, 0} {
		Te.Errorf("top hotspot at %v, want the origin", first.FracCoord)
	}
	//the second peak sits at grid (2,2,2) of a 4-point axis: 2/3 per axis
	for _, v := range second.FracCoord {
		if math.Abs(v-0.66667) > 1e-9 {
			Te.Errorf("second hotspot fractional: got %v", second.FracCoord)
		}
	}
	//nearest atom to the origin is at (0,0,2) Angstroms
	if first.ShortestDistance != 2.0 {
		Te.Errorf("shortest distance: got %f, want 2.0", first.ShortestDistance)
	}
	//grid mean: (0.95 + 0.90 + 62*0.1) / 64
	if want := roundTo(8.05/64, 5); res.Metrics.AverageELF != want {
		Te.Errorf("average ELF: got %f, want %f", res.Metrics.AverageELF, want)
	}
	if res.Metrics.MaxELF != first.ELF || res.Metrics.MaxFracCoord != first.FracCoord {
		Te.Error("metrics must come from the top-ranked hotspot")
	}
	fmt.Println("ELFCAR_2 metrics:", res.Metrics)
}

func TestAnalyzeELFCARDir(Te *testing.T) {
	results, err := AnalyzeELFCARDir("test", "ELFCAR_", 1, DefaultMinSeparation)
	if err != nil {
		Te.Fatal(err)
	}
	var labels []string
	for _, item := range results {
		labels = append(labels, item.Label)
	}
	//numeric labels first in numeric order, non-numeric after; the .gz file
	//keeps its numeric label
	want := []string{"2", "4", "6", "bulk"}
	if len(labels) != len(want) {
		Te.Fatalf("labels: got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			Te.Fatalf("labels: got %v, want %v", labels, want)
		}
	}
	if results[2].Result.Metrics.MaxELF != 0.85 {
		Te.Errorf("gzipped layer 6 max ELF: got %f, want 0.85", results[2].Result.Metrics.MaxELF)
	}
	if _, err := AnalyzeELFCARDir("test", "NOSUCH_", 1, 0.05); err == nil {
		Te.Error("expected an error when no file matches the prefix")
	}
}

func TestLabelSorting(Te *testing.T) {
	labels := []string{"10", "2", "bulk", "alpha"}
	//labelLess must order numerics numerically before the rest
	want := []string{"2", "10", "alpha", "bulk"}
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			if labelLess(labels[j], labels[i]) {
				labels[i], labels[j] = labels[j], labels[i]
			}
		}
	}
	for i := range want {
		if labels[i] != want[i] {
			Te.Fatalf("sorted labels: got %v, want %v", labels, want)
		}
	}
}

func TestLabelForFile(Te *testing.T) {
	cases := map[string]string{
		"ELFCAR_10":      "10",
		"ELFCAR_10.gz":   "10",
		"ELFCAR_bulk":    "bulk",
		"ELFCAR_bulk.gz": "bulk",
	}
	for name, want := range cases {
		if got := LabelForFile(name, "ELFCAR_"); got != want {
			Te.Errorf("label of %s: got %q, want %q", name, got, want)
		}
	}
}

func TestElfTableWriters(Te *testing.T) {
	results, err := AnalyzeELFCARDir("test", "ELFCAR_", 2, 0.4)
	if err != nil {
		Te.Fatal(err)
	}
	var data, coords, table strings.Builder
	if err := WriteElfData(&data, results); err != nil {
		Te.Fatal(err)
	}
	if err := WriteElfCoords(&coords, results); err != nil {
		Te.Fatal(err)
	}
	if err := WriteHotspotTable(&table, results); err != nil {
		Te.Fatal(err)
	}
	dataLines := strings.Split(strings.TrimRight(data.String(), "\n"), "\n")
	if dataLines[0] != "Layers\tMaxELF\tDist\tAvgELF" {
		Te.Errorf("data header: got %q", dataLines[0])
	}
	if len(dataLines) != len(results)+1 {
		Te.Errorf("data rows: got %d, want %d", len(dataLines)-1, len(results))
	}
	if !strings.HasPrefix(dataLines[1], "2\t0.95000\t2.00000\t") {
		Te.Errorf("first data row: got %q", dataLines[1])
	}
	coordsLines := strings.Split(strings.TrimRight(coords.String(), "\n"), "\n")
	//label plus two tab-joined coordinate triples: 7 columns
	if fields := strings.Split(coordsLines[1], "\t"); len(fields) != 7 {
		Te.Errorf("coordinate row has %d columns, want 7: %q", len(fields), coordsLines[1])
	}
	//layer 2 has two separated peaks, so two hotspot rows
	if got := strings.Count(table.String(), "\n2\t"); got != 2 {
		//count rows starting with the "2" label (header excluded by \n prefix)
		Te.Errorf("hotspot rows for layer 2: got %d, want 2", got)
	}
}

func TestWriteBondReport(Te *testing.T) {
	s, err := POSCARRead("test/POSCAR_Fe3.vasp")
	if err != nil {
		Te.Fatal(err)
	}
	res, err := AnalyzeStructure(s, DefaultMaxBondDistance, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if res.NumLayers != 3 {
		Te.Errorf("layers: got %d, want 3", res.NumLayers)
	}
	var b strings.Builder
	if err := WriteBondReport(&b, "POSCAR_Fe3.vasp", res); err != nil {
		Te.Fatal(err)
	}
	report := b.String()
	for _, want := range []string{
		"File: POSCAR_Fe3.vasp",
		"Number of Layers: 3",
		"Unique interlayer bonds (unit cell):",
		"Unique in-plane bonds (supercell):",
	} {
		if !strings.Contains(report, want) {
			Te.Errorf("report lacks %q", want)
		}
	}
	//layers stack along c only: every unit-cell bond must be interlayer
	if len(res.UnitCellInterlayer) == 0 {
		Te.Error("no interlayer bonds found in a stacked slab")
	}
	fmt.Println(report)
}

func TestAnalyzePOSCAR(Te *testing.T) {
	res, err := AnalyzePOSCAR("test/POSCAR_Fe3.vasp", 0, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if res.NumLayers != 3 {
		Te.Errorf("layers: got %d, want 3", res.NumLayers)
	}
	if _, err := AnalyzePOSCAR("test/NO_SUCH_FILE", 0, nil); err == nil {
		Te.Error("expected an error for a missing file")
	}
}

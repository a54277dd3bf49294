/*
 * report.go, part of golayers.
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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//File- and directory-level entry points for the ELF analysis, and the plain
//text/TSV writers that turn analysis results into the report files the
//original shell workflows expect.

// AnalyzeELFCAR reads an ELFCAR file and runs the full hotspot analysis on
// its grid. topN and minSep as in ExtractHotspots.
func AnalyzeELFCAR(name string, topN int, minSep float64) (*ElfAnalysisResult, error) {
	grid, lattice, atoms, err := ELFCARRead(name)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeELFCAR")
	}
	res, err := AnalyzeGrid(grid, lattice, atoms, topN, minSep)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeELFCAR")
	}
	return res, nil
}

// AnalyzeELFCARDir analyzes every file in dir whose name starts with prefix
// (normally "ELFCAR_"), one labelled result per file. Results are ordered by
// label: purely numeric labels first, in numeric order, then the rest
// lexicographically. An error is returned when no file matches.
func AnalyzeELFCARDir(dir, prefix string, topN int, minSep float64) ([]ElfLayerResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeELFCARDir")
	}
	var labelled []struct{ label, path string }
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		labelled = append(labelled, struct{ label, path string }{
			label: LabelForFile(e.Name(), prefix),
			path:  filepath.Join(dir, e.Name()),
		})
	}
	if len(labelled) == 0 {
		return nil, newError(ErrNoFilesMatched, "AnalyzeELFCARDir")
	}
	sort.Slice(labelled, func(i, j int) bool { return labelLess(labelled[i].label, labelled[j].label) })
	results := make([]ElfLayerResult, 0, len(labelled))
	for _, item := range labelled {
		res, err := AnalyzeELFCAR(item.path, topN, minSep)
		if err != nil {
			return nil, errDecorate(err, "AnalyzeELFCARDir")
		}
		results = append(results, ElfLayerResult{Label: item.label, Result: res})
	}
	return results, nil
}

// LabelForFile extracts the layer label of an ELFCAR-style file name: the
// part after the prefix, with any extension stripped (ELFCAR_10.gz -> "10").
// The bulk reference file keeps the "bulk" label.
func LabelForFile(name, prefix string) string {
	stem := strings.TrimPrefix(name, prefix)
	if strings.EqualFold(stem, "bulk") {
		return "bulk"
	}
	if i := strings.Index(stem, "."); i >= 0 {
		stem = stem[:i]
	}
	return stem
}

// labelLess orders purely-numeric labels numerically before the
// lexicographically-ordered non-numeric ones.
func labelLess(a, b string) bool {
	na, erra := strconv.Atoi(a)
	nb, errb := strconv.Atoi(b)
	switch {
	case erra == nil && errb == nil:
		return na < nb
	case erra == nil:
		return true
	case errb == nil:
		return false
	default:
		return a < b
	}
}

// WriteElfData writes the per-layer metrics table (label, max ELF, distance
// to the nearest atom, grid average; 5 decimals, tab-separated).
func WriteElfData(w io.Writer, results []ElfLayerResult) error {
	if _, err := fmt.Fprintf(w, "Layers\tMaxELF\tDist\tAvgELF\n"); err != nil {
		return errDecorate(err, "WriteElfData")
	}
	for _, item := range results {
		m := item.Result.Metrics
		_, err := fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\n", item.Label, m.MaxELF, m.ShortestDistance, m.AverageELF)
		if err != nil {
			return errDecorate(err, "WriteElfData")
		}
	}
	return nil
}

// WriteElfCoords writes the per-layer coordinate table: label, then the
// fractional and Cartesian coordinates of the grid maximum, tab-joined with 5
// decimals.
func WriteElfCoords(w io.Writer, results []ElfLayerResult) error {
	if _, err := fmt.Fprintf(w, "Layers\tMaxFracCoord\tMaxCartCoord\n"); err != nil {
		return errDecorate(err, "WriteElfCoords")
	}
	for _, item := range results {
		m := item.Result.Metrics
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", item.Label, joinCoord(m.MaxFracCoord), joinCoord(m.MaxCartCoord))
		if err != nil {
			return errDecorate(err, "WriteElfCoords")
		}
	}
	return nil
}

// WriteHotspotTable writes one row per hotspot of every labelled result:
// label, rank, ELF value, distance to the nearest atom, then the fractional
// and Cartesian coordinates (5 decimals, tab-separated).
func WriteHotspotTable(w io.Writer, results []ElfLayerResult) error {
	if _, err := fmt.Fprintf(w, "Layers\tRank\tELF\tDist\tFracCoord\tCartCoord\n"); err != nil {
		return errDecorate(err, "WriteHotspotTable")
	}
	for _, item := range results {
		for _, h := range item.Result.Hotspots {
			_, err := fmt.Fprintf(w, "%s\t%d\t%.5f\t%.5f\t%s\t%s\n",
				item.Label, h.Rank, h.ELF, h.ShortestDistance, joinCoord(h.FracCoord), joinCoord(h.CartCoord))
			if err != nil {
				return errDecorate(err, "WriteHotspotTable")
			}
		}
	}
	return nil
}

func joinCoord(v [3]float64) string {
	return fmt.Sprintf("%.5f\t%.5f\t%.5f", v[0], v[1], v[2])
}

// WriteBondReport writes the human-readable bond analysis report of one
// structure: the layer count, then one section per bond type and cell
// representation with 3-decimal lengths and integer counts.
func WriteBondReport(w io.Writer, name string, r *BondAnalysisResult) error {
	if r == nil {
		return newError("nil result given", "WriteBondReport")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", name)
	fmt.Fprintf(&b, "Number of Layers: %d\n\n", r.NumLayers)
	section := func(title string, entries []BondSummary) {
		fmt.Fprintf(&b, "%s:\n", title)
		for _, e := range entries {
			fmt.Fprintf(&b, "%s: %.3f Angstrom, Count: %d\n", e.BondType, e.Length, e.Count)
		}
		b.WriteString("\n")
	}
	section("Unique in-plane bonds (unit cell)", r.UnitCellInPlane)
	section("Unique interlayer bonds (unit cell)", r.UnitCellInterlayer)
	section("Unique in-plane bonds (primitive cell)", r.PrimitiveInPlane)
	section("Unique interlayer bonds (primitive cell)", r.PrimitiveInterlayer)
	section("Unique in-plane bonds (supercell)", r.SupercellInPlane)
	section("Unique interlayer bonds (supercell)", r.SupercellInterlayer)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errDecorate(err, "WriteBondReport")
	}
	return nil
}

// AnalyzePOSCAR runs the bond analysis directly on a POSCAR/CONTCAR file.
func AnalyzePOSCAR(name string, maxDistance float64, eng GeometryEngine) (*BondAnalysisResult, error) {
	s, err := POSCARRead(name)
	if err != nil {
		return nil, errDecorate(err, "AnalyzePOSCAR")
	}
	res, err := AnalyzeStructure(s, maxDistance, eng)
	if err != nil {
		return nil, errDecorate(err, "AnalyzePOSCAR")
	}
	return res, nil
}

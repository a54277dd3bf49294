/*
 * elf.go, part of golayers.
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
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	//DefaultTopN is the default number of ELF hotspots to extract per grid.
	DefaultTopN = 1
	//DefaultMinSeparation is the default minimum periodic fractional
	//distance between two accepted hotspots.
	DefaultMinSeparation = 0.05
	//poolFactor scales topN into the initial candidate pool size for the
	//hotspot search.
	poolFactor = 256
)

// ScalarGrid is a 3D array of floating-point values over a regular grid
// spanning the unit cell, periodic in all three directions. Data is stored
// flat in C order (the last axis varies fastest).
type ScalarGrid struct {
	nx, ny, nz int
	data       []float64
}

// NewScalarGrid creates a grid with the given dimensions, all values zero.
// Every dimension must be >= 1.
func NewScalarGrid(nx, ny, nz int) (*ScalarGrid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, newError(fmt.Sprintf("grid dimensions must be >= 1, got %dx%dx%d", nx, ny, nz), "NewScalarGrid")
	}
	return &ScalarGrid{nx: nx, ny: ny, nz: nz, data: make([]float64, nx*ny*nz)}, nil
}

// Dims returns the three grid dimensions.
func (g *ScalarGrid) Dims() (int, int, int) {
	return g.nx, g.ny, g.nz
}

// Len returns the total number of grid points.
func (g *ScalarGrid) Len() int {
	return len(g.data)
}

// At returns the value at (i,j,k). Panics if out of range.
func (g *ScalarGrid) At(i, j, k int) float64 {
	return g.data[(i*g.ny+j)*g.nz+k]
}

// Set stores a value at (i,j,k). Panics if out of range.
func (g *ScalarGrid) Set(i, j, k int, v float64) {
	g.data[(i*g.ny+j)*g.nz+k] = v
}

// Mean returns the arithmetic mean of all grid values.
func (g *ScalarGrid) Mean() float64 {
	return stat.Mean(g.data, nil)
}

// unflatten converts a flat C-order index into the (i,j,k) grid multi-index.
func (g *ScalarGrid) unflatten(flat int) [3]int {
	return [3]int{flat / (g.ny * g.nz), (flat / g.nz) % g.ny, flat % g.nz}
}

// indexToFrac converts a grid multi-index to a fractional coordinate. Each
// component is divided by (dimension-1), or by 1 when the axis has a single
// point, so singleton axes never divide by zero.
func (g *ScalarGrid) indexToFrac(idx [3]int) [3]float64 {
	dims := [3]int{g.nx, g.ny, g.nz}
	var f [3]float64
	for a := 0; a < 3; a++ {
		den := dims[a] - 1
		if den < 1 {
			den = 1
		}
		f[a] = float64(idx[a]) / float64(den)
	}
	return f
}

// Hotspot is one local maximum of an ELF grid, selected under the
// minimum-separation constraint. Ranks are 1-based and assigned in descending
// value order. Coordinates and values are rounded to 5 decimals.
type Hotspot struct {
	Rank             int        `json:"rank"`
	ELF              float64    `json:"elf_value"`
	FracCoord        [3]float64 `json:"frac_coord"`
	CartCoord        [3]float64 `json:"cart_coord"`
	ShortestDistance float64    `json:"shortest_distance"` //to the nearest atom, Angstroms. NaN if there are no atoms.
}

// ElfMetrics summarizes an ELF grid: the top hotspot supplies the first four
// fields; AverageELF is the mean of the whole grid, unaffected by the hotspot
// selection.
type ElfMetrics struct {
	MaxELF           float64    `json:"max_elf"`
	MaxFracCoord     [3]float64 `json:"max_frac_coord"`
	MaxCartCoord     [3]float64 `json:"max_cart_coord"`
	ShortestDistance float64    `json:"shortest_distance"`
	AverageELF       float64    `json:"average_elf"`
}

// ElfAnalysisResult is the full outcome of analyzing one ELF grid.
type ElfAnalysisResult struct {
	Metrics  ElfMetrics `json:"metrics"`
	Hotspots []Hotspot  `json:"hotspots"`
}

// ElfLayerResult ties an analysis result to the label of the layer (or bulk
// reference) it came from.
type ElfLayerResult struct {
	Label  string             `json:"label"`
	Result *ElfAnalysisResult `json:"result"`
}

// ExtractHotspots returns up to topN local maxima of the grid, highest value
// first, every pair separated by at least minSep in periodic fractional
// distance. lattice converts fractional to Cartesian coordinates; atomCart
// holds the Cartesian positions of the atoms, used for the
// distance-to-nearest-atom of each hotspot (NaN when atomCart is empty).
//
// The search is greedy with an adaptively-widening candidate pool: the
// max(topN*256, topN) highest grid values are partially selected (quickselect,
// no full sort of the grid), sorted descending and walked, accepting every
// candidate far enough from all previously accepted ones; if the pool runs
// out before topN hotspots are found, it is doubled (already-examined indices
// are not reconsidered) until it covers the whole grid. When even the full
// grid cannot supply topN mutually-separated maxima the shorter list is
// returned and that is not an error: the separation constraint, not the data,
// is what limits the result.
func ExtractHotspots(grid *ScalarGrid, lattice *mat.Dense, atomCart [][3]float64, topN int, minSep float64) ([]Hotspot, error) {
	if grid == nil {
		return nil, newError("nil grid given", "ExtractHotspots")
	}
	if topN < 1 {
		return nil, newError("top_n must be >= 1", "ExtractHotspots")
	}
	if minSep < 0 {
		return nil, newError("min_separation_frac must be >= 0", "ExtractHotspots")
	}
	total := grid.Len()
	if total == 0 {
		return nil, nil
	}
	pool := topN * poolFactor
	if pool < topN {
		pool = topN
	}
	if pool > total {
		pool = total
	}
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	var hotspots []Hotspot
	var acceptedFrac [][3]float64 //unrounded, for the separation checks
	examined := 0
	for {
		//Select the next (pool-examined) largest values among the
		//not-yet-examined indices. Everything before examined already
		//holds larger values, so the segments stay globally ordered.
		selectLargest(grid.data, idx[examined:], pool-examined)
		segment := idx[examined:pool]
		sort.Slice(segment, func(a, b int) bool { return grid.data[segment[a]] > grid.data[segment[b]] })
		for _, flat := range segment {
			frac := grid.indexToFrac(grid.unflatten(flat))
			if !separated(frac, acceptedFrac, minSep) {
				continue
			}
			cart := fracToCart(frac, lattice)
			hotspots = append(hotspots, Hotspot{
				Rank:             len(hotspots) + 1,
				ELF:              roundTo(grid.data[flat], 5),
				FracCoord:        roundTo3(frac, 5),
				CartCoord:        roundTo3(cart, 5),
				ShortestDistance: roundTo(nearestAtom(cart, atomCart), 5),
			})
			acceptedFrac = append(acceptedFrac, frac)
			if len(hotspots) == topN {
				return hotspots, nil
			}
		}
		examined = pool
		if pool == total {
			break
		}
		pool *= 2
		if pool > total {
			pool = total
		}
	}
	return hotspots, nil
}

func separated(frac [3]float64, accepted [][3]float64, minSep float64) bool {
	for _, a := range accepted {
		if FracDistance(frac, a) < minSep {
			return false
		}
	}
	return true
}

// nearestAtom returns the minimum Euclidean distance from cart to the atom
// positions, or NaN if there are none.
func nearestAtom(cart [3]float64, atomCart [][3]float64) float64 {
	if len(atomCart) == 0 {
		return math.NaN()
	}
	best := math.Inf(1)
	for _, a := range atomCart {
		if d := norm3(sub3(cart, a)); d < best {
			best = d
		}
	}
	return best
}

// selectLargest partially sorts idx so that its first k entries are the
// indices of the k largest values, in O(len(idx)) average time (quickselect
// with median-of-three pivoting). The first k entries end up in no particular
// order; everything after them holds smaller-or-equal values.
func selectLargest(values []float64, idx []int, k int) {
	if k <= 0 || k >= len(idx) {
		return
	}
	lo, hi := 0, len(idx)-1
	for lo < hi {
		p := partitionDesc(values, idx, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

// partitionDesc partitions idx[lo:hi+1] around a pivot value in descending
// order and returns the final pivot position.
func partitionDesc(values []float64, idx []int, lo, hi int) int {
	mid := lo + (hi-lo)/2
	//median-of-three, guards against already-ordered data
	if values[idx[mid]] > values[idx[lo]] {
		idx[lo], idx[mid] = idx[mid], idx[lo]
	}
	if values[idx[hi]] > values[idx[lo]] {
		idx[lo], idx[hi] = idx[hi], idx[lo]
	}
	if values[idx[hi]] > values[idx[mid]] {
		idx[mid], idx[hi] = idx[hi], idx[mid]
	}
	pivot := values[idx[mid]]
	idx[mid], idx[hi] = idx[hi], idx[mid]
	store := lo
	for i := lo; i < hi; i++ {
		if values[idx[i]] > pivot {
			idx[i], idx[store] = idx[store], idx[i]
			store++
		}
	}
	idx[store], idx[hi] = idx[hi], idx[store]
	return store
}

// AnalyzeGrid computes the full ELF analysis of a grid: the hotspots plus the
// derived metrics. It fails fast on invalid arguments (topN < 1, minSep < 0)
// and when no maximum can be determined at all.
func AnalyzeGrid(grid *ScalarGrid, lattice *mat.Dense, atomCart [][3]float64, topN int, minSep float64) (*ElfAnalysisResult, error) {
	hotspots, err := ExtractHotspots(grid, lattice, atomCart, topN, minSep)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeGrid")
	}
	if len(hotspots) == 0 {
		return nil, newError("no grid maxima could be determined", "AnalyzeGrid")
	}
	top := hotspots[0]
	metrics := ElfMetrics{
		MaxELF:           top.ELF,
		MaxFracCoord:     top.FracCoord,
		MaxCartCoord:     top.CartCoord,
		ShortestDistance: top.ShortestDistance,
		AverageELF:       roundTo(grid.Mean(), 5),
	}
	return &ElfAnalysisResult{Metrics: metrics, Hotspots: hotspots}, nil
}

/*
 * bonds.go, part of golayers.
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
)

// Bond classification labels.
const (
	InPlane    = "in-plane"
	Interlayer = "interlayer"
)

const (
	//DefaultMaxBondDistance is the default cutoff for the neighbor search, in Angstroms.
	DefaultMaxBondDistance = 3.0
	//DefaultGapThreshold is the minimum empty space along the vacuum axis
	//that separates two layers, in Angstroms.
	DefaultGapThreshold = 1.5
	//bondTol is the maximum difference (Angstroms) between a bond length and a
	//bucket representative for the bond to join that bucket.
	bondTol = 0.008
)

// BondSummary is a cluster of geometrically-equivalent bonds: the bond type,
// the representative length of the cluster (Angstroms) and how many bonds
// fell into it.
type BondSummary struct {
	BondType string  `json:"bond_type"`
	Length   float64 `json:"length"`
	Count    int     `json:"count"`
}

// BondAnalysisResult holds the layer count of a structure plus the clustered
// bond lengths of the two bond types, for the three cell representations
// analyzed (as-given cell, primitive standard cell, 3x3x1 supercell).
// Each slice is sorted by ascending length.
type BondAnalysisResult struct {
	NumLayers           int           `json:"num_layers"`
	UnitCellInPlane     []BondSummary `json:"unit_cell_in_plane"`
	UnitCellInterlayer  []BondSummary `json:"unit_cell_interlayer"`
	PrimitiveInPlane    []BondSummary `json:"primitive_in_plane"`
	PrimitiveInterlayer []BondSummary `json:"primitive_interlayer"`
	SupercellInPlane    []BondSummary `json:"supercell_in_plane"`
	SupercellInterlayer []BondSummary `json:"supercell_interlayer"`
}

// AnalyzeStructure performs the full bond analysis of a structure: it counts
// its layers and collects, classifies and clusters its bonds in the given
// cell, in the primitive standard cell and in a 3x3x1 supercell (the
// multiplicity along the vacuum axis stays 1, the other two axes get 3).
// maxDistance is the neighbor cutoff in Angstroms; if <= 0,
// DefaultMaxBondDistance is used. A nil engine selects the built-in
// CellEngine.
func AnalyzeStructure(s *Structure, maxDistance float64, eng GeometryEngine) (*BondAnalysisResult, error) {
	if s == nil {
		return nil, newError(ErrNilStructure, "AnalyzeStructure")
	}
	if s.Len() == 0 {
		return nil, newError(ErrEmptyStructure, "AnalyzeStructure")
	}
	if maxDistance <= 0 {
		maxDistance = DefaultMaxBondDistance
	}
	if eng == nil {
		eng = CellEngine{}
	}
	axis := s.VacuumAxis()
	layers, err := CountLayers(s, axis, DefaultGapThreshold)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeStructure")
	}
	unitPlane, unitInter := collectBonds(s, maxDistance, axis, eng)

	prim, err := eng.PrimitiveStandard(s)
	if err != nil {
		return nil, errDecorate(err, "AnalyzeStructure")
	}
	primPlane, primInter := collectBonds(prim, maxDistance, axis, eng)

	mult := [3]int{3, 3, 3}
	mult[axis] = 1
	super, err := s.Supercell(mult[0], mult[1], mult[2])
	if err != nil {
		return nil, errDecorate(err, "AnalyzeStructure")
	}
	superPlane, superInter := collectBonds(super, maxDistance, axis, eng)

	return &BondAnalysisResult{
		NumLayers:           layers,
		UnitCellInPlane:     unitPlane.summaries(InPlane),
		UnitCellInterlayer:  unitInter.summaries(Interlayer),
		PrimitiveInPlane:    primPlane.summaries(InPlane),
		PrimitiveInterlayer: primInter.summaries(Interlayer),
		SupercellInPlane:    superPlane.summaries(InPlane),
		SupercellInterlayer: superInter.summaries(Interlayer),
	}, nil
}

// CountLayers returns the number of layers of a slab: the site coordinates
// along the given axis are sorted and every consecutive gap larger than
// gapThreshold (Angstroms) starts a new layer. A single site yields 1 layer;
// an empty structure is an error.
func CountLayers(s *Structure, axis int, gapThreshold float64) (int, error) {
	if s == nil {
		return 0, newError(ErrNilStructure, "CountLayers")
	}
	if s.Len() == 0 {
		return 0, newError(ErrEmptyStructure, "CountLayers")
	}
	if axis < 0 || axis > 2 {
		return 0, newError(fmt.Sprintf("axis must be 0, 1 or 2, got %d", axis), "CountLayers")
	}
	coords := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		coords[i] = s.SiteCart(i)[axis]
	}
	sort.Float64s(coords)
	gaps := 0
	for i := 1; i < len(coords); i++ {
		if coords[i]-coords[i-1] > gapThreshold {
			gaps++
		}
	}
	return gaps + 1, nil
}

// bondBucket clusters bond lengths of one bond type. The representative
// length of an entry is fixed when the entry is created; later bonds within
// bondTol of it only increment the count. Order-dependent on purpose: this is
// first-seen clustering, not centroid clustering.
type bondBucket []bucketEntry

type bucketEntry struct {
	length float64
	count  int
}

// add merges a new bond length into the first entry within bondTol of it, or
// appends a new entry keyed by the length rounded to 3 decimals.
func (b bondBucket) add(length float64) bondBucket {
	for i := range b {
		if math.Abs(b[i].length-length) <= bondTol {
			b[i].count++
			return b
		}
	}
	return append(b, bucketEntry{length: roundTo(length, 3), count: 1})
}

func (b bondBucket) summaries(bondType string) []BondSummary {
	ret := make([]BondSummary, 0, len(b))
	for _, v := range b {
		ret = append(ret, BondSummary{BondType: bondType, Length: v.length, Count: v.count})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Length < ret[j].Length })
	return ret
}

// collectBonds enumerates every bond of s shorter than maxDistance and
// accumulates the lengths into one bucket per bond type. Neighbors whose
// periodic image falls outside the canonical [0,1) fractional range on any
// axis are skipped: only in-cell neighbors are kept, which avoids counting a
// bond again for each replica of the cell. Each undirected bond is processed
// once, keyed by the sorted pair of its endpoint coordinates. A bond is
// interlayer if its largest Cartesian displacement component lies along the
// vacuum axis, in-plane otherwise.
func collectBonds(s *Structure, maxDistance float64, vacuumAxis int, eng GeometryEngine) (bondBucket, bondBucket) {
	var inPlane, interlayer bondBucket
	processed := make(map[string]bool)
	for i := 0; i < s.Len(); i++ {
		center := s.SiteCart(i)
		for _, nb := range eng.NeighborsWithin(s, i, maxDistance) {
			frac := s.CartToFrac(nb.Cart)
			if outsideCell(frac) {
				continue
			}
			id := bondID(center, nb.Cart)
			if processed[id] {
				continue
			}
			processed[id] = true
			vec := sub3(center, nb.Cart)
			axis := 0
			for k := 1; k < 3; k++ {
				if math.Abs(vec[k]) > math.Abs(vec[axis]) {
					axis = k
				}
			}
			length := norm3(vec)
			if axis == vacuumAxis {
				interlayer = interlayer.add(length)
			} else {
				inPlane = inPlane.add(length)
			}
		}
	}
	return inPlane, interlayer
}

func outsideCell(frac [3]float64) bool {
	for _, f := range frac {
		if f < 0 || f >= 1 {
			return true
		}
	}
	return false
}

// bondID builds a canonical key for an undirected bond from the Cartesian
// coordinates of its two endpoints. The endpoints are formatted with enough
// decimals to distinguish distinct positions and sorted, so both directions
// of the bond map to the same key.
func bondID(a, b [3]float64) string {
	ka := fmt.Sprintf("%.8f,%.8f,%.8f", a[0], a[1], a[2])
	kb := fmt.Sprintf("%.8f,%.8f,%.8f", b[0], b[1], b[2])
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

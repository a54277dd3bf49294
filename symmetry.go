/*
 * symmetry.go, part of golayers.
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
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// symTol is the fractional-coordinate tolerance used when comparing sites
// during primitive-cell reduction.
const symTol = 1e-5

// Neighbor is one periodic neighbor of a site: the index of the neighboring
// site in the structure, the integer lattice image it was found in, its
// Cartesian position in that image, and the distance to the reference site.
type Neighbor struct {
	Index int
	Image [3]int
	Cart  [3]float64
	Dist  float64
}

// GeometryEngine abstracts the crystallographic operations that the bond
// analyzer needs, so the analysis can run against any conforming backend
// (e.g. a binding to a full symmetry library). The built-in CellEngine
// implements both operations without external programs.
type GeometryEngine interface {
	//PrimitiveStandard returns the symmetry-reduced primitive form of the
	//given structure.
	PrimitiveStandard(s *Structure) (*Structure, error)
	//NeighborsWithin returns every periodic neighbor of the site-th site
	//within the given radius (Angstroms), excluding the site itself.
	NeighborsWithin(s *Structure, site int, radius float64) []Neighbor
}

// CellEngine is the built-in GeometryEngine. Neighbor searches enumerate the
// periodic images needed to cover the search radius; primitive reduction
// looks for internal translations that map the site set onto itself and
// shrinks the cell along them until none is left.
type CellEngine struct{}

// NeighborsWithin returns the periodic neighbors of the site-th site of s
// within radius Angstroms. The image search range on each axis is derived
// from the perpendicular height of the cell along that axis, so it works for
// cells smaller than the search radius.
func (CellEngine) NeighborsWithin(s *Structure, site int, radius float64) []Neighbor {
	reach := imageReach(s, radius)
	center := s.SiteCart(site)
	var ret []Neighbor
	for j := 0; j < s.Len(); j++ {
		fj := s.Site(j).Frac
		for a := -reach[0]; a <= reach[0]; a++ {
			for b := -reach[1]; b <= reach[1]; b++ {
				for c := -reach[2]; c <= reach[2]; c++ {
					img := [3]float64{fj[0] + float64(a), fj[1] + float64(b), fj[2] + float64(c)}
					cart := s.FracToCart(img)
					d := norm3(sub3(cart, center))
					if d > 1e-8 && d <= radius {
						ret = append(ret, Neighbor{Index: j, Image: [3]int{a, b, c}, Cart: cart, Dist: d})
					}
				}
			}
		}
	}
	return ret
}

// imageReach returns, per axis, how many periodic images are needed to cover
// the given radius. The perpendicular height along axis k is the cell volume
// divided by the area spanned by the other two lattice vectors.
func imageReach(s *Structure, radius float64) [3]int {
	a0 := s.LatticeVector(0)
	a1 := s.LatticeVector(1)
	a2 := s.LatticeVector(2)
	vol := math.Abs(dot3(a0, cross3(a1, a2)))
	areas := [3]float64{norm3(cross3(a1, a2)), norm3(cross3(a2, a0)), norm3(cross3(a0, a1))}
	var reach [3]int
	for k := 0; k < 3; k++ {
		h := vol / areas[k]
		reach[k] = int(math.Ceil(radius / h))
		if reach[k] < 1 {
			reach[k] = 1
		}
	}
	return reach
}

// PrimitiveStandard returns the primitive form of s: the smallest cell that
// still generates the same crystal by periodic repetition. It repeatedly
// searches for a fractional translation that maps every site onto an
// equivalent site of the same species and, when one is found, replaces the
// lattice vector with the largest component of that translation, re-expresses
// the sites in the reduced cell and deduplicates them. Sites of the result
// are wrapped into [0,1) and sorted by species, then coordinates.
func (CellEngine) PrimitiveStandard(s *Structure) (*Structure, error) {
	if s == nil {
		return nil, newError(ErrNilStructure, "PrimitiveStandard")
	}
	cur := s.Copy()
	for {
		t, ok := findInternalTranslation(cur)
		if !ok {
			break
		}
		red, err := reduceCell(cur, t)
		if err != nil {
			return nil, errDecorate(err, "PrimitiveStandard")
		}
		cur = red
	}
	return standardize(cur)
}

// findInternalTranslation looks for the shortest nonzero fractional
// translation t such that site_i + t lands on a site of the same species for
// every i. Candidates are the differences between the first site and every
// other site of the same species.
func findInternalTranslation(s *Structure) ([3]float64, bool) {
	if s.Len() < 2 {
		return [3]float64{}, false
	}
	first := s.Site(0)
	var candidates [][3]float64
	for i := 1; i < s.Len(); i++ {
		if s.Site(i).Symbol != first.Symbol {
			continue
		}
		candidates = append(candidates, wrapFrac(sub3(s.Site(i).Frac, first.Frac)))
	}
	//shortest translation first, so we shave off as little volume as
	//possible per reduction step.
	sort.Slice(candidates, func(i, j int) bool {
		return FracDistance(candidates[i], [3]float64{}) < FracDistance(candidates[j], [3]float64{})
	})
	for _, t := range candidates {
		if FracDistance(t, [3]float64{}) < symTol {
			continue
		}
		if translationMapsStructure(s, t) {
			return t, true
		}
	}
	return [3]float64{}, false
}

func translationMapsStructure(s *Structure, t [3]float64) bool {
	for i := 0; i < s.Len(); i++ {
		at := s.Site(i)
		shifted := wrapFrac([3]float64{at.Frac[0] + t[0], at.Frac[1] + t[1], at.Frac[2] + t[2]})
		found := false
		for j := 0; j < s.Len(); j++ {
			other := s.Site(j)
			if other.Symbol == at.Symbol && FracDistance(shifted, wrapFrac(other.Frac)) < symTol {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// reduceCell shrinks the cell of s along the internal translation t: the
// lattice vector with the largest |t| component is replaced by t expressed in
// Cartesian coordinates, and the sites are re-expressed in the new cell and
// deduplicated.
func reduceCell(s *Structure, t [3]float64) (*Structure, error) {
	axis := 0
	for k := 1; k < 3; k++ {
		if math.Abs(t[k]) > math.Abs(t[axis]) {
			axis = k
		}
	}
	tcart := s.FracToCart(t)
	newlat := s.Lattice()
	newlat.Set(axis, 0, tcart[0])
	newlat.Set(axis, 1, tcart[1])
	newlat.Set(axis, 2, tcart[2])
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(newlat); err != nil {
		return nil, newError("reduction produced a singular lattice", "reduceCell")
	}
	var sites []Site
	for i := 0; i < s.Len(); i++ {
		cart := s.SiteCart(i)
		row := mat.NewDense(1, 3, []float64{cart[0], cart[1], cart[2]})
		var res mat.Dense
		res.Mul(row, inv)
		f := wrapFrac([3]float64{res.At(0, 0), res.At(0, 1), res.At(0, 2)})
		dup := false
		for _, v := range sites {
			if v.Symbol == s.Site(i).Symbol && FracDistance(v.Frac, f) < symTol {
				dup = true
				break
			}
		}
		if !dup {
			sites = append(sites, Site{Symbol: s.Site(i).Symbol, Frac: f})
		}
	}
	return NewStructure(newlat, sites)
}

// standardize wraps all sites into [0,1) and orders them by species, then by
// fractional coordinates.
func standardize(s *Structure) (*Structure, error) {
	sites := make([]Site, s.Len())
	for i := 0; i < s.Len(); i++ {
		at := s.Site(i)
		sites[i] = Site{Symbol: at.Symbol, Frac: wrapFrac(at.Frac)}
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Symbol != sites[j].Symbol {
			return sites[i].Symbol < sites[j].Symbol
		}
		for k := 0; k < 3; k++ {
			if sites[i].Frac[k] != sites[j].Frac[k] {
				return sites[i].Frac[k] < sites[j].Frac[k]
			}
		}
		return false
	})
	return NewStructure(s.lattice, sites)
}

/*
 * layers.go, part of golayers.
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

	"gonum.org/v1/gonum/mat"
)

// Site is one atom of a Structure: a species symbol plus a fractional
// coordinate triple. Fractional coordinates are expressed in terms of the
// lattice vectors, so they normally live in [0,1), but values outside that
// range are valid and mean a periodic image.
type Site struct {
	Symbol string
	Frac   [3]float64
}

// Structure is an immutable crystal geometry: a 3x3 lattice matrix (rows are
// the lattice vectors, in Angstroms) plus an ordered sequence of sites.
// The analysis functions only read from it, they never modify it.
type Structure struct {
	lattice *mat.Dense //3x3, rows are lattice vectors
	invlat  *mat.Dense //cached inverse, for Cartesian->fractional
	sites   []Site
}

// NewStructure builds a Structure from a 3x3 lattice matrix and a list of
// sites. The lattice is copied, so the caller keeps ownership of the given
// matrix. It fails if the lattice is not 3x3 or is singular.
func NewStructure(lattice *mat.Dense, sites []Site) (*Structure, error) {
	if lattice == nil {
		return nil, newError("nil lattice given", "NewStructure")
	}
	r, c := lattice.Dims()
	if r != 3 || c != 3 {
		return nil, newError(fmt.Sprintf("lattice must be 3x3, got %dx%d", r, c), "NewStructure")
	}
	lat := mat.DenseCopyOf(lattice)
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(lat); err != nil {
		return nil, newError("singular lattice matrix", "NewStructure")
	}
	s := make([]Site, len(sites))
	copy(s, sites)
	return &Structure{lattice: lat, invlat: inv, sites: s}, nil
}

// Len returns the number of sites in the structure.
func (S *Structure) Len() int {
	return len(S.sites)
}

// Site returns the i-th site. Panics if out of range, as this must be a
// programming error.
func (S *Structure) Site(i int) Site {
	return S.sites[i]
}

// Lattice returns a copy of the 3x3 lattice matrix.
func (S *Structure) Lattice() *mat.Dense {
	return mat.DenseCopyOf(S.lattice)
}

// LatticeVector returns the i-th lattice vector (i.e. the i-th row of the
// lattice matrix).
func (S *Structure) LatticeVector(i int) [3]float64 {
	return [3]float64{S.lattice.At(i, 0), S.lattice.At(i, 1), S.lattice.At(i, 2)}
}

// Species returns the ordered species symbols of all sites.
func (S *Structure) Species() []string {
	ret := make([]string, len(S.sites))
	for i, v := range S.sites {
		ret[i] = v.Symbol
	}
	return ret
}

// Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	sites := make([]Site, len(S.sites))
	copy(sites, S.sites)
	return &Structure{
		lattice: mat.DenseCopyOf(S.lattice),
		invlat:  mat.DenseCopyOf(S.invlat),
		sites:   sites,
	}
}

// VacuumAxis returns the index (0, 1 or 2) of the lattice vector with the
// greatest norm. In a slab geometry this is the stacking direction, as the
// vacuum region makes that vector much longer than the in-plane ones.
func (S *Structure) VacuumAxis() int {
	axis := 0
	best := 0.0
	for i := 0; i < 3; i++ {
		v := S.LatticeVector(i)
		n := norm3(v)
		if n > best {
			best = n
			axis = i
		}
	}
	return axis
}

// Supercell returns a new structure expanded na x nb x nc times along the
// three lattice vectors. All multiplicities must be >= 1.
func (S *Structure) Supercell(na, nb, nc int) (*Structure, error) {
	mult := [3]int{na, nb, nc}
	for _, m := range mult {
		if m < 1 {
			return nil, newError(fmt.Sprintf("supercell multiplicities must be >= 1, got %dx%dx%d", na, nb, nc), "Supercell")
		}
	}
	newlat := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			newlat.Set(i, j, S.lattice.At(i, j)*float64(mult[i]))
		}
	}
	sites := make([]Site, 0, len(S.sites)*na*nb*nc)
	for ia := 0; ia < na; ia++ {
		for ib := 0; ib < nb; ib++ {
			for ic := 0; ic < nc; ic++ {
				for _, at := range S.sites {
					f := [3]float64{
						(at.Frac[0] + float64(ia)) / float64(na),
						(at.Frac[1] + float64(ib)) / float64(nb),
						(at.Frac[2] + float64(ic)) / float64(nc),
					}
					sites = append(sites, Site{Symbol: at.Symbol, Frac: f})
				}
			}
		}
	}
	return NewStructure(newlat, sites)
}

/*
 * symmetry_test.go, part of golayers.
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
	"testing"
)

func TestNeighborsWithinFindsPeriodicImages(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 3), []Site{
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	eng := CellEngine{}
	nbs := eng.NeighborsWithin(s, 0, 3.1)
	fmt.Println("neighbors found:", len(nbs))
	//simple cubic at 3 A: exactly the 6 first-shell images fall under 3.1
	if len(nbs) != 6 {
		Te.Fatalf("got %d neighbors, want 6", len(nbs))
	}
	for _, nb := range nbs {
		if math.Abs(nb.Dist-3.0) > 1e-10 {
			Te.Errorf("first shell distance: got %v, want 3.0", nb.Dist)
		}
		if nb.Index != 0 {
			Te.Errorf("neighbor index: got %d, want 0", nb.Index)
		}
	}
}

func TestPrimitiveStandardReducesDoubledCell(Te *testing.T) {
	//two identical Fe sites stacked at c/2: the cell is a doubled primitive
	//cell along c and must reduce to one site in a c=3 cell.
	s, err := NewStructure(orthoLattice(3, 3, 6), []Site{
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0}},
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	eng := CellEngine{}
	prim, err := eng.PrimitiveStandard(s)
	if err != nil {
		Te.Fatal(err)
	}
	if prim.Len() != 1 {
		Te.Fatalf("primitive cell sites: got %d, want 1", prim.Len())
	}
	c := norm3(prim.LatticeVector(2))
	if math.Abs(c-3.0) > 1e-8 {
		Te.Errorf("primitive c length: got %v, want 3.0", c)
	}
}

func TestPrimitiveStandardKeepsPrimitiveCell(Te *testing.T) {
	//rock-salt-like pair: no internal translation maps Na onto Na, so the
	//cell is already primitive.
	s, err := NewStructure(orthoLattice(4, 4, 4), []Site{
		{Symbol: "Na", Frac: [3]float64{0, 0, 0}},
		{Symbol: "Cl", Frac: [3]float64{0.5, 0.5, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	eng := CellEngine{}
	prim, err := eng.PrimitiveStandard(s)
	if err != nil {
		Te.Fatal(err)
	}
	if prim.Len() != 2 {
		Te.Errorf("already-primitive cell changed size: got %d sites", prim.Len())
	}
	//standardization sorts by species: Cl before Na
	if prim.Site(0).Symbol != "Cl" || prim.Site(1).Symbol != "Na" {
		Te.Errorf("site ordering: %v, %v", prim.Site(0), prim.Site(1))
	}
}

func TestPrimitiveStandardQuadrupledCell(Te *testing.T) {
	//2x2x1 replication of a one-site cell reduces back to one site.
	base, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0.25, 0.25, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	super, err := base.Supercell(2, 2, 1)
	if err != nil {
		Te.Fatal(err)
	}
	eng := CellEngine{}
	prim, err := eng.PrimitiveStandard(super)
	if err != nil {
		Te.Fatal(err)
	}
	if prim.Len() != 1 {
		Te.Errorf("primitive of a 2x2x1 supercell: got %d sites, want 1", prim.Len())
	}
}

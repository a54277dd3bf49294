/*
 * geometric_test.go, part of golayers.
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

	"gonum.org/v1/gonum/mat"
)

func orthoLattice(a, b, c float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{a, 0, 0, 0, b, 0, 0, 0, c})
}

func TestFracCartRoundtrip(Te *testing.T) {
	lat := mat.NewDense(3, 3, []float64{3, 0, 0, 0.5, 3, 0, 0, 0, 20})
	s, err := NewStructure(lat, []Site{{Symbol: "Fe", Frac: [3]float64{0.1, 0.2, 0.3}}})
	if err != nil {
		Te.Fatal(err)
	}
	cart := s.SiteCart(0)
	back := s.CartToFrac(cart)
	fmt.Println("cart:", cart, "frac back:", back)
	for i := 0; i < 3; i++ {
		if math.Abs(back[i]-s.Site(0).Frac[i]) > 1e-12 {
			Te.Errorf("roundtrip mismatch on axis %d: %v", i, back)
		}
	}
}

func TestFracDistanceWrapsAtBoundaries(Te *testing.T) {
	a := [3]float64{0.98, 0.02, 0.50}
	b := [3]float64{0.01, 0.98, 0.50}
	want := math.Sqrt(0.03*0.03 + 0.04*0.04)
	got := FracDistance(a, b)
	fmt.Println("periodic fractional distance:", got)
	if math.Abs(got-want) > 1e-10 {
		Te.Errorf("got %v, want %v", got, want)
	}
	//symmetry
	if got2 := FracDistance(b, a); math.Abs(got-got2) > 1e-15 {
		Te.Errorf("FracDistance not symmetric: %v vs %v", got, got2)
	}
}

func TestMinImageDistance(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 3), []Site{
		{Symbol: "Fe", Frac: [3]float64{0.05, 0.5, 0.5}},
		{Symbol: "Fe", Frac: [3]float64{0.95, 0.5, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	//straight distance would be 2.7; the periodic image is only 0.3 away
	d := s.Distance(0, 1)
	if math.Abs(d-0.3) > 1e-10 {
		Te.Errorf("min image distance: got %v, want 0.3", d)
	}
}

func TestVacuumAxis(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{{Symbol: "Fe", Frac: [3]float64{0, 0, 0.5}}})
	if err != nil {
		Te.Fatal(err)
	}
	if axis := s.VacuumAxis(); axis != 2 {
		Te.Errorf("vacuum axis: got %d, want 2", axis)
	}
}

func TestSupercell(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0.25, 0.25, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	super, err := s.Supercell(3, 3, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if super.Len() != 9 {
		Te.Errorf("supercell site count: got %d, want 9", super.Len())
	}
	v := super.LatticeVector(0)
	if math.Abs(norm3(v)-9) > 1e-12 {
		Te.Errorf("supercell a vector: got %v", v)
	}
	if v2 := super.LatticeVector(2); math.Abs(norm3(v2)-20) > 1e-12 {
		Te.Errorf("vacuum axis should not be expanded: got %v", v2)
	}
	if _, err := s.Supercell(0, 3, 1); err == nil {
		Te.Error("expected an error for multiplicity 0")
	}
}

func TestNewStructureRejectsBadLattice(Te *testing.T) {
	singular := mat.NewDense(3, 3, []float64{1, 0, 0, 2, 0, 0, 0, 0, 1})
	if _, err := NewStructure(singular, nil); err == nil {
		Te.Error("expected an error for a singular lattice")
	}
	if _, err := NewStructure(mat.NewDense(2, 3, nil), nil); err == nil {
		Te.Error("expected an error for a non-3x3 lattice")
	}
}

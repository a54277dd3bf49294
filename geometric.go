/*
 * geometric.go, part of golayers.
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

	"gonum.org/v1/gonum/mat"
)

//Small vector helpers. Everything here works on [3]float64 triples; the
//lattice algebra proper goes through gonum.

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// FracToCart converts a fractional coordinate to Cartesian (Angstroms), by
// multiplying the row vector by the lattice matrix.
func (S *Structure) FracToCart(f [3]float64) [3]float64 {
	return fracToCart(f, S.lattice)
}

func fracToCart(f [3]float64, lattice *mat.Dense) [3]float64 {
	row := mat.NewDense(1, 3, []float64{f[0], f[1], f[2]})
	var res mat.Dense
	res.Mul(row, lattice)
	return [3]float64{res.At(0, 0), res.At(0, 1), res.At(0, 2)}
}

// CartToFrac converts a Cartesian coordinate (Angstroms) to fractional, using
// the cached inverse of the lattice matrix.
func (S *Structure) CartToFrac(c [3]float64) [3]float64 {
	row := mat.NewDense(1, 3, []float64{c[0], c[1], c[2]})
	var res mat.Dense
	res.Mul(row, S.invlat)
	return [3]float64{res.At(0, 0), res.At(0, 1), res.At(0, 2)}
}

// SiteCart returns the Cartesian coordinates of the i-th site.
func (S *Structure) SiteCart(i int) [3]float64 {
	return S.FracToCart(S.sites[i].Frac)
}

// CartCoords returns the Cartesian coordinates of every site, in order.
func (S *Structure) CartCoords() [][3]float64 {
	ret := make([][3]float64, len(S.sites))
	for i := range S.sites {
		ret[i] = S.SiteCart(i)
	}
	return ret
}

// FracDistance returns the periodic distance between two fractional
// coordinates: each component difference is wrapped into [0, 0.5]
// (min(|d|, 1-|d|)) and the Euclidean norm of the wrapped triple is returned.
// Note that this is a distance in fractional space, not in Angstroms.
func FracDistance(a, b [3]float64) float64 {
	var acc float64
	for i := 0; i < 3; i++ {
		d := math.Abs(a[i] - b[i])
		d = d - math.Floor(d) //also handles coordinates more than one cell apart
		if d > 0.5 {
			d = 1 - d
		}
		acc += d * d
	}
	return math.Sqrt(acc)
}

// Distance returns the minimum-image Cartesian distance (Angstroms) between
// sites i and j, considering the periodic images in the -1..1 range on each
// axis. That range is exact for cells that are not heavily skewed, which
// covers the orthogonal slab cells this library deals with.
func (S *Structure) Distance(i, j int) float64 {
	ci := S.SiteCart(i)
	fj := S.sites[j].Frac
	best := math.Inf(1)
	for a := -1; a <= 1; a++ {
		for b := -1; b <= 1; b++ {
			for c := -1; c <= 1; c++ {
				img := [3]float64{fj[0] + float64(a), fj[1] + float64(b), fj[2] + float64(c)}
				d := norm3(sub3(S.FracToCart(img), ci))
				if d < best {
					best = d
				}
			}
		}
	}
	return best
}

// wrapFrac brings a fractional coordinate into [0,1) on every axis.
func wrapFrac(f [3]float64) [3]float64 {
	for i := 0; i < 3; i++ {
		f[i] = f[i] - math.Floor(f[i])
		if f[i] >= 1 { //can happen for tiny negatives, e.g. -1e-17
			f[i] = 0
		}
	}
	return f
}

// roundTo returns v rounded to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func roundTo3(v [3]float64, decimals int) [3]float64 {
	return [3]float64{roundTo(v[0], decimals), roundTo(v[1], decimals), roundTo(v[2], decimals)}
}

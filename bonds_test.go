/*
 * bonds_test.go, part of golayers.
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
	"testing"
)

func TestCountLayersDetectsVacuumGaps(Te *testing.T) {
	//z coordinates 2, 4 and 14 Angstroms: gaps of 2 and 10, both above the
	//1.5 threshold, so 3 layers.
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0.10}},
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0.20}},
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0.70}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	n, err := CountLayers(s, 2, 1.5)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 3 {
		Te.Errorf("layer count: got %d, want 3", n)
	}
}

func TestCountLayersSingleSite(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0, 0, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	n, err := CountLayers(s, 2, 1.5)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 {
		Te.Errorf("single site should be 1 layer, got %d", n)
	}
}

func TestCountLayersRejectsEmptyStructure(Te *testing.T) {
	s, err := NewStructure(orthoLattice(3, 3, 20), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := CountLayers(s, 2, 1.5); err == nil {
		Te.Error("expected an error for an empty structure")
	}
}

func TestBucketMergesCloseLengths(Te *testing.T) {
	var b bondBucket
	b = b.add(2.000)
	b = b.add(2.006) //within the 0.008 tolerance of the representative
	if len(b) != 1 {
		Te.Fatalf("lengths within tolerance should share a bucket, got %d buckets", len(b))
	}
	if b[0].length != 2.000 || b[0].count != 2 {
		Te.Errorf("bucket: got %+v, want length 2.000 count 2", b[0])
	}
	b = b.add(2.1) //outside the tolerance
	if len(b) != 2 {
		Te.Errorf("length outside tolerance should open a new bucket, got %d buckets", len(b))
	}
}

func TestBucketRepresentativeIsFirstSeen(Te *testing.T) {
	//first-seen clustering: the representative does not drift towards later
	//lengths, and a length can merge with the first bucket even if a later
	//one is closer.
	var b bondBucket
	b = b.add(2.0004) //rounded to 2.000 as representative
	b = b.add(2.007)
	if len(b) != 1 || b[0].length != 2.000 {
		Te.Errorf("representative should stay at 2.000: %+v", b)
	}
}

func TestAnalyzeStructureInterlayerPair(Te *testing.T) {
	//two sites separated only along the vacuum axis: at least one interlayer
	//bond and no in-plane bonds.
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0.25, 0.25, 0.50}},
		{Symbol: "Fe", Frac: [3]float64{0.25, 0.25, 0.60}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	res, err := AnalyzeStructure(s, 3.0, nil)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("unit cell interlayer bonds:", res.UnitCellInterlayer)
	if res.NumLayers != 2 {
		Te.Errorf("layer count: got %d, want 2", res.NumLayers)
	}
	if len(res.UnitCellInterlayer) < 1 {
		Te.Error("expected at least one interlayer bond")
	}
	if len(res.UnitCellInPlane) != 0 {
		Te.Errorf("expected no in-plane bonds, got %v", res.UnitCellInPlane)
	}
	for _, v := range res.UnitCellInterlayer {
		if v.BondType != Interlayer {
			Te.Errorf("wrong bond type: %v", v)
		}
	}
}

func TestAnalyzeStructureInPlaneChain(Te *testing.T) {
	//atoms 3.0 A apart along a, in a 3 A cell: each sees its own periodic
	//images in plane. The in-plane bucket must register that, the
	//interlayer one must stay empty.
	s, err := NewStructure(orthoLattice(3, 3, 20), []Site{
		{Symbol: "Fe", Frac: [3]float64{0.0, 0.5, 0.5}},
	})
	if err != nil {
		Te.Fatal(err)
	}
	res, err := AnalyzeStructure(s, 3.0, nil)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("in-plane:", res.UnitCellInPlane, "interlayer:", res.UnitCellInterlayer)
	if len(res.UnitCellInterlayer) != 0 {
		Te.Errorf("expected no interlayer bonds, got %v", res.UnitCellInterlayer)
	}
	if len(res.SupercellInPlane) == 0 {
		Te.Error("the 3x3x1 supercell should reveal in-plane bonds")
	}
	for _, v := range res.SupercellInPlane {
		if v.Length > 3.0+1e-9 {
			Te.Errorf("bond longer than the cutoff: %v", v)
		}
	}
}

func TestBucketsAreSortedAscending(Te *testing.T) {
	var b bondBucket
	for _, l := range []float64{2.9, 2.0, 2.5, 2.0} {
		b = b.add(l)
	}
	sums := b.summaries(InPlane)
	for i := 1; i < len(sums); i++ {
		if sums[i].Length < sums[i-1].Length {
			Te.Errorf("summaries not sorted: %v", sums)
		}
	}
	if sums[0].Length != 2.0 || sums[0].Count != 2 {
		Te.Errorf("first bucket: got %+v", sums[0])
	}
}

func TestAnalyzeStructureValidatesInput(Te *testing.T) {
	if _, err := AnalyzeStructure(nil, 3.0, nil); err == nil {
		Te.Error("expected an error for a nil structure")
	}
	empty, _ := NewStructure(orthoLattice(3, 3, 20), nil)
	if _, err := AnalyzeStructure(empty, 3.0, nil); err == nil {
		Te.Error("expected an error for an empty structure")
	}
}

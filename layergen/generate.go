/*
 * generate.go, part of golayers.
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

package layergen

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	layers "github.com/rmera/golayers"
)

// DefaultVacuumSpace is the vacuum added along the stacking axis, Angstroms.
const DefaultVacuumSpace = 25.0

// structureSpacegroups maps the supported prototype structure types to the
// spacegroup number used to query for a bulk reference structure.
var structureSpacegroups = map[string]int{"BCC": 229, "HCP": 194}

// potcarSuffixes is the priority order of the pseudopotential variants
// looked up under the POTCAR root.
var potcarSuffixes = []string{"_pv", "_sv", "", "_s"}

// Request describes one layer-generation run: which element, which prototype
// structure, and which layer counts to build. Duplicate layer counts are
// generated once.
type Request struct {
	Element            string
	StructureType      string //"BCC" or "HCP", case-insensitive
	LayerCounts        []int
	VacuumSpace        float64 //0 means DefaultVacuumSpace
	SubmitJobs         bool
	MaterialID         string   //pin the prototype to a specific material id, skipping the element/spacegroup search
	RequireStable      bool     //restrict the search to thermodynamically stable entries
	MaxEnergyAboveHull *float64 //eV/atom upper bound for the search; nil means no bound
}

// SourceQuery is what the generator asks its structure source for: a bulk
// prototype of the element in the given spacegroup, optionally pinned or
// filtered.
type SourceQuery struct {
	Element            string
	Spacegroup         int
	MaterialID         string
	RequireStable      bool
	MaxEnergyAboveHull *float64
}

// PrototypeFunc fetches the bulk prototype structure a slab is derived from.
// The matproj package provides one backed by the Materials Project API; tests
// can supply a canned structure.
type PrototypeFunc func(SourceQuery) (*layers.Structure, error)

// Generator creates the per-layer directory trees with all VASP inputs, and
// optionally submits the relaxation jobs.
type Generator struct {
	Settings  *Settings
	BaseDir   string        //where the layer directories are created; empty means the working directory
	Prototype PrototypeFunc //must be set
	Log       *log.Logger   //nil means silent
}

func (g *Generator) logf(format string, args ...interface{}) {
	if g.Log != nil {
		g.Log.Printf(format, args...)
	}
}

// Run validates the request, builds every requested layer directory
// (<count>/relax and <count>/scf, each with POTCAR, INCAR, POSCAR and
// job.pbs) and returns the created layer root paths, in ascending layer
// count order. Validation failures happen before any directory is touched.
func (g *Generator) Run(req Request) ([]string, error) {
	stype, err := normalizeStructureType(req.StructureType)
	if err != nil {
		return nil, err
	}
	if req.Element == "" {
		return nil, fmt.Errorf("no element given")
	}
	if len(req.LayerCounts) == 0 {
		return nil, fmt.Errorf("no layer counts given")
	}
	for _, n := range req.LayerCounts {
		if n < 1 {
			return nil, fmt.Errorf("layer count must be positive, got %d", n)
		}
	}
	if req.MaxEnergyAboveHull != nil && *req.MaxEnergyAboveHull < 0 {
		return nil, fmt.Errorf("max energy above hull must be >= 0, got %g", *req.MaxEnergyAboveHull)
	}
	if g.Prototype == nil {
		return nil, fmt.Errorf("no structure source configured")
	}
	vacuum := req.VacuumSpace
	if vacuum == 0 {
		vacuum = DefaultVacuumSpace
	}

	prototype, err := g.Prototype(SourceQuery{
		Element:            req.Element,
		Spacegroup:         structureSpacegroups[stype],
		MaterialID:         req.MaterialID,
		RequireStable:      req.RequireStable,
		MaxEnergyAboveHull: req.MaxEnergyAboveHull,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching prototype structure: %w", err)
	}

	potcar, err := BuildPOTCAR([]string{req.Element}, g.Settings.Tools.POTCARRoot)
	if err != nil {
		return nil, err
	}

	counts := append([]int(nil), req.LayerCounts...)
	sort.Ints(counts)
	var created []string
	seen := make(map[int]bool)
	for _, n := range counts {
		if seen[n] {
			g.logf("skipping duplicate layer count %d", n)
			continue
		}
		seen[n] = true
		root, err := g.prepareLayer(req.Element, stype, n, vacuum, prototype, potcar, req.SubmitJobs)
		if err != nil {
			return created, err
		}
		created = append(created, root)
	}
	return created, nil
}

func (g *Generator) prepareLayer(element, stype string, layerCount int, vacuum float64, prototype *layers.Structure, potcar string, submit bool) (string, error) {
	base := g.BaseDir
	if base == "" {
		base = "."
	}
	root := filepath.Join(base, strconv.Itoa(layerCount))
	relaxDir := filepath.Join(root, "relax")
	scfDir := filepath.Join(root, "scf")
	for _, dir := range []string{relaxDir, scfDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	g.logf("prepared directories %s and %s", relaxDir, scfDir)

	for _, dir := range []string{relaxDir, scfDir} {
		if err := os.WriteFile(filepath.Join(dir, "POTCAR"), []byte(potcar), 0644); err != nil {
			return "", fmt.Errorf("writing POTCAR: %w", err)
		}
	}
	relaxINCAR, err := readTemplate(g.Settings.Templates.RelaxINCAR)
	if err != nil {
		return "", err
	}
	scfINCAR, err := readTemplate(g.Settings.Templates.SCFINCAR)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(relaxDir, "INCAR"), []byte(relaxINCAR), 0644); err != nil {
		return "", fmt.Errorf("writing INCAR: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scfDir, "INCAR"), []byte(scfINCAR), 0644); err != nil {
		return "", fmt.Errorf("writing INCAR: %w", err)
	}

	slab, err := BuildSlab(prototype, element, stype, layerCount, vacuum)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("%s %s %d layers", element, stype, layerCount)
	if err := layers.POSCARWrite(filepath.Join(relaxDir, "POSCAR"), slab, title); err != nil {
		return "", err
	}

	job := JobParams{Name: fmt.Sprintf("%s_%s_%d", element, stype, layerCount)}
	relaxJob := filepath.Join(relaxDir, "job.pbs")
	if err := WriteJobScript(g.Settings, job, relaxJob); err != nil {
		return "", err
	}
	if err := WriteJobScript(g.Settings, job, filepath.Join(scfDir, "job.pbs")); err != nil {
		return "", err
	}
	if submit {
		g.logf("submitting %s", relaxJob)
		if err := Submit(g.Settings, relaxJob); err != nil {
			return "", err
		}
	}
	return root, nil
}

func normalizeStructureType(stype string) (string, error) {
	upper := strings.ToUpper(stype)
	if _, ok := structureSpacegroups[upper]; !ok {
		return "", fmt.Errorf("unsupported structure type: %s", stype)
	}
	return upper, nil
}

// BuildPOTCAR concatenates the POTCAR entries of the given elements, looked
// up under root. For each element the variant directories are tried in
// order: <element>_pv, <element>_sv, <element>, <element>_s.
func BuildPOTCAR(elements []string, root string) (string, error) {
	var content []byte
	for _, element := range elements {
		path, err := locatePOTCAR(element, root)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		content = append(content, data...)
	}
	return string(content), nil
}

func locatePOTCAR(element, root string) (string, error) {
	for _, suffix := range potcarSuffixes {
		candidate := filepath.Join(root, element+suffix, "POTCAR")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("POTCAR not found for element %s in %s", element, root)
}

// BuildSlab turns a bulk prototype into an n-layer slab: an orthogonal cell
// keeping the in-plane lattice lengths of the prototype, with the stacking
// axis long enough for the layers plus the vacuum. The interlayer spacing is
// the average pairwise periodic distance of the prototype's atoms (1 Angstrom
// for single-atom prototypes), and the in-plane positions alternate with the
// layer parity as the prototype structure type dictates: (1/4,3/4)/(3/4,1/4)
// for BCC, (0,0)/(2/3,1/3) for HCP.
func BuildSlab(prototype *layers.Structure, element, structureType string, layerCount int, vacuum float64) (*layers.Structure, error) {
	if prototype == nil || prototype.Len() == 0 {
		return nil, fmt.Errorf("empty prototype structure")
	}
	if layerCount < 1 {
		return nil, fmt.Errorf("layer count must be positive, got %d", layerCount)
	}
	stype, err := normalizeStructureType(structureType)
	if err != nil {
		return nil, err
	}
	spacing := averageBondDistance(prototype)

	a := vectorNorm(prototype.LatticeVector(0))
	b := vectorNorm(prototype.LatticeVector(1))
	c := vectorNorm(prototype.LatticeVector(2))
	var newC float64
	if layerCount == 1 {
		newC = c + vacuum
	} else {
		newC = spacing*float64(layerCount-1) + vacuum
	}
	lattice := mat.NewDense(3, 3, []float64{a, 0, 0, 0, b, 0, 0, 0, newC})

	sites := make([]layers.Site, layerCount)
	for i := 0; i < layerCount; i++ {
		z := (spacing*float64(i) + vacuum/2) / newC
		var ab [2]float64
		if stype == "BCC" {
			ab = [2]float64{0.25, 0.75}
			if i%2 != 0 {
				ab = [2]float64{0.75, 0.25}
			}
		} else { //HCP
			ab = [2]float64{0, 0}
			if i%2 != 0 {
				ab = [2]float64{2.0 / 3.0, 1.0 / 3.0}
			}
		}
		sites[i] = layers.Site{Symbol: element, Frac: [3]float64{ab[0], ab[1], z}}
	}
	return layers.NewStructure(lattice, sites)
}

// averageBondDistance is the mean periodic (minimum-image) distance over all
// site pairs of the structure, or 1.0 when there are fewer than two sites.
func averageBondDistance(s *layers.Structure) float64 {
	n := s.Len()
	if n < 2 {
		return 1.0
	}
	sum := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += s.Distance(i, j)
			pairs++
		}
	}
	return sum / float64(pairs)
}

func vectorNorm(v [3]float64) float64 {
	return mat.Norm(mat.NewVecDense(3, []float64{v[0], v[1], v[2]}), 2)
}

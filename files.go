/*
 * files.go, part of golayers.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gonum.org/v1/gonum/mat"
)

//Readers and writers for the VASP text formats this toolkit consumes:
//POSCAR/CONTCAR structure files and ELFCAR volumetric files. Files ending in
//".gz" are decompressed on the fly.

// openMaybeGzip opens a file, transparently decompressing it when the name
// ends in ".gz". The returned closer closes both the decompressor and the
// underlying file.
func openMaybeGzip(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".gz") {
		return f, nil
	}
	g, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{g: g, f: f}, nil
}

type gzipFile struct {
	g *gzip.Reader
	f *os.File
}

func (z *gzipFile) Read(p []byte) (int, error) { return z.g.Read(p) }

func (z *gzipFile) Close() error {
	err := z.g.Close()
	if err2 := z.f.Close(); err == nil {
		err = err2
	}
	return err
}

// poscarHeader is the structure header shared by POSCAR and ELFCAR files:
// title, scale factor, lattice, species, counts, the optional "Selective
// dynamics" marker, the coordinate mode line and one coordinate line per atom.
type poscarHeader struct {
	lattice   *mat.Dense
	sites     []Site
	linesRead int //header lines consumed, so ELFCARRead knows where the grid starts
}

func readPoscarHeader(lines []string, name string) (*poscarHeader, error) {
	if len(lines) < 8 {
		return nil, fmt.Errorf("ill formatted POSCAR-style file %s: only %d lines", name, len(lines))
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("ill formatted scale line in %s: %v", name, err)
	}
	latdata := make([]float64, 0, 9)
	for i := 2; i <= 4; i++ {
		fields := strings.Fields(lines[i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("ill formatted lattice line %d in %s", i+1, name)
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("ill formatted lattice line %d in %s: %v", i+1, name, err)
			}
			latdata = append(latdata, v)
		}
	}
	lattice := mat.NewDense(3, 3, latdata)
	if scale < 0 {
		//negative scale means the desired cell volume
		vol := math.Abs(mat.Det(lattice))
		scale = math.Cbrt(-scale / vol)
	}
	if scale != 1.0 {
		lattice.Scale(scale, lattice)
	}
	//VASP 5 format: species symbols, then the per-species counts.
	symbols := strings.Fields(lines[5])
	counts := strings.Fields(lines[6])
	if len(symbols) == 0 || len(symbols) != len(counts) {
		return nil, fmt.Errorf("%s: species and count lines don't match (need VASP >= 5 format)", name)
	}
	if _, err := strconv.Atoi(symbols[0]); err == nil {
		return nil, fmt.Errorf("%s lacks species symbols (VASP 4 format not supported)", name)
	}
	var species []string
	natoms := 0
	for i, sym := range symbols {
		n, err := strconv.Atoi(counts[i])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("ill formatted species count %q in %s", counts[i], name)
		}
		natoms += n
		for j := 0; j < n; j++ {
			species = append(species, sym)
		}
	}
	cursor := 7
	if len(lines) <= cursor {
		return nil, fmt.Errorf("%s truncated before coordinate mode line", name)
	}
	if mode := strings.TrimSpace(lines[cursor]); mode != "" && (mode[0] == 's' || mode[0] == 'S') {
		cursor++ //Selective dynamics, the flags per atom are ignored
	}
	if len(lines) <= cursor {
		return nil, fmt.Errorf("%s truncated before coordinate mode line", name)
	}
	mode := strings.TrimSpace(lines[cursor])
	if mode == "" {
		return nil, fmt.Errorf("%s: empty coordinate mode line", name)
	}
	cartesian := mode[0] == 'c' || mode[0] == 'C' || mode[0] == 'k' || mode[0] == 'K'
	cursor++
	if len(lines) < cursor+natoms {
		return nil, fmt.Errorf("%s truncated: %d atoms declared, %d coordinate lines", name, natoms, len(lines)-cursor)
	}
	var inv *mat.Dense
	if cartesian {
		inv = mat.NewDense(3, 3, nil)
		if err := inv.Inverse(lattice); err != nil {
			return nil, fmt.Errorf("%s: singular lattice", name)
		}
	}
	sites := make([]Site, natoms)
	for i := 0; i < natoms; i++ {
		fields := strings.Fields(lines[cursor+i])
		if len(fields) < 3 {
			return nil, fmt.Errorf("ill formatted coordinate line %d in %s", cursor+i+1, name)
		}
		var v [3]float64
		for j := 0; j < 3; j++ {
			v[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("ill formatted coordinate line %d in %s: %v", cursor+i+1, name, err)
			}
		}
		if cartesian {
			row := mat.NewDense(1, 3, []float64{v[0] * scale, v[1] * scale, v[2] * scale})
			var res mat.Dense
			res.Mul(row, inv)
			v = [3]float64{res.At(0, 0), res.At(0, 1), res.At(0, 2)}
		}
		sites[i] = Site{Symbol: species[i], Frac: v}
	}
	return &poscarHeader{lattice: lattice, sites: sites, linesRead: cursor + natoms}, nil
}

func readAllLines(name string) ([]string, error) {
	r, err := openMaybeGzip(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// POSCARRead reads a VASP POSCAR/CONTCAR file (VASP 5 format, i.e. with a
// species-symbols line) and returns the structure it describes.
func POSCARRead(name string) (*Structure, error) {
	lines, err := readAllLines(name)
	if err != nil {
		return nil, errDecorate(err, "POSCARRead")
	}
	h, err := readPoscarHeader(lines, name)
	if err != nil {
		return nil, errDecorate(err, "POSCARRead")
	}
	s, err := NewStructure(h.lattice, h.sites)
	if err != nil {
		return nil, errDecorate(err, "POSCARRead")
	}
	return s, nil
}

// POSCARWrite writes the structure as a VASP 5 POSCAR file with direct
// (fractional) coordinates. Sites are written in their current order, with
// consecutive runs of the same species grouped in the header counts.
func POSCARWrite(name string, s *Structure, title string) error {
	if s == nil {
		return newError(ErrNilStructure, "POSCARWrite")
	}
	out, err := os.Create(name)
	if err != nil {
		return errDecorate(err, "POSCARWrite")
	}
	defer out.Close()
	if title == "" {
		title = strings.Join(collapseRuns(s.Species()), " ")
	}
	fmt.Fprintf(out, "%s\n", title)
	fmt.Fprintf(out, "1.0\n")
	for i := 0; i < 3; i++ {
		v := s.LatticeVector(i)
		fmt.Fprintf(out, " %20.14f %20.14f %20.14f\n", v[0], v[1], v[2])
	}
	symbols := collapseRuns(s.Species())
	fmt.Fprintf(out, "%s\n", strings.Join(symbols, " "))
	counts := make([]string, len(symbols))
	ci := 0
	run := 0
	for i, sp := range s.Species() {
		run++
		if i == s.Len()-1 || s.Species()[i+1] != sp {
			counts[ci] = strconv.Itoa(run)
			ci++
			run = 0
		}
	}
	fmt.Fprintf(out, "%s\n", strings.Join(counts, " "))
	fmt.Fprintf(out, "Direct\n")
	for i := 0; i < s.Len(); i++ {
		f := s.Site(i).Frac
		if _, err := fmt.Fprintf(out, " %18.14f %18.14f %18.14f\n", f[0], f[1], f[2]); err != nil {
			return errDecorate(err, "POSCARWrite")
		}
	}
	return nil
}

// collapseRuns returns the species symbols with consecutive repetitions
// merged, e.g. [Fe Fe O O Fe] -> [Fe O Fe].
func collapseRuns(species []string) []string {
	var ret []string
	for i, sp := range species {
		if i == 0 || species[i-1] != sp {
			ret = append(ret, sp)
		}
	}
	return ret
}

// ELFCARRead reads a VASP ELFCAR volumetric file: the POSCAR-style structure
// header followed by the grid dimensions and the grid values (first axis
// fastest, as VASP writes them). It returns the ELF grid, the lattice matrix
// and the Cartesian positions of the atoms.
func ELFCARRead(name string) (*ScalarGrid, *mat.Dense, [][3]float64, error) {
	lines, err := readAllLines(name)
	if err != nil {
		return nil, nil, nil, errDecorate(err, "ELFCARRead")
	}
	h, err := readPoscarHeader(lines, name)
	if err != nil {
		return nil, nil, nil, errDecorate(err, "ELFCARRead")
	}
	cursor := h.linesRead
	//one or more blank lines separate the header from the grid dimensions
	for cursor < len(lines) && strings.TrimSpace(lines[cursor]) == "" {
		cursor++
	}
	if cursor >= len(lines) {
		return nil, nil, nil, newError(fmt.Sprintf("%s has no grid section", name), "ELFCARRead")
	}
	dimfields := strings.Fields(lines[cursor])
	if len(dimfields) != 3 {
		return nil, nil, nil, newError(fmt.Sprintf("ill formatted grid dimensions in %s", name), "ELFCARRead")
	}
	var dims [3]int
	for i := 0; i < 3; i++ {
		dims[i], err = strconv.Atoi(dimfields[i])
		if err != nil {
			return nil, nil, nil, newError(fmt.Sprintf("ill formatted grid dimensions in %s: %v", name, err), "ELFCARRead")
		}
	}
	grid, err := NewScalarGrid(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, nil, nil, errDecorate(err, "ELFCARRead")
	}
	cursor++
	read := 0
	total := grid.Len()
	nx, ny, _ := grid.Dims()
	for ; cursor < len(lines) && read < total; cursor++ {
		for _, field := range strings.Fields(lines[cursor]) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, newError(fmt.Sprintf("ill formatted grid value %q in %s", field, name), "ELFCARRead")
			}
			//VASP order: x varies fastest, z slowest
			ix := read % nx
			iy := (read / nx) % ny
			iz := read / (nx * ny)
			grid.Set(ix, iy, iz, v)
			read++
			if read == total {
				break
			}
		}
	}
	if read < total {
		return nil, nil, nil, newError(fmt.Sprintf("%s truncated: %d of %d grid values", name, read, total), "ELFCARRead")
	}
	atoms := make([][3]float64, len(h.sites))
	for i, at := range h.sites {
		atoms[i] = fracToCart(at.Frac, h.lattice)
	}
	return grid, mat.DenseCopyOf(h.lattice), atoms, nil
}

/*
 * main.go, part of golayers.
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

//The golayers command generates VASP inputs for layered slab structures and
//analyzes the bond lengths and ELF grids of finished calculations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	layers "github.com/rmera/golayers"
	"github.com/rmera/golayers/layergen"
	"github.com/rmera/golayers/layerplot"
	"github.com/rmera/golayers/matproj"
)

const usage = `usage: golayers <command> [flags]

commands:
  generate-layers   generate VASP inputs for layered slab structures
  analyze-bonds     analyze bond lengths in POSCAR files
  analyze-elf       analyze ELFCAR files

run golayers <command> -h for the flags of each command.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "generate-layers":
		err = generateLayers(os.Args[2:])
	case "analyze-bonds":
		err = analyzeBonds(os.Args[2:])
	case "analyze-elf":
		err = analyzeELF(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "golayers:", err)
		os.Exit(1)
	}
}

func generateLayers(args []string) error {
	fs := flag.NewFlagSet("generate-layers", flag.ExitOnError)
	config := fs.String("config", "", "configuration file (default: GOLAYERS_CONFIG, then config.json in the working directory)")
	element := fs.String("element", "", "chemical symbol, e.g. Fe")
	structure := fs.String("structure", "", "crystal structure type: bcc or hcp")
	layerList := fs.String("layers", "", "comma-separated layer counts, e.g. 2,4,6")
	vacuum := fs.Float64("vacuum", layergen.DefaultVacuumSpace, "vacuum spacing added along the stacking axis (Angstroms)")
	output := fs.String("output", ".", "directory to create the layer folders in")
	noSubmit := fs.Bool("no-submit", false, "generate inputs without submitting jobs")
	materialID := fs.String("material-id", "", "pin the prototype to a specific Materials Project id")
	stable := fs.Bool("stable", false, "restrict the prototype search to stable entries")
	maxHull := fs.Float64("max-ehull", -1, "maximum energy above hull for the prototype search (eV/atom, negative means no bound)")
	verbose := fs.Bool("v", false, "print progress diagnostics")
	fs.Parse(args)

	counts, err := parseLayerCounts(*layerList)
	if err != nil {
		return err
	}
	set, err := layergen.LoadSettings(*config)
	if err != nil {
		return err
	}
	client := matproj.NewClient(set.APIKey)
	gen := &layergen.Generator{
		Settings: set,
		BaseDir:  *output,
		Prototype: func(q layergen.SourceQuery) (*layers.Structure, error) {
			s, doc, err := client.Prototype(matproj.Query{
				MaterialID:         q.MaterialID,
				Element:            q.Element,
				Spacegroup:         q.Spacegroup,
				StableOnly:         q.RequireStable,
				MaxEnergyAboveHull: q.MaxEnergyAboveHull,
			})
			if err != nil {
				return nil, err
			}
			if doc.Symmetry != nil && doc.Symmetry.Number != q.Spacegroup {
				fmt.Fprintf(os.Stderr, "warning: selected material %s has spacegroup %d, expected %d\n",
					doc.MaterialID, doc.Symmetry.Number, q.Spacegroup)
			}
			fmt.Printf("Selected MP prototype %s (stable=%v)\n", doc.MaterialID, doc.IsStable)
			return s, nil
		},
	}
	if *verbose {
		gen.Log = log.New(os.Stderr, "golayers: ", 0)
	}
	req := layergen.Request{
		Element:       *element,
		StructureType: *structure,
		LayerCounts:   counts,
		VacuumSpace:   *vacuum,
		SubmitJobs:    !*noSubmit,
		MaterialID:    *materialID,
		RequireStable: *stable,
	}
	if *maxHull >= 0 {
		req.MaxEnergyAboveHull = maxHull
	}
	created, err := gen.Run(req)
	for _, path := range created {
		fmt.Println("Created layer directory:", path)
	}
	return err
}

func parseLayerCounts(list string) ([]int, error) {
	if list == "" {
		return nil, fmt.Errorf("no layer counts given (use -layers 2,4,6)")
	}
	var counts []int
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("bad layer count %q: %v", field, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func analyzeBonds(args []string) error {
	fs := flag.NewFlagSet("analyze-bonds", flag.ExitOnError)
	input := fs.String("input", "", "POSCAR file, or directory of POSCAR-like files")
	pattern := fs.String("pattern", "*.vasp", "glob pattern for files when -input is a directory")
	maxDistance := fs.Float64("max-distance", layers.DefaultMaxBondDistance, "maximum bond length to consider (Angstroms)")
	output := fs.String("output", "results.dat", "output file for the analysis report")
	plotDir := fs.String("plot-dir", "", "also write a bond-length plot per file into this directory")
	fs.Parse(args)

	if *input == "" {
		return fmt.Errorf("no input given")
	}
	var files []string
	if info, err := os.Stat(*input); err != nil {
		return err
	} else if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(*input, *pattern))
		if err != nil {
			return err
		}
		sort.Strings(files)
	} else {
		files = []string{*input}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched for bond analysis")
	}
	out, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer out.Close()
	for _, file := range files {
		result, err := layers.AnalyzePOSCAR(file, *maxDistance, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := layers.WriteBondReport(out, file, result); err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Repeat("-", 40))
		if *plotDir != "" {
			name := filepath.Join(*plotDir, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))+"_bonds.png")
			err := layerplot.BondLengths(result.UnitCellInPlane, result.UnitCellInterlayer, filepath.Base(file), name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: plotting %s: %v\n", file, err)
			}
		}
	}
	fmt.Println("Bond analysis written to", *output)
	return nil
}

func analyzeELF(args []string) error {
	fs := flag.NewFlagSet("analyze-elf", flag.ExitOnError)
	file := fs.String("file", "", "single ELFCAR file to analyze")
	directory := fs.String("directory", "", "directory containing ELFCAR_* files")
	prefix := fs.String("prefix", "ELFCAR_", "filename prefix when using -directory")
	topN := fs.Int("top", layers.DefaultTopN, "number of hotspots to extract per grid")
	minSep := fs.Float64("min-sep", layers.DefaultMinSeparation, "minimum periodic fractional distance between hotspots")
	dataOutput := fs.String("data-output", "elfcar_data.dat", "output file for the per-layer metrics table")
	coordsOutput := fs.String("coords-output", "elfcar_coords.dat", "output file for the per-layer coordinate table")
	hotspotOutput := fs.String("hotspots-output", "", "optional output file for the full hotspot table")
	profile := fs.String("profile-plot", "", "optional max-ELF-per-layer plot file")
	fs.Parse(args)

	if (*file == "") == (*directory == "") {
		return fmt.Errorf("give exactly one of -file or -directory")
	}
	if *file != "" {
		result, err := layers.AnalyzeELFCAR(*file, *topN, *minSep)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	results, err := layers.AnalyzeELFCARDir(*directory, *prefix, *topN, *minSep)
	if err != nil {
		return err
	}
	if err := writeTable(*dataOutput, results, layers.WriteElfData); err != nil {
		return err
	}
	if err := writeTable(*coordsOutput, results, layers.WriteElfCoords); err != nil {
		return err
	}
	if *hotspotOutput != "" {
		if err := writeTable(*hotspotOutput, results, layers.WriteHotspotTable); err != nil {
			return err
		}
	}
	if *profile != "" {
		if err := layerplot.ELFProfile(results, "Max ELF per layer count", *profile); err != nil {
			fmt.Fprintln(os.Stderr, "warning: plotting profile:", err)
		}
	}
	fmt.Printf("ELF metrics written to %s and %s\n", *dataOutput, *coordsOutput)
	return nil
}

func writeTable(name string, results []layers.ElfLayerResult, write func(w io.Writer, r []layers.ElfLayerResult) error) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	return write(out, results)
}

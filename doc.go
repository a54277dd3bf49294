/*
 * doc.go, part of golayers.
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

/*Package layers provides crystal-structure types and the analysis routines of the
golayers toolkit, which deals with layered (2D/slab) materials in VASP-style
calculations.


	**golayers capabilities**


    Reads/writes POSCAR files and reads ELFCAR volumetric files,
	including gzipped ones.

    Detects the number of layers of a slab from the vacuum gaps along
	the stacking direction.

    Collects, classifies (in-plane vs interlayer) and clusters the bond
	lengths of a structure, in its given cell, its primitive standard
	cell and a 3x3x1 supercell.

    Locates the highest values ("hotspots") of an electron localization
	function grid, subject to a minimum mutual separation, under periodic
	boundary conditions.

    Converts between fractional and Cartesian coordinates, and computes
	periodic (minimum-image) distances.

The subpackages handle slab generation and VASP input assembly (layergen),
queries against the Materials Project API (matproj) and plotting of analysis
results (layerplot).

The analysis functions in this package never print or log; every condition is
reported to the caller through the returned error.
*/
package layers

/*
Copyright © 2021 the MINV authors.
This file is part of MINV.

MINV is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MINV is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MINV.  If not, see <http://www.gnu.org/licenses/>.
*/

package minv

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/sparse"
)

// HEMCODiagnostics holds the parts of a HEMCO diagnostics file that
// the inversion uses: the grid, the grid-cell areas [m2], and the
// total methane emission flux [kg m-2 s-1] at the first time record.
type HEMCODiagnostics struct {
	Grid *Grid
	Area *sparse.DenseArray
	Emis *sparse.DenseArray
}

// ReadHEMCODiagnostics reads the grid-cell areas and total methane
// emissions from the HEMCO diagnostics file at path.
func ReadHEMCODiagnostics(path string) (*HEMCODiagnostics, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	grid, err := readGrid(ff)
	if err != nil {
		return nil, err
	}
	area, err := readNCFAt(ff, "AREA", 0)
	if err != nil {
		return nil, err
	}
	emis, err := readNCFAt(ff, "EmisCH4_Total", 0)
	if err != nil {
		return nil, err
	}
	return &HEMCODiagnostics{Grid: grid, Area: area, Emis: emis}, nil
}

// findHEMCOFile returns the path of the first file in dir whose name
// contains the given substring, in lexical order.
func findHEMCOFile(dir, substring string) (string, error) {
	files, err := listHEMCOFiles(dir, substring)
	if err != nil {
		return "", err
	}
	return files[0], nil
}

// listHEMCOFiles returns the paths of all files in dir whose names
// contain the given substring, sorted lexically. HEMCO diagnostics
// files embed the simulation date in their names, so lexical order
// is chronological order.
func listHEMCOFiles(dir, substring string) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("minv: listing HEMCO diagnostics in %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		if strings.Contains(e.Name(), substring) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("minv: no files matching %q in %s", substring, dir)
	}
	sort.Strings(files)
	return files, nil
}

// priorRunDir returns the jacobian run directory holding the prior
// (unperturbed) simulation, identified by the "0000" element number
// in its name.
func priorRunDir(jacobianDir string) (string, error) {
	entries, err := ioutil.ReadDir(jacobianDir)
	if err != nil {
		return "", fmt.Errorf("minv: listing jacobian runs in %s: %v", jacobianDir, err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "0000") {
			return filepath.Join(jacobianDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("minv: no prior simulation (element 0000) in %s", jacobianDir)
}

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
	"math"

	"github.com/ctessum/sparse"
)

// StateVector holds the cluster labels of the inversion state
// vector. Labels are numbered from 1; cells outside the inversion
// domain are NaN. The highest-numbered nBuffer clusters are buffer
// cells surrounding the region of interest.
type StateVector struct {
	Grid    *Grid
	Labels  *sparse.DenseArray
	NBuffer int
}

// LoadStateVector reads the state vector labels from the NetCDF file
// at path. nBuffer is the number of buffer clusters surrounding the
// region of interest.
func LoadStateVector(path string, nBuffer int) (*StateVector, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	labels, err := readNCFAt(ff, "StateVector", 0)
	if err != nil {
		return nil, err
	}
	grid, err := readGrid(ff)
	if err != nil {
		return nil, err
	}
	return &StateVector{Grid: grid, Labels: labels, NBuffer: nBuffer}, nil
}

// LastROIElement returns the highest state vector label that is
// inside the region of interest (i.e. not a buffer cluster).
func (sv *StateVector) LastROIElement() int {
	max := math.Inf(-1)
	for _, v := range sv.Labels.Elements {
		if !math.IsNaN(v) && v > max {
			max = v
		}
	}
	return int(max) - sv.NBuffer
}

// ROIMask returns a mask array that is 1 in grid cells belonging to
// the region of interest and 0 elsewhere (buffer cells and cells
// outside the inversion domain).
func (sv *StateVector) ROIMask() *sparse.DenseArray {
	last := float64(sv.LastROIElement())
	mask := sparse.ZerosDense(sv.Labels.Shape...)
	for i, v := range sv.Labels.Elements {
		if !math.IsNaN(v) && v <= last {
			mask.Elements[i] = 1
		}
	}
	return mask
}

// CheckShape returns an error if the given array does not have the
// same shape as the state vector labels.
func (sv *StateVector) CheckShape(d *sparse.DenseArray) error {
	if len(d.Shape) != len(sv.Labels.Shape) {
		return fmt.Errorf("minv: state vector shape mismatch: %v != %v", d.Shape, sv.Labels.Shape)
	}
	for i, n := range d.Shape {
		if n != sv.Labels.Shape[i] {
			return fmt.Errorf("minv: state vector shape mismatch: %v != %v", d.Shape, sv.Labels.Shape)
		}
	}
	return nil
}

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

// Package minv provides support for sequential (Kalman-filter-style)
// atmospheric inversions of methane emissions. It prepares the prior
// emission scale factors for each inversion period from previous
// periods' posteriors, filters satellite observations, sums
// area-weighted emissions over a region of interest, and renders
// maps and time series of the results.
//
// The gridded inputs and outputs are NetCDF files laid out the way
// a GEOS-Chem/HEMCO Kalman-filter inversion directory is laid out:
// HEMCO diagnostics hold the original prior emissions, a state
// vector file labels the clusters being optimized, and each
// inversion period archives a gridded posterior.
package minv

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Version gives the version number.
const Version = "0.3.1"

// Grid describes a regular latitude-longitude grid in terms of
// its cell center coordinates [degrees].
type Grid struct {
	Lat []float64
	Lon []float64
}

// Nx returns the number of grid cells in the West-East direction.
func (g *Grid) Nx() int { return len(g.Lon) }

// Ny returns the number of grid cells in the South-North direction.
func (g *Grid) Ny() int { return len(g.Lat) }

// Closest returns the indices (j,i) of the grid cell whose center is
// closest to the given coordinates.
func (g *Grid) Closest(lat, lon float64) (j, i int) {
	j = closestIndex(g.Lat, lat)
	i = closestIndex(g.Lon, lon)
	return j, i
}

func closestIndex(centers []float64, v float64) int {
	min := math.Inf(1)
	var imin int
	for i, c := range centers {
		if d := math.Abs(c - v); d < min {
			min = d
			imin = i
		}
	}
	return imin
}

// edges converts cell center coordinates to cell edge coordinates,
// extrapolating by a half grid spacing at the domain boundaries.
func edges(centers []float64) []float64 {
	e := make([]float64, len(centers)+1)
	for i := 1; i < len(centers); i++ {
		e[i] = (centers[i-1] + centers[i]) / 2
	}
	e[0] = centers[0] - (e[1]-centers[0])
	e[len(centers)] = centers[len(centers)-1] +
		(centers[len(centers)-1] - e[len(centers)-1])
	return e
}

// Cell returns the bounding polygon of grid cell (j,i) in
// longitude-latitude coordinates.
func (g *Grid) Cell(j, i int) geom.Polygon {
	latE := edges(g.Lat)
	lonE := edges(g.Lon)
	x0, x1 := lonE[i], lonE[i+1]
	y0, y1 := latE[j], latE[j+1]
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}

// Extent returns the outer bounds (N, S, E, W) of the grid.
func (g *Grid) Extent() (N, S, E, W float64) {
	latE := edges(g.Lat)
	lonE := edges(g.Lon)
	return latE[len(latE)-1], latE[0], lonE[len(lonE)-1], lonE[0]
}

// matchGrid checks that two grids cover the same cell centers.
func matchGrid(a, b *Grid) error {
	if a.Nx() != b.Nx() || a.Ny() != b.Ny() {
		return fmt.Errorf("minv: grid mismatch: %dx%d != %dx%d",
			a.Ny(), a.Nx(), b.Ny(), b.Nx())
	}
	return nil
}

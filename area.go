/*
Copyright © 2023 the MINV authors.
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
	"math"

	"github.com/ctessum/geom"
	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0088

// PolygonAreaKm2 returns the area [km2] of the polygon ring described
// by the given longitude-latitude coordinates, computed on the
// sphere. The ring may be given in either winding order and need not
// be explicitly closed.
func PolygonAreaKm2(ring []geom.Point) float64 {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return 0
	}
	pts := make([]s2.Point, len(ring))
	for i, p := range ring {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(p.Y, p.X))
	}
	a := s2.LoopFromPoints(pts).Area()
	// A loop wound clockwise encloses the complement of the
	// intended region.
	if a > 2*math.Pi {
		a = 4*math.Pi - a
	}
	return a * earthRadiusKm * earthRadiusKm
}

// CellAreaKm2 returns the area [km2] of grid cell (j,i).
func (g *Grid) CellAreaKm2(j, i int) float64 {
	return PolygonAreaKm2(g.Cell(j, i)[0])
}

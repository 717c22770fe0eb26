/*
Copyright © 2022 the MINV authors.
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
	"time"

	"github.com/ctessum/sparse"
	goshp "github.com/jonas-p/go-shp"
)

// Obs is a single observation of the methane column at a point.
type Obs struct {
	Lat, Lon float64
	Value    float64 // [ppb]
	Time     time.Time
}

// FilterObsWithMask returns the observations whose closest grid cell
// lies within the given 0/1 mask.
func FilterObsWithMask(mask *sparse.DenseArray, grid *Grid, obs []Obs) []Obs {
	var o []Obs
	for _, ob := range obs {
		j, i := grid.Closest(ob.Lat, ob.Lon)
		if mask.Get(j, i) != 0 {
			o = append(o, ob)
		}
	}
	return o
}

// CountObsInMask returns the number of observations whose closest
// grid cell lies within the given 0/1 mask.
func CountObsInMask(mask *sparse.DenseArray, grid *Grid, obs []Obs) int {
	return len(FilterObsWithMask(mask, grid, obs))
}

// WriteObsShapefile writes the given observations to a point
// shapefile for inspection in GIS tools, with one field each for the
// observed value and the observation time (Unix seconds).
func WriteObsShapefile(fileName string, obs []Obs) error {
	shape, err := goshp.Create(fileName, goshp.POINT)
	if err != nil {
		return fmt.Errorf("minv: creating observation shapefile: %v", err)
	}
	defer shape.Close()
	shape.SetFields([]goshp.Field{
		goshp.FloatField("Value", 14, 8),
		goshp.FloatField("Time", 14, 0),
	})
	for i, ob := range obs {
		shape.Write(&goshp.Point{X: ob.Lon, Y: ob.Lat})
		if err := shape.WriteAttribute(i, 0, ob.Value); err != nil {
			return fmt.Errorf("minv: writing observation shapefile: %v", err)
		}
		if err := shape.WriteAttribute(i, 1, float64(ob.Time.Unix())); err != nil {
			return fmt.Errorf("minv: writing observation shapefile: %v", err)
		}
	}
	return nil
}

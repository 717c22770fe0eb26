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
)

const (
	// qaThreshold is the minimum TROPOMI quality assurance value
	// for a retrieval to be used in the inversion.
	qaThreshold = 0.5

	// maxLonSpread is the maximum spread of the corner longitudes
	// of a pixel [degrees]. Pixels exceeding it straddle the
	// antimeridian and are discarded.
	maxLonSpread = 100.

	// maxSWIRChi2 is the SWIR chi-squared value above which
	// inland-water retrievals in the blended product are
	// discarded (Balasus et al. 2023).
	maxSWIRChi2 = 20000.
)

// Surface classification categories in the blended
// TROPOMI+GOSAT product.
const (
	surfaceInlandWater = 2
	surfaceCoastal     = 3
)

// Swath holds the per-pixel retrieval fields of one satellite
// overpass that the observation filters operate on. All slices have
// one entry per pixel.
type Swath struct {
	Latitude  []float64
	Longitude []float64
	Time      []time.Time

	// QA is the retrieval quality assurance value in [0,1].
	QA []float64

	// LongitudeBounds holds the corner longitudes of each pixel.
	LongitudeBounds [][4]float64

	// SurfaceClassification and ChiSquareSWIR are only present in
	// the blended TROPOMI+GOSAT product.
	SurfaceClassification []int
	ChiSquareSWIR         []float64
}

// LatLonBounds is a longitude-latitude bounding box.
type LatLonBounds struct {
	LonMin, LonMax float64
	LatMin, LatMax float64
}

// lonSpread returns the peak-to-peak spread of the corner longitudes
// of a pixel.
func lonSpread(c [4]float64) float64 {
	min, max := c[0], c[0]
	for _, v := range c[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

// inDomain reports whether pixel k lies strictly inside the given
// bounding box and within [start, end], and does not straddle the
// antimeridian.
func (s *Swath) inDomain(k int, b LatLonBounds, start, end time.Time) bool {
	if !(s.Longitude[k] > b.LonMin && s.Longitude[k] < b.LonMax) {
		return false
	}
	if !(s.Latitude[k] > b.LatMin && s.Latitude[k] < b.LatMax) {
		return false
	}
	if s.Time[k].Before(start) || s.Time[k].After(end) {
		return false
	}
	return lonSpread(s.LongitudeBounds[k]) < maxLonSpread
}

// Filter returns the indices of the TROPOMI pixels within the given
// spatial and temporal bounds that pass quality filtering: QA value
// of at least 0.5 and no antimeridian crossing.
func (s *Swath) Filter(b LatLonBounds, start, end time.Time) []int {
	var keep []int
	for k := range s.Latitude {
		if s.inDomain(k, b, start, end) && s.QA[k] >= qaThreshold {
			keep = append(keep, k)
		}
	}
	return keep
}

// FilterBlended returns the indices of the pixels of a blended
// TROPOMI+GOSAT swath within the given spatial and temporal bounds
// that pass quality filtering. Instead of a QA threshold, the blended
// product drops all coastal pixels and those inland-water pixels with
// a poor spectral fit, following Balasus et al. (2023).
func (s *Swath) FilterBlended(b LatLonBounds, start, end time.Time) ([]int, error) {
	if s.SurfaceClassification == nil {
		return nil, fmt.Errorf("minv: blended swath filter requires surface classification data")
	}
	var keep []int
	for k := range s.Latitude {
		if !s.inDomain(k, b, start, end) {
			continue
		}
		switch s.SurfaceClassification[k] {
		case surfaceCoastal:
			continue
		case surfaceInlandWater:
			if s.ChiSquareSWIR[k] > maxSWIRChi2 {
				continue
			}
		}
		keep = append(keep, k)
	}
	return keep, nil
}

// ReadSwath reads a satellite swath from the NetCDF file at path.
// Retrieval times are stored as seconds since the given reference
// epoch. The surface classification and SWIR chi-squared variables
// are optional; the remaining variables are required.
func ReadSwath(path string, epoch time.Time) (*Swath, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lat, err := readNCF(ff, "latitude")
	if err != nil {
		return nil, err
	}
	lon, err := readNCF(ff, "longitude")
	if err != nil {
		return nil, err
	}
	secs, err := readNCF(ff, "time")
	if err != nil {
		return nil, err
	}
	qa, err := readNCF(ff, "qa_value")
	if err != nil {
		return nil, err
	}
	lonBounds, err := readNCF(ff, "longitude_bounds")
	if err != nil {
		return nil, err
	}
	n := len(lat.Elements)
	if len(lonBounds.Elements) != 4*n {
		return nil, fmt.Errorf("minv: reading swath %s: %d pixels but %d corner longitudes",
			path, n, len(lonBounds.Elements))
	}

	s := &Swath{
		Latitude:        lat.Elements,
		Longitude:       lon.Elements,
		QA:              qa.Elements,
		Time:            make([]time.Time, n),
		LongitudeBounds: make([][4]float64, n),
	}
	for k := 0; k < n; k++ {
		s.Time[k] = epoch.Add(time.Duration(secs.Elements[k] * float64(time.Second)))
		copy(s.LongitudeBounds[k][:], lonBounds.Elements[4*k:4*k+4])
	}

	if cls, err := readNCF(ff, "surface_classification"); err == nil {
		s.SurfaceClassification = make([]int, n)
		for k, v := range cls.Elements {
			s.SurfaceClassification[k] = int(v)
		}
		chi2, err := readNCF(ff, "chi_square_SWIR")
		if err != nil {
			return nil, err
		}
		s.ChiSquareSWIR = chi2.Elements
	}
	return s, nil
}

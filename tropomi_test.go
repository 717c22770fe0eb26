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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/cdf"
)

var testBounds = LatLonBounds{
	LonMin: -105, LonMax: -95,
	LatMin: 25, LatMax: 35,
}

func testSwath() *Swath {
	mid := time.Date(2022, 5, 15, 12, 0, 0, 0, time.UTC)
	late := time.Date(2022, 6, 15, 12, 0, 0, 0, time.UTC)
	narrow := [4]float64{-100.1, -100.1, -99.9, -99.9}
	return &Swath{
		Latitude:  []float64{30, 30, 30, 40, 30, 30, 30},
		Longitude: []float64{-100, -100, -90, -100, -100, -100, -100},
		Time: []time.Time{
			mid, mid, mid, mid, late, mid, mid,
		},
		QA: []float64{0.9, 0.3, 0.9, 0.9, 0.9, 0.9, 0.5},
		LongitudeBounds: [][4]float64{
			narrow, narrow, narrow, narrow, narrow,
			{-179, -179, 179, 179}, // antimeridian crossing
			narrow,
		},
	}
}

func TestSwathFilter(t *testing.T) {
	start := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 5, 31, 23, 59, 59, 0, time.UTC)
	keep := testSwath().Filter(testBounds, start, end)
	// Pixel 1 fails the QA threshold, 2 and 3 are outside the
	// domain, 4 is after the period, 5 straddles the antimeridian,
	// and 6 sits exactly on the QA threshold.
	want := []int{0, 6}
	if !reflect.DeepEqual(keep, want) {
		t.Errorf("filtered pixels: %v != %v", keep, want)
	}
}

func TestSwathFilterBlended(t *testing.T) {
	start := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 5, 31, 23, 59, 59, 0, time.UTC)

	s := testSwath()
	if _, err := s.FilterBlended(testBounds, start, end); err == nil {
		t.Error("blended filtering without surface classification should give an error")
	}

	// Land, coastal, inland water with a good spectral fit, and
	// inland water with a poor one.
	s.SurfaceClassification = []int{1, 3, 2, 2, 1, 1, 1}
	s.ChiSquareSWIR = []float64{0, 0, 100, 25000, 0, 0, 0}
	s.Latitude = []float64{30, 30, 30, 30, 30, 30, 30}
	s.Longitude = []float64{-100, -100, -100, -100, -100, -100, -100}

	keep, err := s.FilterBlended(testBounds, start, end)
	if err != nil {
		t.Fatal(err)
	}
	// The QA value is ignored (pixels 1 and 6 of the regular filter);
	// instead pixel 1 is coastal and pixel 3 is inland water with a
	// poor fit. Pixels 4 and 5 still fail the domain checks.
	want := []int{0, 2, 6}
	if !reflect.DeepEqual(keep, want) {
		t.Errorf("filtered pixels: %v != %v", keep, want)
	}
}

func writeTestSwath(t *testing.T, path string, blended bool) {
	t.Helper()
	h := cdf.NewHeader([]string{"pixel", "corner"}, []int{2, 4})
	h.AddVariable("latitude", []string{"pixel"}, []float64{0})
	h.AddVariable("longitude", []string{"pixel"}, []float64{0})
	h.AddVariable("time", []string{"pixel"}, []float64{0})
	h.AddVariable("qa_value", []string{"pixel"}, []float64{0})
	h.AddVariable("longitude_bounds", []string{"pixel", "corner"}, []float64{0})
	if blended {
		h.AddVariable("surface_classification", []string{"pixel"}, []int32{0})
		h.AddVariable("chi_square_SWIR", []string{"pixel"}, []float64{0})
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	vars := map[string]interface{}{
		"latitude":  []float64{30, 31},
		"longitude": []float64{-100, -99},
		"time":      []float64{3600, 7200},
		"qa_value":  []float64{1, 0.4},
		"longitude_bounds": []float64{
			-100.1, -100.1, -99.9, -99.9,
			-99.1, -99.1, -98.9, -98.9,
		},
	}
	if blended {
		vars["surface_classification"] = []int32{1, 2}
		vars["chi_square_SWIR"] = []float64{0, 300}
	}
	for name, data := range vars {
		end := f.Header.Lengths(name)
		wr := f.Writer(name, make([]int, len(end)), end)
		if _, err := wr.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
}

func TestReadSwath(t *testing.T) {
	epoch := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, blended := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "swath.nc")
		writeTestSwath(t, path, blended)
		s, err := ReadSwath(path, epoch)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(s.Latitude, []float64{30, 31}) {
			t.Errorf("latitude: %v", s.Latitude)
		}
		if !reflect.DeepEqual(s.Longitude, []float64{-100, -99}) {
			t.Errorf("longitude: %v", s.Longitude)
		}
		if want := epoch.Add(2 * time.Hour); !s.Time[1].Equal(want) {
			t.Errorf("time: %v != %v", s.Time[1], want)
		}
		if s.LongitudeBounds[1] != [4]float64{-99.1, -99.1, -98.9, -98.9} {
			t.Errorf("longitude bounds: %v", s.LongitudeBounds[1])
		}
		if blended {
			if !reflect.DeepEqual(s.SurfaceClassification, []int{1, 2}) {
				t.Errorf("surface classification: %v", s.SurfaceClassification)
			}
			if !reflect.DeepEqual(s.ChiSquareSWIR, []float64{0, 300}) {
				t.Errorf("chi square: %v", s.ChiSquareSWIR)
			}
		} else if s.SurfaceClassification != nil {
			t.Error("surface classification should be absent")
		}
	}
}

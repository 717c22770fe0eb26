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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

const (
	secondsPerDay = 86400.
	daysPerYear   = 365.
	tgPerKg       = 1.e-9
)

// SumTotalEmissions sums the given emission fluxes [kg m-2 s-1] over
// the region of interest, weighting each grid cell by its area [m2]
// and the given 0/1 mask, and returns the total in Tg a-1.
func SumTotalEmissions(emis, area, mask *sparse.DenseArray) float64 {
	kgPerS := make([]float64, len(emis.Elements))
	for i, e := range emis.Elements {
		kgPerS[i] = e * area.Elements[i] * mask.Elements[i]
	}
	return floats.Sum(kgPerS) * secondsPerDay * daysPerYear * tgPerKg
}

// MovingAverage returns the trailing moving average of xs over the
// given window. The first window-1 values average over the shorter
// available history.
func MovingAverage(xs []float64, window int) []float64 {
	o := make([]float64, len(xs))
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		o[i] = floats.Sum(xs[lo:i+1]) / float64(i+1-lo)
	}
	return o
}

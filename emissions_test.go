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
	"testing"

	"github.com/ctessum/sparse"
)

func TestSumTotalEmissions(t *testing.T) {
	emis := sparse.ZerosDense(2, 2)
	copy(emis.Elements, []float64{1e-9, 2e-9, 3e-9, 4e-9})
	area := sparse.ZerosDense(2, 2)
	copy(area.Elements, []float64{1e6, 1e6, 2e6, 2e6})
	mask := sparse.ZerosDense(2, 2)
	copy(mask.Elements, []float64{1, 1, 1, 0})

	// (1e-9*1e6 + 2e-9*1e6 + 3e-9*2e6) kg/s * 86400*365 s/a * 1e-9 Tg/kg
	const want = 9e-3 * 86400 * 365 * 1e-9
	total := SumTotalEmissions(emis, area, mask)
	if !similar(total, want, 1e-12) {
		t.Errorf("total emissions: %g != %g", total, want)
	}
}

func TestMovingAverage(t *testing.T) {
	xs := []float64{2, 4, 6, 8, 10}
	got := MovingAverage(xs, 3)
	want := []float64{2, 3, 4, 6, 8}
	for i := range want {
		if !similar(got[i], want[i], 1e-12) {
			t.Errorf("moving average element %d: %g != %g", i, got[i], want[i])
		}
	}
}

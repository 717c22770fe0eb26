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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func TestSaveLoad(t *testing.T) {
	type result struct {
		Totals []float64
		Region geom.Polygon
	}
	in := result{
		Totals: []float64{1.5, 2.5, 3.5},
		Region: geom.Polygon{{
			{X: -100, Y: 30}, {X: -99, Y: 30}, {X: -99, Y: 31}, {X: -100, Y: 30},
		}},
	}
	path := filepath.Join(t.TempDir(), "result.gob")
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}
	var out result
	if err := Load(path, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip: %v != %v", out, in)
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.gob"), &out); err == nil {
		t.Error("loading a missing file should give an error")
	}
}

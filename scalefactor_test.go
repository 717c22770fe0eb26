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
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
)

func testGrid() *Grid {
	return &Grid{Lat: []float64{30, 31}, Lon: []float64{-100, -99}}
}

func writeTestField(t *testing.T, path, name string, grid *Grid, vals []float64) {
	t.Helper()
	data := sparse.ZerosDense(grid.Ny(), grid.Nx())
	copy(data.Elements, vals)
	err := WriteNCF(path, grid, nil, NCFVar{
		Name: name,
		Dims: []string{"lat", "lon"},
		Data: data,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func writeTestHEMCO(t *testing.T, path string, grid *Grid, emis []float64) {
	t.Helper()
	area := sparse.ZerosDense(grid.Ny(), grid.Nx())
	for i := range area.Elements {
		area.Elements[i] = 1e6
	}
	data := sparse.ZerosDense(grid.Ny(), grid.Nx())
	copy(data.Elements, emis)
	err := WriteNCF(path, grid, nil,
		NCFVar{Name: "AREA", Dims: []string{"lat", "lon"}, Units: "m2", Data: area},
		NCFVar{Name: "EmisCH4_Total", Dims: []string{"lat", "lon"}, Units: "kg/m2/s", Data: data})
	if err != nil {
		t.Fatal(err)
	}
}

// setupInversion lays out a two-period inversion directory:
// a 2x2 grid with one buffer cluster and one cell outside the
// inversion domain, unit initial scale factors, and one completed
// period with a known posterior.
func setupInversion(t *testing.T) *Inversion {
	t.Helper()
	base := t.TempDir()
	grid := testGrid()

	labels := sparse.ZerosDense(2, 2)
	copy(labels.Elements, []float64{1, 2, 3, math.NaN()})
	err := WriteNCF(filepath.Join(base, "StateVector.nc"), grid, nil, NCFVar{
		Name: "StateVector",
		Dims: []string{"lat", "lon"},
		Data: labels,
	})
	if err != nil {
		t.Fatal(err)
	}

	writeTestField(t, filepath.Join(base, "unit_sf.nc"), "ScaleFactor", grid,
		[]float64{1, 1, 1, 1})

	previewDir := filepath.Join(base, "preview_run", "OutputDir")
	if err := os.MkdirAll(previewDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	writeTestHEMCO(t, filepath.Join(previewDir, "HEMCO_diagnostics.202205010000.nc"),
		grid, []float64{1e-9, 2e-9, 3e-9, 4e-9})

	priorDir := filepath.Join(base, "jacobian_runs", "CH4_0000", "OutputDir")
	if err := os.MkdirAll(priorDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	writeTestHEMCO(t, filepath.Join(priorDir, "HEMCO_sa_diagnostics.202205010000.nc"),
		grid, []float64{2e-9, 4e-9, 6e-9, 8e-9})

	postDir := filepath.Join(base, "kf_inversions", "period1")
	if err := os.MkdirAll(postDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	writeTestField(t, filepath.Join(postDir, "gridded_posterior.nc"), "ScaleFactor",
		grid, []float64{1.5, 0.5, 2, 1})

	return &Inversion{Base: base, NBuffer: 1, NudgeFactor: 0.1}
}

func TestPrepareScaleFactorsFirstPeriod(t *testing.T) {
	inv := setupInversion(t)
	sf, err := inv.PrepareScaleFactors(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range sf.SF.Elements {
		if v != 1 {
			t.Errorf("first-period scale factor %d: %g != 1", i, v)
		}
	}
}

func TestPrepareScaleFactorsSecondPeriod(t *testing.T) {
	inv := setupInversion(t)
	msgChan := make(chan string, 4)
	sf, err := inv.PrepareScaleFactors(2, msgChan)
	if err != nil {
		t.Fatal(err)
	}
	close(msgChan)

	// With unit initial scale factors, prior emissions
	// o = [2 4 6 8]e-9 and posterior p = [1.5 0.5 2 1]:
	//   current = p*o          = [3 2 12 8]e-9
	//   nudged  = 0.1o + 0.9c  = [2.9 2.2 11.4 8]e-9
	// The region of interest covers the first two cells (the third is
	// a buffer cluster and the fourth is outside the domain), so
	//   lambda = (3+2)/(2.9+2.2) = 5/5.1
	// and sf = lambda*nudged/o.
	lambda := 5. / 5.1
	want := []float64{lambda * 1.45, lambda * 0.55, lambda * 1.9, lambda}
	for i, v := range want {
		if !similar(sf.SF.Elements[i], v, 1e-5) {
			t.Errorf("scale factor %d: %g != %g", i, sf.SF.Elements[i], v)
		}
	}

	var msgs []string
	for msg := range msgChan {
		msgs = append(msgs, msg)
	}
	if len(msgs) != 2 {
		t.Errorf("%d status messages != 2: %v", len(msgs), msgs)
	}
}

// TestPrepareScaleFactorsConservation checks that the rescaling step
// conserves the total emission in the region of interest.
func TestPrepareScaleFactorsConservation(t *testing.T) {
	inv := setupInversion(t)
	sf, err := inv.PrepareScaleFactors(2, nil)
	if err != nil {
		t.Fatal(err)
	}

	sv, err := LoadStateVector(filepath.Join(inv.Base, "StateVector.nc"), inv.NBuffer)
	if err != nil {
		t.Fatal(err)
	}
	mask := sv.ROIMask()
	area := sparse.ZerosDense(2, 2)
	for i := range area.Elements {
		area.Elements[i] = 1e6
	}

	orig := sparse.ZerosDense(2, 2)
	copy(orig.Elements, []float64{2e-9, 4e-9, 6e-9, 8e-9})
	current := sparse.ZerosDense(2, 2)
	scaled := sparse.ZerosDense(2, 2)
	post := []float64{1.5, 0.5, 2, 1}
	for i := range orig.Elements {
		current.Elements[i] = post[i] * orig.Elements[i]
		scaled.Elements[i] = sf.SF.Elements[i] * orig.Elements[i]
	}
	wantTotal := SumTotalEmissions(current, area, mask)
	gotTotal := SumTotalEmissions(scaled, area, mask)
	if !similar(gotTotal, wantTotal, 1e-5) {
		t.Errorf("total emission not conserved: %g != %g", gotTotal, wantTotal)
	}
}

func TestPrepareScaleFactorsBadPeriod(t *testing.T) {
	inv := &Inversion{Base: "nonexistent"}
	if _, err := inv.PrepareScaleFactors(0, nil); err == nil {
		t.Error("period 0 should give an error")
	}
}

func TestWriteAndArchive(t *testing.T) {
	inv := setupInversion(t)
	sf, err := inv.PrepareScaleFactors(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := inv.WriteAndArchive(sf, 2); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{inv.ScaleFactorPath(), inv.ArchivePath(2)} {
		got, err := loadScaleFactors(path)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range sf.SF.Elements {
			if !similar(got.SF.Elements[i], v, 1e-6) {
				t.Errorf("%s element %d: %g != %g", path, i, got.SF.Elements[i], v)
			}
		}
	}
}

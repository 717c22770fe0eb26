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
	"os"
	"path/filepath"

	"github.com/ctessum/sparse"
)

// ScaleFactors holds the multiplicative adjustments applied to the
// prior emission estimate in each grid cell for one inversion period.
type ScaleFactors struct {
	Grid *Grid
	SF   *sparse.DenseArray
}

// Inversion locates the files of a Kalman-filter inversion directory.
type Inversion struct {
	// Base is the base directory of the inversion, where
	// e.g. "preview_run/" resides.
	Base string

	// NBuffer is the number of buffer clusters in the state vector.
	NBuffer int

	// NudgeFactor is the weight applied to the original prior
	// emissions when nudging the posterior of each period
	// (typically 0.1).
	NudgeFactor float64
}

func (inv *Inversion) unitSFPath() string      { return filepath.Join(inv.Base, "unit_sf.nc") }
func (inv *Inversion) stateVectorPath() string { return filepath.Join(inv.Base, "StateVector.nc") }
func (inv *Inversion) previewCache() string {
	return filepath.Join(inv.Base, "preview_run", "OutputDir")
}
func (inv *Inversion) jacobianDir() string { return filepath.Join(inv.Base, "jacobian_runs") }
func (inv *Inversion) posteriorPath(period int) string {
	return filepath.Join(inv.Base, "kf_inversions", fmt.Sprintf("period%d", period), "gridded_posterior.nc")
}

// ScaleFactorPath returns the location where the prior scale factors
// for the coming period are written for HEMCO to pick up.
func (inv *Inversion) ScaleFactorPath() string {
	return filepath.Join(inv.Base, "ScaleFactors.nc")
}

// ArchivePath returns the location where the prior scale factors for
// the given period are archived.
func (inv *Inversion) ArchivePath(period int) string {
	return filepath.Join(inv.Base, "archive_sf", fmt.Sprintf("prior_sf_period%d.nc", period))
}

// PrepareScaleFactors prepares the prior emission scale factors for
// the given inversion period (counted from 1).
//
// For the first period the scale factors are the unit scale factors,
// so the HEMCO emissions are used directly. For later periods the
// scale factors are accumulated from all previous periods' posterior
// results: the posterior emissions of each period are nudged toward
// the original prior emissions of that period, then rescaled so that
// the total emission in the region of interest is conserved, and the
// result is divided by the original prior to give the new factors.
//
// If msgChan is not nil, status messages will be sent to it.
func (inv *Inversion) PrepareScaleFactors(period int, msgChan chan string) (*ScaleFactors, error) {
	if period < 1 {
		return nil, fmt.Errorf("minv: inversion period %d; must be >= 1", period)
	}

	sv, err := LoadStateVector(inv.stateVectorPath(), inv.NBuffer)
	if err != nil {
		return nil, err
	}
	mask := sv.ROIMask()

	previewFile, err := findHEMCOFile(inv.previewCache(), "HEMCO_diagnostics")
	if err != nil {
		return nil, err
	}
	preview, err := ReadHEMCODiagnostics(previewFile)
	if err != nil {
		return nil, err
	}
	areas := preview.Area

	// The original emissions from the preview simulation serve as
	// the prior for the first inversion period.
	originalEmis := preview.Emis

	sf, err := loadScaleFactors(inv.unitSFPath())
	if err != nil {
		return nil, err
	}
	if err := sv.CheckShape(sf.SF); err != nil {
		return nil, err
	}

	// Past the first period, the previous inversion results are
	// folded into the initial scale factors for the current period.
	if period > 1 {
		priorRun, err := priorRunDir(inv.jacobianDir())
		if err != nil {
			return nil, err
		}
		hemcoFiles, err := listHEMCOFiles(filepath.Join(priorRun, "OutputDir"), "HEMCO")
		if err != nil {
			return nil, err
		}
		if len(hemcoFiles) < period-1 {
			return nil, fmt.Errorf("minv: %d HEMCO diagnostics files in prior simulation but period is %d",
				len(hemcoFiles), period)
		}

		for p := 1; p < period; p++ {
			prior, err := ReadHEMCODiagnostics(hemcoFiles[p-1])
			if err != nil {
				return nil, err
			}
			originalEmis = prior.Emis

			posterior, err := loadScaleFactors(inv.posteriorPath(p))
			if err != nil {
				return nil, err
			}
			if err := matchGrid(posterior.Grid, sv.Grid); err != nil {
				return nil, err
			}

			// Posterior emissions multiplied up to period p,
			// then nudged toward the original prior.
			current := sparse.ZerosDense(sf.SF.Shape...)
			nudged := sparse.ZerosDense(sf.SF.Shape...)
			for i := range sf.SF.Elements {
				current.Elements[i] = posterior.SF.Elements[i] * sf.SF.Elements[i] * originalEmis.Elements[i]
				nudged.Elements[i] = inv.NudgeFactor*originalEmis.Elements[i] +
					(1-inv.NudgeFactor)*current.Elements[i]
			}

			// Rescale so the nudged field conserves the total
			// emission in the region of interest.
			currentTotal := SumTotalEmissions(current, areas, mask)
			nudgedTotal := SumTotalEmissions(nudged, areas, mask)
			lambda := currentTotal / nudgedTotal

			for i := range sf.SF.Elements {
				sf.SF.Elements[i] = lambda * nudged.Elements[i] / originalEmis.Elements[i]
			}
		}
		if msgChan != nil {
			msgChan <- fmt.Sprintf("Used HEMCO emissions up to period %d to prepare prior scale factors for period %d",
				period-1, period)
		}
	}

	if msgChan != nil {
		emis := sparse.ZerosDense(sf.SF.Shape...)
		for i, s := range sf.SF.Elements {
			emis.Elements[i] = s * originalEmis.Elements[i]
		}
		msgChan <- fmt.Sprintf("Total prior emission = %g Tg a-1",
			SumTotalEmissions(emis, areas, mask))
	}
	return sf, nil
}

// loadScaleFactors reads the ScaleFactor variable and grid from the
// NetCDF file at path.
func loadScaleFactors(path string) (*ScaleFactors, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := readNCFAt(ff, "ScaleFactor", 0)
	if err != nil {
		return nil, err
	}
	grid, err := readGrid(ff)
	if err != nil {
		return nil, err
	}
	return &ScaleFactors{Grid: grid, SF: data}, nil
}

// Write saves the scale factors to a NetCDF file at path with the
// coordinate attributes HEMCO requires.
func (sf *ScaleFactors) Write(path string) error {
	return WriteNCF(path, sf.Grid,
		map[string]string{"comment": "MINV prior emission scale factors"},
		NCFVar{
			Name:  "ScaleFactor",
			Dims:  []string{"lat", "lon"},
			Units: "1",
			Data:  sf.SF,
		})
}

// WriteAndArchive writes the scale factors to the location HEMCO
// reads them from and archives a copy for the given period.
func (inv *Inversion) WriteAndArchive(sf *ScaleFactors, period int) error {
	if err := sf.Write(inv.ScaleFactorPath()); err != nil {
		return err
	}
	archive := inv.ArchivePath(period)
	if err := os.MkdirAll(filepath.Dir(archive), os.ModePerm); err != nil {
		return fmt.Errorf("minv: creating scale factor archive: %v", err)
	}
	return sf.Write(archive)
}

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

package minvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/minv"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PrepareSF prepares the prior emission scale factors for the given
// inversion period, writes them to the location HEMCO reads them from,
// and archives a copy.
func PrepareSF(baseDir string, period, nBuffer int, nudgeFactor float64, msgChan chan string) error {
	inv := &minv.Inversion{
		Base:        os.ExpandEnv(baseDir),
		NBuffer:     nBuffer,
		NudgeFactor: nudgeFactor,
	}
	sf, err := inv.PrepareScaleFactors(period, msgChan)
	if err != nil {
		return err
	}
	if err := inv.WriteAndArchive(sf, period); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"period": period,
		"file":   inv.ScaleFactorPath(),
	}).Info("wrote prior scale factors")
	return nil
}

// ObsCount counts the observations in obsFile whose closest grid cell
// lies in the region of interest defined by the state vector in
// baseDir, and prints the count to standard output. If shapefile is
// not empty, the matching observations are also written there.
func ObsCount(baseDir string, nBuffer int, obsFile, shapefile string) error {
	sv, err := minv.LoadStateVector(
		filepath.Join(os.ExpandEnv(baseDir), "StateVector.nc"), nBuffer)
	if err != nil {
		return err
	}
	obs, err := ReadObsCSV(obsFile)
	if err != nil {
		return err
	}
	mask := sv.ROIMask()
	matched := minv.FilterObsWithMask(mask, sv.Grid, obs)
	fmt.Printf("%d of %d observations are in the region of interest\n",
		len(matched), len(obs))
	if shapefile != "" {
		if err := minv.WriteObsShapefile(shapefile, matched); err != nil {
			return err
		}
		logrus.WithField("file", shapefile).Info("wrote observation shapefile")
	}
	return nil
}

// ReadObsCSV reads observations from a CSV file with the columns
// lat, lon, value, and Unix time [s]. A header row is skipped if its
// first field is not numeric.
func ReadObsCSV(fileName string) ([]minv.Obs, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	var obs []minv.Obs
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("minv: reading observations from %s: %v", fileName, err)
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("minv: reading observations from %s: %d fields in line %d",
				fileName, len(rec), line+1)
		}
		lat, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if line == 0 { // header
				continue
			}
			return nil, fmt.Errorf("minv: reading observations from %s line %d: %v",
				fileName, line+1, err)
		}
		lon, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("minv: reading observations from %s line %d: %v",
				fileName, line+1, err)
		}
		val, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("minv: reading observations from %s line %d: %v",
				fileName, line+1, err)
		}
		sec, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("minv: reading observations from %s line %d: %v",
				fileName, line+1, err)
		}
		obs = append(obs, minv.Obs{
			Lat: lat, Lon: lon, Value: val,
			Time: time.Unix(int64(sec), 0).UTC(),
		})
	}
	return obs, nil
}

// PlotVar renders variable v from the NetCDF file at fileName as a
// map and writes the result to outFile as a PNG image.
func PlotVar(fileName, v, outFile, title, label string) error {
	grid, field, err := minv.ReadField(fileName, v)
	if err != nil {
		return err
	}
	img := vgimg.New(12*vg.Centimeter, 10*vg.Centimeter)
	if err := minv.PlotField(draw.New(img), grid, field, minv.FieldPlotOptions{
		Title: title,
		Label: label,
	}); err != nil {
		return err
	}
	w, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer w.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("minv: writing plot %s: %v", outFile, err)
	}
	logrus.WithField("file", outFile).Info("wrote plot")
	return nil
}

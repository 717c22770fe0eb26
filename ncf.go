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
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// openNCF opens the NetCDF file at the given path. The caller is
// responsible for closing the returned *os.File.
func openNCF(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("minv: opening netcdf file %s: %v", path, err)
	}
	return f, ff, nil
}

// readNCF reads the entire variable v out of netcdf file ff.
func readNCF(ff *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("minv: read netcdf: variable %v not in file", v)
	}
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("minv: read netcdf variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	vals, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("minv: read netcdf variable %s: %v", v, err)
	}
	copy(data.Elements, vals)
	return data, nil
}

// readNCFAt reads variable v out of netcdf file ff at the given
// index along the leading (usually time) dimension, dropping that
// dimension from the result. Variables without a leading record
// dimension are read whole.
func readNCFAt(ff *cdf.File, v string, index int) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("minv: read netcdf: variable %v not in file", v)
	}
	if len(dims) < 3 {
		if index != 0 {
			return nil, fmt.Errorf("minv: read netcdf variable %s: index %d out of range", v, index)
		}
		return readNCF(ff, v)
	}
	dims = dims[1:]
	nread := 1
	for _, dim := range dims {
		nread *= dim
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = index, index+1
	r := ff.Reader(v, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("minv: read netcdf variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	vals, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("minv: read netcdf variable %s: %v", v, err)
	}
	copy(data.Elements, vals)
	return data, nil
}

// toFloat64 converts a buffer returned by a cdf reader to float64
// values. HEMCO writes emissions as float and coordinates as double,
// so both widths need to be handled.
func toFloat64(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported netcdf data type %T", buf)
	}
}

// readGrid reads the lat and lon coordinate variables from ff.
func readGrid(ff *cdf.File) (*Grid, error) {
	lat, err := readNCF(ff, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := readNCF(ff, "lon")
	if err != nil {
		return nil, err
	}
	return &Grid{Lat: lat.Elements, Lon: lon.Elements}, nil
}

// ReadField reads the gridded variable v, together with the grid
// coordinates, from the NetCDF file at path. For variables with a
// leading record dimension, the first record is read.
func ReadField(path, v string) (*Grid, *sparse.DenseArray, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := readNCFAt(ff, v, 0)
	if err != nil {
		return nil, nil, err
	}
	grid, err := readGrid(ff)
	if err != nil {
		return nil, nil, err
	}
	return grid, data, nil
}

// writeNCF writes data to variable v in netcdf file f. The variable
// must already be defined in the file header.
func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	if _, err := w.Write(data32); err != nil {
		return fmt.Errorf("minv: writing netcdf variable %s: %v", v, err)
	}
	return nil
}

// NCFVar is one variable in a NetCDF dataset to be written to disk.
type NCFVar struct {
	Name        string
	Dims        []string
	Units       string
	Description string
	Data        *sparse.DenseArray
}

// WriteNCF writes a set of gridded variables, together with the grid
// coordinates, to a NetCDF (classic format) file at path.
// attrs holds global file attributes.
func WriteNCF(path string, grid *Grid, attrs map[string]string, vars ...NCFVar) error {
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{grid.Ny(), grid.Nx()})
	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		h.AddAttribute("", n, attrs[n])
	}

	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lat", "long_name", "Latitude")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "long_name", "Longitude")

	for _, v := range vars {
		h.AddVariable(v.Name, v.Dims, []float32{0})
		if v.Units != "" {
			h.AddAttribute(v.Name, "units", v.Units)
		}
		if v.Description != "" {
			h.AddAttribute(v.Name, "long_name", v.Description)
		}
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("minv: creating netcdf file %s: %v", path, err)
	}

	for _, c := range []struct {
		name string
		data []float64
	}{{"lat", grid.Lat}, {"lon", grid.Lon}} {
		end := f.Header.Lengths(c.name)
		wr := f.Writer(c.name, make([]int, len(end)), end)
		if _, err := wr.Write(c.data); err != nil {
			return fmt.Errorf("minv: writing netcdf coordinate %s: %v", c.name, err)
		}
	}
	for _, v := range vars {
		if err := writeNCF(f, v.Name, v.Data); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

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
	"encoding/gob"
	"fmt"
	"os"

	"github.com/ctessum/geom"
)

func init() {
	gob.Register(geom.Polygon{})
	gob.Register(geom.Point{})
}

// Save saves data to a gob file (format description at
// https://golang.org/pkg/encoding/gob/) at the given path.
func Save(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("minv: saving %s: %v", path, err)
	}
	return nil
}

// Load loads the data from a previously Saved file into data, which
// must be a pointer.
func Load(path string, data interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(data); err != nil {
		return fmt.Errorf("minv: loading %s: %v", path, err)
	}
	return nil
}

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

// Package main runs the MINV methane inversion support tools from the
// command line.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/minv/minvutil"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if err := minvutil.Root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

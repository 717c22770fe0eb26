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

// Package minvutil provides the command-line interface for the MINV
// methane inversion support tools.
package minvutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/minv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to MINV.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Inversion.BaseDir",
			usage: `
              Inversion.BaseDir is the base directory for the inversion,
              where e.g. "preview_run/" resides.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{sfCmd.Flags(), obscountCmd.Flags()},
		},
		{
			name: "Inversion.NBufferClusters",
			usage: `
              Inversion.NBufferClusters is the number of buffer clusters
              in the state vector, surrounding the region of interest.`,
			defaultVal: 8,
			flagsets:   []*pflag.FlagSet{sfCmd.Flags(), obscountCmd.Flags()},
		},
		{
			name: "Inversion.NudgeFactor",
			usage: `
              Inversion.NudgeFactor is the weight applied to the original
              prior emissions when nudging posterior scale factors between
              inversion periods.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{sfCmd.Flags()},
		},
		{
			name: "period",
			usage: `
              period specifies which inversion period to prepare scale
              factors for. For the first period, period = 1.`,
			shorthand:  "p",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{sfCmd.Flags()},
		},
		{
			name: "Obs.File",
			usage: `
              Obs.File is the location of a CSV file of observations
              with columns lat, lon, value, and Unix time.`,
			defaultVal: "obs.csv",
			flagsets:   []*pflag.FlagSet{obscountCmd.Flags()},
		},
		{
			name: "Obs.Shapefile",
			usage: `
              Obs.Shapefile is the location where the observations lying
              within the region of interest should be written as a point
              shapefile. If empty, no shapefile is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{obscountCmd.Flags()},
		},
		{
			name: "Plot.File",
			usage: `
              Plot.File is the location of the NetCDF file holding the
              variable to plot.`,
			defaultVal: "ScaleFactors.nc",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Variable",
			usage: `
              Plot.Variable is the name of the NetCDF variable to plot.`,
			defaultVal: "ScaleFactor",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Output",
			usage: `
              Plot.Output is the location where the map image should be
              written.`,
			defaultVal: "plot.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Title",
			usage: `
              Plot.Title is the map title.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Label",
			usage: `
              Plot.Label is the color bar label.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("MINV")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, v, option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, v, option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, v, option.usage)
				} else {
					set.IntP(option.name, option.shorthand, v, option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, v, option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, v, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(sfCmd)
	Root.AddCommand(obscountCmd)
	Root.AddCommand(plotCmd)
}

// outChan returns a channel that logs status messages.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			logrus.Info(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("minv: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "minv",
	Short: "Support tools for sequential methane inversions.",
	Long: `MINV prepares prior emission scale factors for sequential
(Kalman-filter-style) methane inversions and provides supporting
observation filtering and plotting tools.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'MINV_var'
where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of MINV.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("MINV v%s\n", minv.Version)
	},
	DisableAutoGenTag: true,
}

// sfCmd prepares the prior scale factors for an inversion period.
var sfCmd = &cobra.Command{
	Use:   "sf",
	Short: "Prepare prior emission scale factors.",
	Long: `sf prepares the prior emission scale factors for the given
inversion period. In the first period the scale factors are unit scale
factors; in later periods they are accumulated from the previous
periods' posteriors, nudged toward the original prior emissions, and
rescaled to conserve total emissions in the region of interest. The
result is written to ScaleFactors.nc in the inversion base directory
and archived under archive_sf/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return PrepareSF(
			Cfg.GetString("Inversion.BaseDir"),
			Cfg.GetInt("period"),
			Cfg.GetInt("Inversion.NBufferClusters"),
			Cfg.GetFloat64("Inversion.NudgeFactor"),
			outChan(),
		)
	},
	DisableAutoGenTag: true,
}

// obscountCmd counts the observations in the region of interest.
var obscountCmd = &cobra.Command{
	Use:   "obscount",
	Short: "Count observations in the region of interest.",
	Long: `obscount reads observations from a CSV file and counts the ones
whose closest grid cell lies within the region of interest defined by
the inversion state vector. If Obs.Shapefile is set, the matching
observations are also written to a point shapefile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ObsCount(
			Cfg.GetString("Inversion.BaseDir"),
			Cfg.GetInt("Inversion.NBufferClusters"),
			os.ExpandEnv(Cfg.GetString("Obs.File")),
			os.ExpandEnv(Cfg.GetString("Obs.Shapefile")),
		)
	},
	DisableAutoGenTag: true,
}

// plotCmd renders a gridded NetCDF variable to a PNG map.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot a gridded NetCDF variable.",
	Long: `plot renders the given variable from a NetCDF file as a map
image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return PlotVar(
			os.ExpandEnv(Cfg.GetString("Plot.File")),
			Cfg.GetString("Plot.Variable"),
			os.ExpandEnv(Cfg.GetString("Plot.Output")),
			Cfg.GetString("Plot.Title"),
			Cfg.GetString("Plot.Label"),
		)
	},
	DisableAutoGenTag: true,
}

// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/meteosatlib/msat/api/config"
	"github.com/meteosatlib/msat/api/dataconvert"
	"github.com/meteosatlib/msat/core/export"
	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/metrics"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	crop          string
	area          string
	size          string
	marks         string
	channels      []string
	timestamp     string
	formats       []string
	derived       []string
	metadata      string
	skipConverted bool
}

func loadConfig(configPath string) (config.ConverterConfig, error) {
	if len(configPath) > 0 {
		return config.NewConfigFromFile(configPath)
	}
	return config.NewConfigFromEnv()
}

// startServices - sentry and the metrics listener, if configured. Returns a func to flush sentry
func startServices(cfg config.ConverterConfig, log logger.ILogger) func() {
	if len(cfg.MetricsAddr) > 0 {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Errorf("Metrics listener stopped: %v", err)
			}
		}()
	}

	if len(cfg.SentryDSN) <= 0 {
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: "msat-convert",
	})
	if err != nil {
		log.Errorf("Sentry init failed: %v", err)
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

func buildRequest(cfg config.ConverterConfig, flags convertFlags) (dataconvert.ConvertRequest, error) {
	req := dataconvert.RequestFromConfig(cfg)
	req.Channels = flags.channels
	req.Timestamp = flags.timestamp
	if len(flags.formats) > 0 {
		req.Formats = flags.formats
	}
	if len(flags.derived) > 0 {
		req.DerivedBands = flags.derived
	}
	if len(flags.metadata) > 0 {
		req.MetadataFormat = flags.metadata
	}
	if flags.skipConverted {
		req.SkipConverted = true
	}

	var err error
	if len(flags.crop) > 0 {
		if req.Crop, err = parseCrop(flags.crop); err != nil {
			return req, err
		}
	}
	if len(flags.area) > 0 {
		if req.LatLonCrop, err = parseArea(flags.area); err != nil {
			return req, err
		}
	}
	if len(flags.size) > 0 {
		if req.Columns, req.Lines, err = parseSize(flags.size); err != nil {
			return req, err
		}
	}
	if len(flags.marks) > 0 {
		if req.Marks, err = parseMarks(flags.marks); err != nil {
			return req, err
		}
	}
	return req, nil
}

func runConvert(configPath string, flags convertFlags, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.InputPath = args[0]
	}
	if len(args) > 1 {
		cfg.OutputPath = args[1]
	}
	if len(cfg.InputPath) <= 0 || len(cfg.OutputPath) <= 0 {
		return fmt.Errorf("input and output paths must be given")
	}

	log := &logger.StdOutLogger{}
	log.SetLogLevel(cfg.GetLogLevel())

	flush := startServices(cfg, log)
	defer flush()
	defer logger.HandlePanicWithLog(log)

	req, err := buildRequest(cfg, flags)
	if err != nil {
		return err
	}

	deps, err := dataconvert.DepsFromConfig(cfg, log)
	if err != nil {
		return err
	}
	if deps.Catalog != nil {
		defer deps.Catalog.Close()
	}

	result, err := dataconvert.ConvertProduct(req, deps)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	for _, rec := range result.Converted {
		fmt.Printf("%v: %v\n", rec.ProductKey, strings.Join(rec.Outputs, ", "))
	}
	for _, key := range result.Skipped {
		fmt.Printf("%v: already converted\n", key)
	}
	return nil
}

func runInfo(configPath string, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := &logger.StdErrLogger{Component: "info"}
	log.SetLogLevel(logger.LogError)

	fs, bucket, root, err := dataconvert.OpenLocation(args[0], cfg.AWSRegion)
	if err != nil {
		return err
	}

	imgs, err := dataconvert.ImportProducts(fs, bucket, root, log)
	if err != nil {
		return err
	}

	for _, img := range imgs {
		meta := export.MetadataFromImage(img)
		columns, lines := img.Size()
		fmt.Printf("%v\n", img.DefaultFilename())
		fmt.Printf("  time:          %v\n", img.Datetime())
		fmt.Printf("  spacecraft:    %v (%v)\n", meta.Spacecraft, meta.SpacecraftID)
		fmt.Printf("  channel:       %v (%v) %v\n", meta.Channel, meta.ChannelID, meta.Units)
		fmt.Printf("  size:          %vx%v at %v,%v\n", columns, lines, img.X0, img.Y0)
		fmt.Printf("  projection:    %v\n", meta.Projection)
		fmt.Printf("  geotransform:  %v\n", meta.GeoTransform)
		fmt.Printf("  seviri dx/dy:  %v %v\n", img.SeviriDX(), img.SeviriDY())
		if digits, err := img.DecimalDigitsOfScaledValues(); err == nil {
			fmt.Printf("  digits:        %v\n", digits)
		}
		fmt.Printf("  history:       %v\n", img.History)
	}
	return nil
}

func main() {
	var configPath string
	var flags convertFlags

	rootCmd := &cobra.Command{
		Use:   "msat-convert",
		Short: "Converts MSG/SEVIRI HRIT products to TIFF and PNG",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file, env vars "+config.EnvPrefix+"<Field> override it")

	convertCmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Converts every product found in input, writing to output. Either can be s3://bucket/prefix",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConvert(configPath, flags, args)
		},
	}
	convertCmd.Flags().StringVar(&flags.crop, "crop", "", "Pixel area to keep: x,y,width,height")
	convertCmd.Flags().StringVar(&flags.area, "area", "", "Lat/lon box to keep: lat1,lon1,lat2,lon2")
	convertCmd.Flags().StringVar(&flags.size, "resize", "", "Rescale to WIDTHxHEIGHT after cropping")
	convertCmd.Flags().StringVar(&flags.marks, "mark", "", "Points to mark on quicklooks: lat,lon;lat,lon")
	convertCmd.Flags().StringSliceVar(&flags.channels, "channel", nil, "Only convert these channels")
	convertCmd.Flags().StringVar(&flags.timestamp, "time", "", "Only convert products of this time, YYYYMMDDhhmm")
	convertCmd.Flags().StringSliceVar(&flags.formats, "format", nil, "Output formats: tiff, png")
	convertCmd.Flags().StringSliceVar(&flags.derived, "derived", nil, "Derived bands: reflectance, satza, cossolza, jday")
	convertCmd.Flags().StringVar(&flags.metadata, "metadata", "", "Metadata sidecar format: json, proto")
	convertCmd.Flags().BoolVar(&flags.skipConverted, "skip-converted", false, "Skip products already in the catalogue")

	infoCmd := &cobra.Command{
		Use:   "info <input>",
		Short: "Prints what is known about each product in input",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInfo(configPath, args)
		},
	}

	rootCmd.AddCommand(convertCmd, infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

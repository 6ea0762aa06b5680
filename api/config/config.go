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

// Converter configuration as read from JSON and overridden by env vars
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/meteosatlib/msat/core/logger"
	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

const EnvPrefix = "MSAT_CONFIG_"

// Output formats we can write
const (
	OutputFormatTIFF = "tiff"
	OutputFormatPNG  = "png"
)

// Sidecar metadata formats
const (
	MetadataFormatJSON  = "json"
	MetadataFormatProto = "proto"
)

// Derived bands the converter can add next to the source channel
const (
	DerivedReflectance = "reflectance"
	DerivedSatZA       = "satza"
	DerivedCosSolZA    = "cossolza"
	DerivedJDay        = "jday"
)

// ConverterConfig combines env vars and config JSON values
type ConverterConfig struct {
	// Where HRIT segments (or previously exported TIFFs) are read from. Local dir or s3://bucket/prefix
	InputPath string
	// Where converted products are written. Local dir or s3://bucket/prefix
	OutputPath string
	AWSRegion  string

	OutputFormats  []string
	MetadataFormat string
	DerivedBands   []string

	// Conversion catalogue. Bolt file is used if set, otherwise Mongo if a URI is set, otherwise none
	CatalogPath   string
	MongoURI      string
	MongoDatabase string

	SentryDSN   string
	MetricsAddr string // eg :9102, empty means no metrics listener

	LogLevel string

	QuicklookMaxWidth int32
	SkipConverted     bool
}

func NewConfigFromFile(configFilePath string) (ConverterConfig, error) {
	var cfg ConverterConfig

	customConfig, err := os.ReadFile(configFilePath)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config file at %s", configFilePath)
	}
	return buildConfig(customConfig)
}

// NewConfigFromEnv - no file, everything comes from defaults + env vars
func NewConfigFromEnv() (ConverterConfig, error) {
	return buildConfig([]byte("{}"))
}

func buildConfig(configJson []byte) (ConverterConfig, error) {
	var cfg ConverterConfig

	err := json.Unmarshal(configJson, &cfg)
	if err != nil {
		return cfg, errors.Errorf("failed to parse custom config: %v", err)
	}

	// Override Config with any values explicitly set in Env Vars (MSAT_CONFIG_*)
	// NOTE: For []string slices, pass in a comma-separated string to the corresponding MSAT_CONFIG_ var
	// 			Ex: export MSAT_CONFIG_DerivedBands="reflectance,satza"
	reflection := reflect.ValueOf(&cfg).Elem()
	for i := 0; i < reflection.NumField(); i++ {
		fieldName := reflection.Type().Field(i).Name
		field := reflection.Field(i)
		envName := EnvPrefix + fieldName
		val, present := os.LookupEnv(envName)
		if !present {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(val)
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				slicedVal := []string{}
				for _, item := range strings.Split(val, ",") {
					if item = strings.TrimSpace(item); len(item) > 0 {
						slicedVal = append(slicedVal, item)
					}
				}
				field.Set(reflect.ValueOf(slicedVal))
			}
		case reflect.Int32:
			i, err := strconv.Atoi(val)
			if err != nil {
				return cfg, errors.Errorf("could not cast value %s=%s to Int", envName, val)
			}
			field.SetInt(int64(i))
		case reflect.Bool:
			b, err := strconv.ParseBool(val)
			if err != nil {
				return cfg, errors.Errorf("could not cast value %s=%s to Bool", envName, val)
			}
			field.SetBool(b)
		}
	}

	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// ApplyDefaults - fills in anything left empty
func (cfg *ConverterConfig) ApplyDefaults() {
	if len(cfg.OutputFormats) <= 0 {
		cfg.OutputFormats = []string{OutputFormatTIFF}
	}
	if len(cfg.MetadataFormat) <= 0 {
		cfg.MetadataFormat = MetadataFormatJSON
	}
	if len(cfg.LogLevel) <= 0 {
		cfg.LogLevel = logger.GetLogLevelName(logger.LogInfo)
	}
	if cfg.QuicklookMaxWidth <= 0 {
		cfg.QuicklookMaxWidth = 1024
	}
	if len(cfg.MongoDatabase) <= 0 {
		cfg.MongoDatabase = "msat"
	}
}

// Validate - checks values are ones we know about
func (cfg ConverterConfig) Validate() error {
	for _, f := range cfg.OutputFormats {
		if !utils.ItemInSlice(f, []string{OutputFormatTIFF, OutputFormatPNG}) {
			return fmt.Errorf("unknown output format: %v", f)
		}
	}
	if !utils.ItemInSlice(cfg.MetadataFormat, []string{MetadataFormatJSON, MetadataFormatProto}) {
		return fmt.Errorf("unknown metadata format: %v", cfg.MetadataFormat)
	}
	for _, b := range cfg.DerivedBands {
		if !utils.ItemInSlice(b, []string{DerivedReflectance, DerivedSatZA, DerivedCosSolZA, DerivedJDay}) {
			return fmt.Errorf("unknown derived band: %v", b)
		}
	}
	if _, err := logger.GetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// GetLogLevel - parsed LogLevel, config has been validated so this can't fail
func (cfg ConverterConfig) GetLogLevel() logger.LogLevel {
	level, err := logger.GetLogLevel(cfg.LogLevel)
	if err != nil {
		return logger.LogInfo
	}
	return level
}

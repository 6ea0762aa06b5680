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

package export

import (
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/meteosatlib/msat/core/facts"
	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/projection"
	"github.com/meteosatlib/msat/core/satimage"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Metadata - everything about an exported raster that isn't pixels. Written next to it as
// JSON or as a protobuf Struct. Physical value = raw*Slope+Offset, raw MissingRaw is missing
type Metadata struct {
	Time         time.Time `json:"time"`
	SpacecraftID int       `json:"spacecraftId"`
	Spacecraft   string    `json:"spacecraft"`
	ChannelID    int       `json:"channelId"`
	Channel      string    `json:"channel"`
	Units        string    `json:"units,omitempty"`

	Projection   string    `json:"projection"`
	GeoTransform []float64 `json:"geoTransform"`
	ColumnRes    float64   `json:"columnRes"`
	LineRes      float64   `json:"lineRes"`
	ColumnOffset int       `json:"columnOffset"`
	LineOffset   int       `json:"lineOffset"`
	X0           int       `json:"x0"`
	Y0           int       `json:"y0"`
	Columns      int       `json:"columns"`
	Lines        int       `json:"lines"`

	Slope      float64 `json:"slope"`
	Offset     float64 `json:"offset"`
	MissingRaw int     `json:"missingRaw"`

	History     string `json:"history,omitempty"`
	Institution string `json:"institution,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Sidecar file extensions
const (
	MetadataExtJSON  = ".json"
	MetadataExtProto = ".pb"
)

func MetadataFromImage(img *satimage.Image) Metadata {
	columns, lines := img.Size()
	gt := img.GeoTransform()

	return Metadata{
		Time:         img.Time.UTC(),
		SpacecraftID: img.SpacecraftID,
		Spacecraft:   img.SpacecraftName(),
		ChannelID:    img.ChannelID,
		Channel:      img.ChannelName(),
		Units:        facts.ChannelUnits(img.ChannelID),
		Projection:   img.ProjectionRef(),
		GeoTransform: gt[:],
		ColumnRes:    img.ColumnRes,
		LineRes:      img.LineRes,
		ColumnOffset: img.ColumnOffset,
		LineOffset:   img.LineOffset,
		X0:           img.X0,
		Y0:           img.Y0,
		Columns:      columns,
		Lines:        lines,
		History:      img.History,
	}
}

// Image - image with our metadata and the given data
func (m Metadata) Image(data satimage.ImageData) (*satimage.Image, error) {
	proj, err := projection.Parse(m.Projection)
	if err != nil {
		return nil, err
	}

	img := &satimage.Image{
		Time:         m.Time,
		ChannelID:    m.ChannelID,
		SpacecraftID: m.SpacecraftID,
		Proj:         proj,
		ColumnRes:    m.ColumnRes,
		LineRes:      m.LineRes,
		ColumnOffset: m.ColumnOffset,
		LineOffset:   m.LineOffset,
		X0:           m.X0,
		Y0:           m.Y0,
		History:      m.History,
	}
	img.SetData(data)
	return img, nil
}

// EncodeMetadataProto - metadata as a serialised structpb.Struct. The time goes in as
// timestamp seconds and nanos
func EncodeMetadataProto(m Metadata) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}

	ts := timestamppb.New(m.Time)
	delete(fields, "time")
	fields["timeSeconds"] = float64(ts.GetSeconds())
	fields["timeNanos"] = float64(ts.GetNanos())

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func DecodeMetadataProto(data []byte) (Metadata, error) {
	var m Metadata

	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return m, errors.Wrap(err, "metadata")
	}

	fields := s.AsMap()
	secs, _ := fields["timeSeconds"].(float64)
	nanos, _ := fields["timeNanos"].(float64)
	delete(fields, "timeSeconds")
	delete(fields, "timeNanos")

	ts := &timestamppb.Timestamp{Seconds: int64(secs), Nanos: int32(nanos)}
	if err := ts.CheckValid(); err != nil {
		return m, errors.Wrap(err, "metadata time")
	}

	b, err := json.Marshal(fields)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, errors.Wrap(err, "metadata")
	}
	m.Time = ts.AsTime()
	return m, nil
}

// WriteMetadata - writes the sidecar for basePath (path without extension) in the given format,
// returns the path written
func WriteMetadata(fs fileaccess.FileAccess, bucket string, basePath string, m Metadata, format string) (string, error) {
	switch format {
	case "proto":
		data, err := EncodeMetadataProto(m)
		if err != nil {
			return "", err
		}
		p := basePath + MetadataExtProto
		return p, fs.WriteObject(bucket, p, data)
	case "", "json":
		p := basePath + MetadataExtJSON
		return p, fs.WriteJSON(bucket, p, m)
	}
	return "", errors.Errorf("unknown metadata format: %v", format)
}

// ReadMetadata - reads a sidecar written by WriteMetadata, the format comes from the extension
func ReadMetadata(fs fileaccess.FileAccess, bucket string, metaPath string) (Metadata, error) {
	var m Metadata

	switch strings.ToLower(path.Ext(metaPath)) {
	case MetadataExtJSON:
		err := fs.ReadJSON(bucket, metaPath, &m, false)
		return m, err
	case MetadataExtProto:
		data, err := fs.ReadObject(bucket, metaPath)
		if err != nil {
			return m, err
		}
		return DecodeMetadataProto(data)
	}
	return m, errors.Errorf("not a metadata file: %v", metaPath)
}

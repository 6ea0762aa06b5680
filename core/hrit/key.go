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

package hrit

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

const TimestampFormat = "200601021504"

// SegmentKey - identifies one product: all the segments of one channel of one repeat cycle,
// plus the prologue and epilogue
type SegmentKey struct {
	Dir        string // Directory/prefix the files are in
	Resolution string // H or L
	ProductID1 string // eg MSG1
	ProductID2 string // eg VIS006
	Timestamp  string // YYYYMMDDhhmm
}

// ParseSegmentKey - reads keys like H:MSG1:VIS006:200611141200, optionally preceded by a
// directory: /data/hrit/H:MSG1:VIS006:200611141200
func ParseSegmentKey(s string) (SegmentKey, error) {
	dir, name := path.Split(s)

	parts := strings.Split(name, ":")
	if len(parts) != 4 {
		return SegmentKey{}, fmt.Errorf("segment key %v does not look like H:MSG1:VIS006:200611141200", s)
	}

	key := SegmentKey{
		Dir:        strings.TrimSuffix(dir, "/"),
		Resolution: parts[0],
		ProductID1: parts[1],
		ProductID2: parts[2],
		Timestamp:  parts[3],
	}
	return key, key.Validate()
}

func (k SegmentKey) Validate() error {
	if k.Resolution != "H" && k.Resolution != "L" {
		return fmt.Errorf("resolution must be H or L, got %v", k.Resolution)
	}
	if len(k.ProductID1) <= 0 || len(k.ProductID1) > 12 {
		return fmt.Errorf("bad product id 1: %v", k.ProductID1)
	}
	if len(k.ProductID2) <= 0 || len(k.ProductID2) > 9 {
		return fmt.Errorf("bad product id 2: %v", k.ProductID2)
	}
	if _, err := k.Time(); err != nil {
		return err
	}
	return nil
}

// String - key without the directory
func (k SegmentKey) String() string {
	return strings.Join([]string{k.Resolution, k.ProductID1, k.ProductID2, k.Timestamp}, ":")
}

func (k SegmentKey) Time() (time.Time, error) {
	t, err := time.Parse(TimestampFormat, k.Timestamp)
	if err != nil {
		return t, errors.Wrapf(err, "bad timestamp %v", k.Timestamp)
	}
	return t, nil
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[0:n]
	}
	return s + strings.Repeat("_", n-len(s))
}

// File names look like H-000-MSG1__-MSG1________-VIS006___-000001___-200611141200-__
// disseminating spacecraft, product id 1, product id 2, segment, time, flags (C_ if compressed)

func (k SegmentKey) fileName(productID2 string, segment string, compressed bool) string {
	flags := "__"
	if compressed {
		flags = "C_"
	}
	return strings.Join([]string{k.Resolution, "000", pad(k.ProductID1, 6), pad(k.ProductID1, 12), pad(productID2, 9), pad(segment, 9), k.Timestamp, flags}, "-")
}

func (k SegmentKey) pattern(productID2 string, segment string) string {
	return strings.Join([]string{k.Resolution, "???", "??????", pad(k.ProductID1, 12), productID2, segment, k.Timestamp, "??"}, "-")
}

// SegmentFileName - name of segment number seq
func (k SegmentKey) SegmentFileName(seq int) string {
	return k.fileName(k.ProductID2, fmt.Sprintf("%06d", seq), false)
}

func (k SegmentKey) PrologueFileName() string {
	return k.fileName("", "PRO", false)
}

func (k SegmentKey) EpilogueFileName() string {
	return k.fileName("", "EPI", false)
}

func (k SegmentKey) prologuePattern() string {
	return k.pattern(pad("", 9), pad("PRO", 9))
}

func (k SegmentKey) epiloguePattern() string {
	return k.pattern(pad("", 9), pad("EPI", 9))
}

func (k SegmentKey) segmentPattern() string {
	return k.pattern(pad(k.ProductID2, 9), "??????___")
}

// KeyFromFileName - the key of the product a segment/prologue/epilogue file belongs to. For
// prologues and epilogues the channel isn't in the name, so ProductID2 is left empty
func KeyFromFileName(filePath string) (SegmentKey, error) {
	dir, name := path.Split(filePath)
	parts := strings.Split(name, "-")
	if len(parts) != 8 || len(parts[0]) != 1 {
		return SegmentKey{}, fmt.Errorf("%v is not an HRIT file name", name)
	}

	key := SegmentKey{
		Dir:        strings.TrimSuffix(dir, "/"),
		Resolution: parts[0],
		ProductID1: strings.TrimRight(parts[3], "_"),
		ProductID2: strings.TrimRight(parts[4], "_"),
		Timestamp:  parts[6],
	}
	if _, err := key.Time(); err != nil {
		return key, err
	}
	return key, nil
}

// IsEpilogueFileName - does this look like the name of an epilogue, which is the last file of a product to arrive
func IsEpilogueFileName(filePath string) bool {
	_, name := path.Split(filePath)
	parts := strings.Split(name, "-")
	return len(parts) == 8 && parts[5] == pad("EPI", 9)
}

// FindProducts - keys of the products whose segments are directly inside dir, sorted. Only
// products with at least one image segment are listed
func FindProducts(fs fileaccess.FileAccess, bucket string, dir string) ([]SegmentKey, error) {
	files, err := fileaccess.MatchObjects(fs, bucket, dir, "?-???-*")
	if err != nil {
		return nil, err
	}

	found := map[string]SegmentKey{}
	for _, f := range files {
		key, err := KeyFromFileName(f)
		if err != nil || len(key.ProductID2) <= 0 {
			continue
		}
		found[key.String()] = key
	}

	result := []SegmentKey{}
	for _, k := range utils.GetSortedMapKeys(found) {
		result = append(result, found[k])
	}
	return result, nil
}

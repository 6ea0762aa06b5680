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

package fileaccess

// Generic interface for reading/writing the objects we convert. Segment files, prologues,
// epilogues and exported rasters may live on the local file system or in an S3 bucket, so
// importers and exporters code against this interface rather than the os package.

// The "bucket" is the drive/root directory for local access, or the bucket name for S3.

type FileAccess interface {
	ListObjects(bucket string, prefix string) ([]string, error)

	ObjectExists(bucket string, path string) (bool, error)

	ReadObject(bucket string, path string) ([]byte, error)
	// Reads length bytes starting at offset. HRIT segment headers are read this way so
	// we don't pull whole segment files just to find their sequence numbers.
	// Returns fewer bytes (no error) if the object is shorter than offset+length
	ReadObjectRange(bucket string, path string, offset int64, length int64) ([]byte, error)
	WriteObject(bucket string, path string, data []byte) error

	ReadJSON(bucket string, s3Path string, itemsPtr interface{}, emptyIfNotFound bool) error
	WriteJSON(bucket string, s3Path string, itemsPtr interface{}) error

	IsNotFoundError(err error) bool
}

// SplitLocation - turns a location given on a command line or in config into (bucket, path)
// and tells us if it refers to S3. "s3://bucket/some/path" => ("bucket", "some/path", true),
// anything else is a local path, and is returned as the bucket with an empty path
func SplitLocation(location string) (string, string, bool) {
	if bucket, p, err := parseS3Url(location); err == nil {
		return bucket, p, true
	}
	return location, "", false
}

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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/meteosatlib/msat/core/utils"
	"github.com/pkg/errors"
)

// Content types of what we write, by extension. Anything else (segment copies in tests)
// goes up as a plain binary object
var contentTypes = map[string]string{
	".tif":  "image/tiff",
	".png":  "image/png",
	".json": "application/json",
	".pb":   "application/x-protobuf",
}

const defaultContentType = "application/octet-stream"

// S3Access - segments and exports in an S3 bucket. Segment headers are fetched with ranged
// GETs, whole segments only when their pixels are needed
type S3Access struct {
	s3Api s3iface.S3API
}

func MakeS3Access(s3Api s3iface.S3API) S3Access {
	return S3Access{s3Api: s3Api}
}

// ListObjects - every key under prefix, across as many listing pages as S3 sends. Folder
// placeholder keys (ending in /) are left out
func (s3Access S3Access) ListObjects(bucket string, prefix string) ([]string, error) {
	result := []string{}

	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	err := s3Access.s3Api.ListObjectsV2Pages(params, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, item := range page.Contents {
			if item.Key != nil && !strings.HasSuffix(*item.Key, "/") {
				result = append(result, *item.Key)
			}
		}
		return true
	})
	if err != nil {
		return []string{}, errors.Wrapf(err, "failed to list s3://%v/%v", bucket, prefix)
	}
	return result, nil
}

func (s3Access S3Access) ObjectExists(bucket string, path string) (bool, error) {
	_, err := s3Access.s3Api.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}
	if s3Access.IsNotFoundError(err) {
		return false, nil
	}
	return false, err
}

func (s3Access S3Access) get(input *s3.GetObjectInput) ([]byte, error) {
	result, err := s3Access.s3Api.GetObject(input)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (s3Access S3Access) ReadObject(bucket string, path string) ([]byte, error) {
	return s3Access.get(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
}

func (s3Access S3Access) ReadObjectRange(bucket string, path string, offset int64, length int64) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}

	data, err := s3Access.get(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		// HTTP ranges are inclusive
		Range: aws.String(fmt.Sprintf("bytes=%v-%v", offset, offset+length-1)),
	})
	if err != nil {
		return nil, err
	}

	// Some S3 compatible stores ignore Range and send the lot
	if int64(len(data)) > length {
		data = data[0:length]
	}
	return data, nil
}

// WriteObject - puts data with a content type matching the extension, so exported
// quicklooks and rasters open directly from the console
func (s3Access S3Access) WriteObject(bucket string, objectPath string, data []byte) error {
	contentType, ok := contentTypes[strings.ToLower(path.Ext(objectPath))]
	if !ok {
		contentType = defaultContentType
	}

	_, err := s3Access.s3Api.PutObject(&s3.PutObjectInput{
		Body:        bytes.NewReader(data),
		Bucket:      aws.String(bucket),
		Key:         aws.String(objectPath),
		ContentType: aws.String(contentType),
	})
	return err
}

func (s3Access S3Access) ReadJSON(bucket string, s3Path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := s3Access.ReadObject(bucket, s3Path)
	if err != nil {
		if emptyIfNotFound && s3Access.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (s3Access S3Access) WriteJSON(bucket string, s3Path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return s3Access.WriteObject(bucket, s3Path, fileData)
}

// IsNotFoundError - GET on a missing key says NoSuchKey, HEAD just says NotFound
func (s3Access S3Access) IsNotFoundError(err error) bool {
	if aerr, ok := errors.Cause(err).(awserr.Error); ok {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}

// parseS3Url - "s3://bucket/some/path/" => ("bucket", "some/path"). The path may be empty
func parseS3Url(url string) (string, string, error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	if trimmed == url {
		return "", "", fmt.Errorf("not an S3 url: %v", url)
	}

	bucket, objectPath, _ := strings.Cut(trimmed, "/")
	if len(bucket) <= 0 {
		return "", "", fmt.Errorf("no bucket in S3 url: %v", url)
	}
	return bucket, strings.TrimSuffix(objectPath, "/"), nil
}

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
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meteosatlib/msat/core/utils"
)

// Implementation of file access using local file system
type FSAccess struct {
}

func (fsa *FSAccess) ListObjects(rootPath string, prefix string) ([]string, error) {
	result := []string{}

	rootOnly := path.Join(rootPath) // Using path.Join to make it match the fullPath cleans off ./ for example

	// A root that doesn't exist simply has nothing in it, same as an empty S3 prefix
	if _, err := os.Stat(rootOnly); err != nil && errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}

	err := filepath.Walk(rootOnly, func(pathFound string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			// pathFound contains the root directory, so we chop it off
			toSave := filepath.ToSlash(pathFound)
			if rootOnly != "." && strings.HasPrefix(toSave, rootOnly) {
				toSave = strings.TrimPrefix(toSave[len(rootOnly):], "/")
			}
			if strings.HasPrefix(toSave, prefix) {
				result = append(result, toSave)
			}
		}
		return nil
	})

	return result, err
}

func (fsa *FSAccess) ObjectExists(rootPath string, path string) (bool, error) {
	_, err := os.Stat(fsa.filePath(rootPath, path))
	if err == nil {
		return true, nil
	}
	if fsa.IsNotFoundError(err) {
		return false, nil
	}
	return false, err
}

func (fsa *FSAccess) ReadObject(rootPath string, path string) ([]byte, error) {
	fullPath := fsa.filePath(rootPath, path)
	return os.ReadFile(fullPath)
}

func (fsa *FSAccess) ReadObjectRange(rootPath string, path string, offset int64, length int64) ([]byte, error) {
	f, err := os.Open(fsa.filePath(rootPath, path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return buf[0:n], nil
}

func (fsa *FSAccess) WriteObject(rootPath string, path string, data []byte) error {
	fullPath := fsa.filePath(rootPath, path)

	// Ensure any subdirs in between are created
	createPath := filepath.Dir(fullPath)
	err := os.MkdirAll(createPath, 0777)
	if err != nil {
		return err
	}

	// Write the file out, this will create if needed else truncate and write
	return os.WriteFile(fullPath, data, 0666)
}

func (fsa *FSAccess) ReadJSON(rootPath string, s3Path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := fsa.ReadObject(rootPath, s3Path)

	// If we got an error, and it's a not found, and we're told to ignore these and return empty data, then do so
	if err != nil {
		if emptyIfNotFound && fsa.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func (fsa *FSAccess) WriteJSON(rootPath string, s3Path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return fsa.WriteObject(rootPath, s3Path, fileData)
}

func (fsa *FSAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (fsa *FSAccess) filePath(rootPath string, filePath string) string {
	return path.Join(rootPath, filePath)
}

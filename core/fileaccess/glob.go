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
	"path"
	"sort"
	"strings"
)

// MatchObjects - lists the objects directly inside dir (no recursion into sub-directories)
// whose file name matches the shell pattern, as understood by path.Match. Works the same for
// local and S3 access, which is why we don't use filepath.Glob. Returned paths are relative
// to the bucket and sorted.
func MatchObjects(fs FileAccess, bucket string, dir string, pattern string) ([]string, error) {
	// Validate the pattern up front, path.Match only reports this when it gets to the bad part
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	prefix := ""
	if len(dir) > 0 && dir != "." {
		prefix = strings.TrimSuffix(dir, "/") + "/"
	}

	items, err := fs.ListObjects(bucket, prefix)
	if err != nil {
		return nil, err
	}

	result := []string{}
	for _, item := range items {
		if !strings.HasPrefix(item, prefix) {
			continue
		}

		name := item[len(prefix):]
		if strings.Contains(name, "/") {
			continue
		}

		if ok, _ := path.Match(pattern, name); ok {
			result = append(result, item)
		}
	}

	sort.Strings(result)
	return result, nil
}

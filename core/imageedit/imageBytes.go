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

package imageedit

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// GetImageBytes - encodes img as "png" or "jpeg"
func GetImageBytes(img image.Image, imgFormat string) ([]byte, error) {
	var b bytes.Buffer
	writer := bufio.NewWriter(&b)

	var err error
	if imgFormat == "png" {
		err = png.Encode(writer, img)
	} else if imgFormat == "jpeg" {
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: 90})
	} else {
		err = fmt.Errorf("unexpected image format: %v", imgFormat)
	}

	if err != nil {
		return nil, err
	}

	err = writer.Flush()
	if err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// MakeGrayImage - 8 bit gray image from one byte per pixel, row by row
func MakeGrayImage(width int, height int, data []byte) *image.Gray {
	i := image.NewGray(image.Rect(0, 0, width, height))
	copy(i.Pix, data)
	return i
}

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
	"path"

	"github.com/meteosatlib/msat/core/fileaccess"
	"github.com/pkg/errors"
)

type ProductSegment struct {
	Spec    SegmentSpec
	Samples []uint16
}

// Product - everything needed to write out the files of one product
type Product struct {
	Prologue Prologue
	Epilogue Epilogue
	Segments []ProductSegment
}

// WriteProduct - writes the prologue, epilogue and segments of a product, named as key says.
// Segment files are named by their sequence number
func WriteProduct(fs fileaccess.FileAccess, bucket string, key SegmentKey, product Product) error {
	if err := key.Validate(); err != nil {
		return err
	}

	if err := fs.WriteObject(bucket, path.Join(key.Dir, key.PrologueFileName()), EncodePrologue(product.Prologue)); err != nil {
		return err
	}

	for _, seg := range product.Segments {
		data, err := EncodeSegment(seg.Spec, seg.Samples)
		if err != nil {
			return errors.Wrapf(err, "segment %v", seg.Spec.SeqNo)
		}
		if err := fs.WriteObject(bucket, path.Join(key.Dir, key.SegmentFileName(seg.Spec.SeqNo)), data); err != nil {
			return err
		}
	}

	// Epilogue last, its arrival means the product is complete
	return fs.WriteObject(bucket, path.Join(key.Dir, key.EpilogueFileName()), EncodeEpilogue(product.Epilogue))
}

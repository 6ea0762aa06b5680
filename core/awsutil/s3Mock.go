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

package awsutil

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MockS3Client - mock S3 client for unit tests. Don't forget to call FinishTest() at the end of your test to check
// that all calls to S3 were made, and there were no unexpected calls!
type MockS3Client struct {
	mutex sync.Mutex

	s3iface.S3API

	// Expected requests
	ExpListObjectsV2Input []s3.ListObjectsV2Input
	ExpGetObjectInput     []s3.GetObjectInput
	ExpHeadObjectInput    []s3.HeadObjectInput
	ExpPutObjectInput     []s3.PutObjectInput

	// Responses replayed as each request comes in. A nil response is returned as an error
	QueuedListObjectsV2Output []*s3.ListObjectsV2Output
	QueuedGetObjectOutput     []*s3.GetObjectOutput
	QueuedHeadObjectOutput    []*s3.HeadObjectOutput
	QueuedPutObjectOutput     []*s3.PutObjectOutput

	// Segment headers are read by several goroutines, so gets can arrive in any order
	AllowGetInAnyOrder bool
}

const ErrNoMoreInputsExpected = "No more inputs expected for "
const ErrWrongInput = "Incorrect input in "
const ErrNothingToReturn = "Nothing to return from "
const ErrReturningError = "Returning error from "

// NOTE: This function MUST be called at the end of a unit test/example test. Use defer when declaring MockS3Client!
func (m *MockS3Client) FinishTest() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.getFinishTestResult()

	// If we found something unexpected, print an error so any example tests get this in their input
	// Unit tests which aren't example based will still get our return value
	if err != nil {
		fmt.Println(err)
	}

	return err
}

func (m *MockS3Client) getFinishTestResult() error {
	remaining := []struct {
		name string
		exp  int
		out  int
	}{
		{"ListObjectsV2", len(m.ExpListObjectsV2Input), len(m.QueuedListObjectsV2Output)},
		{"GetObject", len(m.ExpGetObjectInput), len(m.QueuedGetObjectOutput)},
		{"HeadObject", len(m.ExpHeadObjectInput), len(m.QueuedHeadObjectOutput)},
		{"PutObject", len(m.ExpPutObjectInput), len(m.QueuedPutObjectOutput)},
	}

	for _, r := range remaining {
		if r.exp > 0 {
			return fmt.Errorf("Test expected more %v calls to func", r.name)
		}
		if r.out > 0 {
			return fmt.Errorf("Remaining output %v for func", r.name)
		}
	}
	return nil
}

// popExpected - checks input against the next expected one (or any expected one if anyOrder), removes it
// and returns the matching queued output
func popExpected[I fmt.Stringer, O any](name string, input I, expList *[]I, outputs *[]*O, anyOrder bool) (*O, error) {
	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	inpStr := input.String()
	idx := 0

	if anyOrder {
		idx = -1
		for c, expItem := range *expList {
			if expItem.String() == inpStr {
				idx = c
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%v no expected input matched S3 recvd: \"%v\"\n", ErrWrongInput+name, inpStr)
		}
	} else if expStr := (*expList)[0].String(); expStr != inpStr {
		*expList = (*expList)[1:]
		return nil, fmt.Errorf("%v expected: \"%v\" S3 recvd: \"%v\"\n", ErrWrongInput+name, expStr, inpStr)
	}

	*expList = append((*expList)[:idx], (*expList)[idx+1:]...)

	if len(*outputs) <= idx {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := (*outputs)[idx]
	*outputs = append((*outputs)[:idx], (*outputs)[idx+1:]...)
	return result, nil
}

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result, err := popExpected("ListObjectsV2", *input, &m.ExpListObjectsV2Input, &m.QueuedListObjectsV2Output, false)
	if err == nil && result == nil {
		err = errors.New(ErrReturningError + "ListObjectsV2")
	}
	return result, err
}

// ListObjectsV2Pages - pages through ListObjectsV2 the way the SDK does, so each page is
// still checked against the expected inputs
func (m *MockS3Client) ListObjectsV2Pages(input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool) error {
	params := *input
	for {
		page, err := m.ListObjectsV2(&params)
		if err != nil {
			return err
		}

		lastPage := page.IsTruncated == nil || !*page.IsTruncated || page.NextContinuationToken == nil
		if !fn(page, lastPage) || lastPage {
			return nil
		}
		params.ContinuationToken = page.NextContinuationToken
	}
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result, err := popExpected("GetObject", *input, &m.ExpGetObjectInput, &m.QueuedGetObjectOutput, m.AllowGetInAnyOrder)
	if err == nil && result == nil {
		err = awserr.New(s3.ErrCodeNoSuchKey, ErrReturningError+"GetObject", nil)
	}
	return result, err
}

func (m *MockS3Client) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result, err := popExpected("HeadObject", *input, &m.ExpHeadObjectInput, &m.QueuedHeadObjectOutput, false)
	if err == nil && result == nil {
		// What S3 gives back for HEAD on a missing key
		err = awserr.New("NotFound", ErrReturningError+"HeadObject", nil)
	}
	return result, err
}

func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "PutObject"
	if len(m.ExpPutObjectInput) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	expItem := m.ExpPutObjectInput[0]
	m.ExpPutObjectInput = m.ExpPutObjectInput[1:]

	// Bodies are readers so the String() compare doesn't see them, check fields explicitly
	if *input.Bucket != *expItem.Bucket {
		return nil, fmt.Errorf("%v %v - bucket\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, *expItem.Bucket, *input.Bucket)
	}
	if *input.Key != *expItem.Key {
		return nil, fmt.Errorf("%v %v - key\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, *expItem.Key, *input.Key)
	}
	if expItem.ContentType != nil && (input.ContentType == nil || *input.ContentType != *expItem.ContentType) {
		return nil, fmt.Errorf("%v %v - content type\nexpected: \"%v\"\nS3 recvd: \"%v\"\n", ErrWrongInput, name, *expItem.ContentType, aws.StringValue(input.ContentType))
	}
	if expItem.Body != nil {
		inpBody := getAsStr(input.Body)
		expBody := getAsStr(expItem.Body)
		if inpBody != expBody {
			return nil, fmt.Errorf("%v %v - body\nexpected: %v bytes\nS3 recvd: %v bytes\n", ErrWrongInput, name, len(expBody), len(inpBody))
		}
	}

	if len(m.QueuedPutObjectOutput) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := m.QueuedPutObjectOutput[0]
	m.QueuedPutObjectOutput = m.QueuedPutObjectOutput[1:]

	if result == nil {
		return nil, errors.New(ErrReturningError + name)
	}
	return result, nil
}

func getAsStr(r io.Reader) string {
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "ERROR GETTING DATA"
	}
	return string(data)
}

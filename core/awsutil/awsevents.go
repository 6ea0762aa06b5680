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
	"encoding/json"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// Segment files arrive in the bucket directly (S3 notification), or via an SNS topic or SQS queue
// that wraps the S3 notification. Event decodes any of these into the S3 objects they refer to.

type eventType int

const (
	unknownEventType eventType = iota
	s3EventType
	snsEventType
	sqsEventType
)

// S3Object - bucket+key of an object that an event told us about
type S3Object struct {
	Bucket string
	Key    string
}

type Event struct {
	EventSource string
	Objects     []S3Object
}

// getEventType - Get the event type from the stream
func (event *Event) getEventType(data []byte) eventType {
	temp := struct {
		Records []map[string]interface{}
	}{}
	if err := json.Unmarshal(data, &temp); err != nil || len(temp.Records) <= 0 {
		return unknownEventType
	}

	record := temp.Records[0]

	var eventSource string
	if es, ok := record["EventSource"].(string); ok {
		eventSource = es
	} else if es, ok := record["eventSource"].(string); ok {
		eventSource = es
	}

	switch eventSource {
	case "aws:s3":
		return s3EventType
	case "aws:sns":
		return snsEventType
	case "aws:sqs":
		return sqsEventType
	}

	return unknownEventType
}

func (event *Event) addS3Records(s3Event *events.S3Event) error {
	if len(s3Event.Records) == 0 {
		return errors.New("S3 Event Records is empty")
	}

	for _, s3Record := range s3Event.Records {
		// Keys in notifications are URL encoded (spaces come through as +)
		key, err := url.QueryUnescape(s3Record.S3.Object.Key)
		if err != nil {
			return errors.Wrapf(err, "Failed to decode S3 key: %v", s3Record.S3.Object.Key)
		}
		event.Objects = append(event.Objects, S3Object{Bucket: s3Record.S3.Bucket.Name, Key: key})
	}
	return nil
}

// UnmarshalJSON - Decode the JSON to the correct Event type
func (event *Event) UnmarshalJSON(data []byte) error {
	event.Objects = []S3Object{}

	switch event.getEventType(data) {
	case s3EventType:
		event.EventSource = "aws:s3"
		s3Event := &events.S3Event{}
		if err := json.Unmarshal(data, s3Event); err != nil {
			return err
		}
		return event.addS3Records(s3Event)

	case snsEventType:
		event.EventSource = "aws:sns"
		snsEvent := &events.SNSEvent{}
		if err := json.Unmarshal(data, snsEvent); err != nil {
			return err
		}
		for _, snsRecord := range snsEvent.Records {
			s3Event := &events.S3Event{}
			if err := json.Unmarshal([]byte(snsRecord.SNS.Message), s3Event); err != nil {
				return errors.Wrap(err, "Failed to decode sns message to an S3 event")
			}
			if err := event.addS3Records(s3Event); err != nil {
				return err
			}
		}
		return nil

	case sqsEventType:
		event.EventSource = "aws:sqs"
		sqsEvent := &events.SQSEvent{}
		if err := json.Unmarshal(data, sqsEvent); err != nil {
			return err
		}
		for _, sqsRecord := range sqsEvent.Records {
			s3Event := &events.S3Event{}
			if err := json.Unmarshal([]byte(sqsRecord.Body), s3Event); err != nil {
				return errors.Wrap(err, "Failed to decode sqs body to an S3 event")
			}
			if err := event.addS3Records(s3Event); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.New("Unknown event type")
}

// Package errors provides the error types surfaced by the data source.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMissingParameter = errors.New("dicomjson: missing required parameter")
	ErrMalformedPayload = errors.New("dicomjson: malformed study payload")
	ErrEncoding         = errors.New("dicomjson: encoding failed")
	ErrStoreFailed      = errors.New("dicomjson: store failed")
	ErrFetchFailed      = errors.New("dicomjson: fetch failed")
	ErrStudyNotFound    = errors.New("dicomjson: study not cached")
)

// ParseError reports an inbound JSON payload that could not be indexed.
type ParseError struct {
	URL string
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.URL, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.URL, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedPayload.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// NewParseError creates a new parse error
func NewParseError(url, msg string, err error) *ParseError {
	return &ParseError{
		URL: url,
		Msg: msg,
		Err: err,
	}
}

// MissingParameterError reports a required identifier that was not supplied.
type MissingParameterError struct {
	Param     string
	Operation string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("unable to %s without %s", e.Operation, e.Param)
}

// Is matches ErrMissingParameter.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// NewMissingParameterError creates a new missing parameter error
func NewMissingParameterError(operation, param string) *MissingParameterError {
	return &MissingParameterError{
		Param:     param,
		Operation: operation,
	}
}

// EncodingError reports a failure converting a dataset to Part10 bytes.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error during %s: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is matches ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// NewEncodingError creates a new encoding error
func NewEncodingError(op string, err error) *EncodingError {
	return &EncodingError{
		Op:  op,
		Err: err,
	}
}

// StoreError reports a non-success response from the upload endpoint.
type StoreError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot store instance at %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("cannot store instance at %s (status: %d)", e.Endpoint, e.StatusCode)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrStoreFailed.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailed
}

// NewStoreError creates a new store error
func NewStoreError(endpoint string, statusCode int, err error) *StoreError {
	return &StoreError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Err:        err,
	}
}

// FetchError reports a failed retrieval of a study payload.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewFetchError creates a new fetch error
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

package service

import "errors"

// ErrResponseParse is returned when the cleaned completion is not valid JSON
var ErrResponseParse = errors.New("failed to parse meal plan from completion response")

package narrative

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Class buckets text provider failures for retry decisions.
type Class string

const (
	ClassNone       Class = ""
	ClassOverloaded Class = "overloaded"
	ClassQuota      Class = "quota"
	ClassAuth       Class = "auth"
	ClassUnknown    Class = "unknown"
)

type statusCoder interface {
	StatusCode() int
}

// Classify maps a provider error to a Class using its HTTP-like status when
// available and the message otherwise.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	status := statusOf(err)
	msg := strings.ToLower(err.Error())

	switch {
	case status == http.StatusServiceUnavailable,
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "overloaded"):
		return ClassOverloaded
	case status == http.StatusTooManyRequests, strings.Contains(msg, "quota"):
		return ClassQuota
	case status == http.StatusUnauthorized, strings.Contains(msg, "unauthorized"):
		return ClassAuth
	default:
		return ClassUnknown
	}
}

// Retryable reports whether err is worth another attempt. Only overload is.
func Retryable(err error) bool {
	return Classify(err) == ClassOverloaded
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	var coded statusCoder
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return 0
}

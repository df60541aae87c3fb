package narrative

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

type codedErr struct{ code int }

func (e codedErr) Error() string   { return "provider failed" }
func (e codedErr) StatusCode() int { return e.code }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"genai 503", genai.APIError{Code: 503}, ClassOverloaded},
		{"genai pointer 429", &genai.APIError{Code: 429}, ClassQuota},
		{"wrapped genai 401", fmt.Errorf("call: %w", genai.APIError{Code: 401}), ClassAuth},
		{"status coder 503", codedErr{code: 503}, ClassOverloaded},
		{"message service unavailable", errors.New("upstream: Service Unavailable"), ClassOverloaded},
		{"message overloaded", errors.New("The model is overloaded. Please try again later."), ClassOverloaded},
		{"message quota", errors.New("Quota exceeded for metric"), ClassQuota},
		{"message unauthorized", errors.New("Unauthorized"), ClassAuth},
		{"other status", genai.APIError{Code: 500, Message: "internal"}, ClassUnknown},
		{"plain", errors.New("connection reset"), ClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestRetryableOnlyForOverload(t *testing.T) {
	if !Retryable(genai.APIError{Code: 503}) {
		t.Fatalf("503 should be retryable")
	}
	for _, err := range []error{genai.APIError{Code: 429}, genai.APIError{Code: 401}, errors.New("boom")} {
		if Retryable(err) {
			t.Fatalf("%v should not be retryable", err)
		}
	}
}

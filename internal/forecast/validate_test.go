package forecast

import (
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestValidateRequest(t *testing.T) {
	neg := -1.0
	from := types.NewDate(2024, time.March, 10)
	to := types.NewDate(2024, time.March, 1)

	cases := []struct {
		name      string
		req       ForecastRequest
		wantField string
	}{
		{"missing product", ForecastRequest{Days: intPtr(5)}, "productId"},
		{"blank product", ForecastRequest{ProductID: "   ", Days: intPtr(5)}, "productId"},
		{"missing days", ForecastRequest{ProductID: "p"}, "days"},
		{"zero days", ForecastRequest{ProductID: "p", Days: intPtr(0)}, "days"},
		{"too many days", ForecastRequest{ProductID: "p", Days: intPtr(366)}, "days"},
		{"negative price", ForecastRequest{ProductID: "p", Days: intPtr(5), SellingPrice: &neg}, "sellingPrice"},
		{"bad scenario", ForecastRequest{ProductID: "p", Days: intPtr(5), Scenario: "bullish"}, "scenario"},
		{"inverted range", ForecastRequest{ProductID: "p", Days: intPtr(5), DateFrom: &from, DateTo: &to}, "dateFrom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			details, ok := typed.Details().(map[string]string)
			if !ok {
				t.Fatalf("expected details map, got %T", typed.Details())
			}
			if _, ok := details[tc.wantField]; !ok {
				t.Fatalf("expected %s in details, got %v", tc.wantField, details)
			}
		})
	}
}

func TestValidateRequestAcceptsBounds(t *testing.T) {
	for _, days := range []int{MinDays, MaxDays} {
		req := ForecastRequest{ProductID: "p", Days: intPtr(days), Scenario: "optimistic"}
		if err := ValidateRequest(req); err != nil {
			t.Fatalf("days=%d should be valid: %v", days, err)
		}
	}
}

package analyticsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestForecastSendsWireRequest(t *testing.T) {
	price := 5.0
	var captured map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forecast_data":[{"date":"2024-01-11","predicted_value":12.5,"confidence_lower":10,"confidence_upper":15,"model_used":"prophet"}],"models_used":["prophet"],"summary":"up","confidence":0.82,"scenario":"realistic"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1/", WithAPIKey("k"))
	resp, err := client.Forecast(context.Background(), Request{
		ProductID:      "p-1",
		HistoricalData: []Observation{{Date: "2024-01-10", Quantity: 3, Price: 10}},
		Days:           1,
		SellingPrice:   &price,
	})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if auth != "Bearer k" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	if captured["product_id"] != "p-1" || captured["days"].(float64) != 1 || captured["selling_price"].(float64) != 5 {
		t.Fatalf("unexpected wire payload %v", captured)
	}
	if _, ok := captured["scenario"]; ok {
		t.Fatalf("empty scenario should be omitted: %v", captured)
	}
	if len(resp.ForecastData) != 1 || resp.ForecastData[0].ModelUsed != "prophet" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Confidence == nil || *resp.Confidence != 0.82 {
		t.Fatalf("unexpected confidence %v", resp.Confidence)
	}
}

func TestForecastNon2xxIsDependencyError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Forecast(context.Background(), Request{ProductID: "p", Days: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected status error 503, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("client must not retry, got %d calls", calls)
	}
}

func TestForecastTimesOut(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	client := NewClient("http://analytics.test", WithTimeout(20*time.Millisecond), WithHTTPClient(&http.Client{Transport: rt}))

	start := time.Now()
	_, err := client.Forecast(context.Background(), Request{ProductID: "p", Days: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestForecastRejectsEmptyOrGarbageBody(t *testing.T) {
	for name, body := range map[string]string{
		"empty points": `{"forecast_data":[],"summary":""}`,
		"garbage":      `not json`,
	} {
		t.Run(name, func(t *testing.T) {
			rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
			})
			_, err := NewClient("http://analytics.test", WithHTTPClient(&http.Client{Transport: rt})).
				Forecast(context.Background(), Request{ProductID: "p", Days: 1})
			if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				t.Fatalf("expected dependency error, got %v", err)
			}
		})
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewClient("  ")
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if _, err := client.Forecast(context.Background(), Request{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

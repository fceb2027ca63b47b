// Package weather fetches current conditions from the Open-Meteo HTTP API.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// Current holds the conditions used by the dashboard and the alert flow.
type Current struct {
	TemperatureC float64 `json:"temperature"`
	Condition    string  `json:"condition"`
	WindKmh      float64 `json:"wind"`
	Humidity     float64 `json:"humidity"`
}

// Client resolves a free-form location to coordinates and fetches current
// conditions. Transient failures are retried with short exponential backoff.
type Client struct {
	http    *resty.Client
	baseURL string
	geoURL  string
}

func New(baseURL, geoURL string) *Client {
	return &Client{
		http:    resty.New().SetTimeout(10 * time.Second),
		baseURL: baseURL,
		geoURL:  geoURL,
	}
}

type geoResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// CurrentFor returns current conditions for a location such as "Kochi, Kerala".
func (c *Client) CurrentFor(ctx context.Context, location string) (*Current, error) {
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	var geo geoResponse
	if err := c.getJSON(ctx, c.geoURL+"/v1/search", map[string]string{
		"name":  location,
		"count": "1",
	}, &geo); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return nil, fmt.Errorf("unknown location %q", location)
	}

	var fc forecastResponse
	if err := c.getJSON(ctx, c.baseURL+"/v1/forecast", map[string]string{
		"latitude":        fmt.Sprintf("%.4f", geo.Results[0].Latitude),
		"longitude":       fmt.Sprintf("%.4f", geo.Results[0].Longitude),
		"current":         "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code",
		"wind_speed_unit": "kmh",
	}, &fc); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", location, err)
	}

	return &Current{
		TemperatureC: fc.Current.Temperature,
		Condition:    describeWeatherCode(fc.Current.WeatherCode),
		WindKmh:      fc.Current.WindSpeed,
		Humidity:     fc.Current.Humidity,
	}, nil
}

// getJSON performs a GET with up to three attempts on transport errors or 5xx.
func (c *Client) getJSON(ctx context.Context, url string, params map[string]string, out any) error {
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(out).
			Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode())
		}
		if resp.IsError() {
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode()))
		}
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(op, bo)
}

// describeWeatherCode maps WMO weather interpretation codes to display text.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Fog"
	case code <= 57:
		return "Drizzle"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain showers"
	case code <= 86:
		return "Snow showers"
	default:
		return "Thunderstorm"
	}
}

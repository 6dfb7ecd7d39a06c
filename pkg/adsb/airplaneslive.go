package adsb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// MaxRadiusNM is the largest radius the airplanes.live point endpoint accepts.
const MaxRadiusNM = 250.0

// AirplanesLiveClient is a client for the airplanes.live REST API.
// API Documentation: https://airplanes.live/api-guide/
// Rate Limit: 1 request per second
type AirplanesLiveClient struct {
	// baseURL is the API base URL (default: https://api.airplanes.live/v2)
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
// baseURL should be "https://api.airplanes.live/v2" (or custom for testing)
func NewAirplanesLiveClient(baseURL string, timeout time.Duration) *AirplanesLiveClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AirplanesLiveClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAircraft returns all aircraft within a radius of a given point.
// Uses the /point/[lat]/[lon]/[radius] endpoint; the radius is capped at 250 nm.
// Aircraft without a position are returned as-is.
func (c *AirplanesLiveClient) GetAircraft(ctx context.Context, centerLat, centerLon, radiusNM float64) ([]Aircraft, error) {
	if radiusNM > MaxRadiusNM {
		radiusNM = MaxRadiusNM
	}

	url := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, centerLat, centerLon, radiusNM)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp airplanesLiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	now := time.Now().UTC()
	aircraft := make([]Aircraft, 0, len(apiResp.Aircraft))
	for _, ac := range apiResp.Aircraft {
		aircraft = append(aircraft, convertAirplanesLiveAircraft(ac, now))
	}

	return aircraft, nil
}

// AirplanesLiveSource polls airplanes.live for the area around a fixed point.
//
// The panel polls every frame, far faster than the API allows, so requests
// are paced with a token bucket and the previous result is returned between
// requests. After an HTTP 429 the source stays unavailable until the
// server's Retry-After has passed.
type AirplanesLiveSource struct {
	client   *AirplanesLiveClient
	lat, lon float64
	radiusNM float64
	limiter  *rate.Limiter

	last      []Aircraft
	lastErr   error
	holdUntil time.Time

	now func() time.Time
}

// NewAirplanesLiveSource creates a source querying radiusNM around lat/lon at
// most once per interval.
func NewAirplanesLiveSource(client *AirplanesLiveClient, lat, lon, radiusNM float64, interval time.Duration) *AirplanesLiveSource {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &AirplanesLiveSource{
		client:   client,
		lat:      lat,
		lon:      lon,
		radiusNM: radiusNM,
		limiter:  rate.NewLimiter(limit, 1),
		lastErr:  ErrNoData,
		now:      time.Now,
	}
}

// Poll returns the latest aircraft list, fetching a fresh one when the rate
// limit allows.
func (s *AirplanesLiveSource) Poll(ctx context.Context) ([]Aircraft, error) {
	now := s.now()
	if now.Before(s.holdUntil) || !s.limiter.AllowN(now, 1) {
		return s.last, s.lastErr
	}

	aircraft, err := s.client.GetAircraft(ctx, s.lat, s.lon, s.radiusNM)
	if err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			s.holdUntil = now.Add(rle.RetryAfter)
		}
		s.last, s.lastErr = nil, fmt.Errorf("%w: %w", ErrNoData, err)
		return s.last, s.lastErr
	}

	s.last, s.lastErr = aircraft, nil
	return s.last, nil
}

// airplanesLiveResponse represents the JSON response from airplanes.live API.
type airplanesLiveResponse struct {
	// Aircraft is the array of aircraft data
	Aircraft []airplanesLiveAircraft `json:"ac"`

	// Total number of aircraft
	Total int `json:"total"`

	// Current timestamp
	Now float64 `json:"now"`
}

// airplanesLiveAircraft represents a single aircraft in the airplanes.live API response.
// Field documentation: https://airplanes.live/adsb-field-explanations/
type airplanesLiveAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number
	Flight *string `json:"flight"`

	// Lat is latitude in decimal degrees
	Lat *float64 `json:"lat"`

	// Lon is longitude in decimal degrees
	Lon *float64 `json:"lon"`

	// AltBaro is barometric altitude in feet
	// Note: Can be string "ground" or float
	AltBaro interface{} `json:"alt_baro"`

	// AltGeom is geometric (GPS) altitude in feet
	AltGeom interface{} `json:"alt_geom"`

	// Track is ground track in degrees (0-360)
	Track *float64 `json:"track"`

	// MagHeading is the magnetic heading in degrees
	MagHeading *float64 `json:"mag_heading"`

	// NavHeading is the selected autopilot heading in degrees
	NavHeading *float64 `json:"nav_heading"`

	// Seen is seconds since last update
	Seen *float64 `json:"seen"`
}

// convertAirplanesLiveAircraft converts an airplanes.live aircraft to our Aircraft type.
func convertAirplanesLiveAircraft(ac airplanesLiveAircraft, now time.Time) Aircraft {
	aircraft := Aircraft{
		ICAO:       ac.Hex,
		Latitude:   ac.Lat,
		Longitude:  ac.Lon,
		Track:      ac.Track,
		MagHeading: ac.MagHeading,
		NavHeading: ac.NavHeading,
		LastSeen:   now,
	}

	if ac.Flight != nil {
		aircraft.Callsign = strings.TrimSpace(*ac.Flight)
	}

	// Barometric altitude first so colours match the receiver's view,
	// geometric only as a fallback
	if alt := parseAltitude(ac.AltBaro); alt != nil {
		aircraft.Altitude = alt
	} else if alt := parseAltitude(ac.AltGeom); alt != nil {
		aircraft.Altitude = alt
	}

	if ac.Seen != nil {
		aircraft.LastSeen = now.Add(-time.Duration(*ac.Seen * float64(time.Second)))
	}

	return aircraft
}

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains rate limit information from response headers.
type RateLimitHeaders struct {
	Limit     int       // X-Rate-Limit-Limit: Maximum requests allowed
	Remaining int       // X-Rate-Limit-Remaining: Requests remaining in current window
	Reset     time.Time // X-Rate-Limit-Reset: When the rate limit resets
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if header is not present.
// Supports both delay-seconds (integer) and HTTP-date formats.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if duration := time.Until(retryTime); duration > 0 {
			return duration
		}
	}

	return 0
}

// extractRateLimitHeaders extracts common rate limit headers from the response.
// Both X-Rate-Limit-* and X-RateLimit-* spellings are accepted.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{
		Limit:     -1,
		Remaining: -1,
	}

	if val, ok := headerInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"); ok {
		rlh.Limit = int(val)
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"); ok {
		rlh.Remaining = int(val)
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ok {
		rlh.Reset = time.Unix(val, 0)
	}

	return rlh
}

// headerInt returns the first of names that is present and parses as an integer.
func headerInt(headers http.Header, names ...string) (int64, bool) {
	for _, name := range names {
		if v := headers.Get(name); v != "" {
			if val, err := strconv.ParseInt(v, 10, 64); err == nil {
				return val, true
			}
		}
	}
	return 0, false
}

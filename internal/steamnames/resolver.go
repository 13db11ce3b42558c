package steamnames

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http2"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

// Resolver maps a Steam title id to a display name.
type Resolver interface {
	Resolve(ctx context.Context, titleID uint32) (string, error)
}

const (
	defaultStoreURL    = "https://store.steampowered.com/api/appdetails"
	defaultSteamSpyURL = "https://steamspy.com/api.php"
	userAgent          = "SaveGuardian/1.0"
)

// HTTPResolver queries the Steam Store API and falls back to SteamSpy.
// Each request is bounded by the configured timeout; the first non-empty
// name wins. No retries: a failed lookup degrades to a placeholder name
// at the caller.
type HTTPResolver struct {
	client      *http.Client
	storeURL    string
	steamSpyURL string
	logger      *events.Logger
}

// NewHTTPResolver creates a resolver with a bounded-timeout client.
func NewHTTPResolver(timeout time.Duration, logger *events.Logger) *HTTPResolver {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &HTTPResolver{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		storeURL:    defaultStoreURL,
		steamSpyURL: defaultSteamSpyURL,
		logger:      logger.WithField("component", "name_resolver"),
	}
}

// SetEndpoints overrides the API endpoints. Used by tests.
func (r *HTTPResolver) SetEndpoints(storeURL, steamSpyURL string) {
	r.storeURL = storeURL
	r.steamSpyURL = steamSpyURL
}

// Resolve returns the display name for a title id, or ErrNameNotFound when
// no source has one.
func (r *HTTPResolver) Resolve(ctx context.Context, titleID uint32) (string, error) {
	if name, err := r.fromStoreAPI(ctx, titleID); err == nil {
		return name, nil
	} else {
		r.logger.WithError(err).WithField("title_id", titleID).Debug("Store API lookup failed")
	}

	if name, err := r.fromSteamSpy(ctx, titleID); err == nil {
		return name, nil
	} else {
		r.logger.WithError(err).WithField("title_id", titleID).Debug("SteamSpy lookup failed")
	}

	return "", models.ErrNameNotFound
}

func (r *HTTPResolver) fromStoreAPI(ctx context.Context, titleID uint32) (string, error) {
	url := fmt.Sprintf("%s?appids=%d&filters=basic", r.storeURL, titleID)
	body, err := r.get(ctx, url)
	if err != nil {
		return "", err
	}

	// Response shape: { "<id>": { "success": bool, "data": { "name": ... } } }
	var payload map[string]struct {
		Success bool `json:"success"`
		Data    struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parse store response: %w", err)
	}

	entry, ok := payload[strconv.FormatUint(uint64(titleID), 10)]
	if !ok || !entry.Success || entry.Data.Name == "" {
		return "", models.ErrNameNotFound
	}

	r.logger.WithFields(map[string]interface{}{
		"title_id": titleID,
		"name":     entry.Data.Name,
	}).Debug("Resolved name via Store API")

	return entry.Data.Name, nil
}

func (r *HTTPResolver) fromSteamSpy(ctx context.Context, titleID uint32) (string, error) {
	url := fmt.Sprintf("%s?request=appdetails&appid=%d", r.steamSpyURL, titleID)
	body, err := r.get(ctx, url)
	if err != nil {
		return "", err
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("parse steamspy response: %w", err)
	}

	if payload.Name == "" || payload.Name == "null" {
		return "", models.ErrNameNotFound
	}

	r.logger.WithFields(map[string]interface{}{
		"title_id": titleID,
		"name":     payload.Name,
	}).Debug("Resolved name via SteamSpy")

	return payload.Name, nil
}

func (r *HTTPResolver) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

// StaticResolver serves names from a fixed table. Used in tests and as the
// offline seed source.
type StaticResolver struct {
	Names map[uint32]string
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, titleID uint32) (string, error) {
	if name, ok := r.Names[titleID]; ok && name != "" {
		return name, nil
	}
	return "", models.ErrNameNotFound
}

package steamnames

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arionyxx/save-guardian/internal/models"
)

func TestResolverStoreAPI(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "413150", r.URL.Query().Get("appids"))
		fmt.Fprint(w, `{"413150":{"success":true,"data":{"name":"Stardew Valley"}}}`)
	}))
	defer store.Close()

	resolver := NewHTTPResolver(5*time.Second, testLogger())
	resolver.SetEndpoints(store.URL, "http://127.0.0.1:0")

	name, err := resolver.Resolve(context.Background(), 413150)
	require.NoError(t, err)
	assert.Equal(t, "Stardew Valley", name)
}

func TestResolverFallsBackToSteamSpy(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"413150":{"success":false}}`)
	}))
	defer store.Close()

	spy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "appdetails", r.URL.Query().Get("request"))
		fmt.Fprint(w, `{"name":"Stardew Valley"}`)
	}))
	defer spy.Close()

	resolver := NewHTTPResolver(5*time.Second, testLogger())
	resolver.SetEndpoints(store.URL, spy.URL)

	name, err := resolver.Resolve(context.Background(), 413150)
	require.NoError(t, err)
	assert.Equal(t, "Stardew Valley", name)
}

func TestResolverBothSourcesFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	resolver := NewHTTPResolver(5*time.Second, testLogger())
	resolver.SetEndpoints(failing.URL, failing.URL)

	_, err := resolver.Resolve(context.Background(), 413150)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNameNotFound))
}

func TestResolverNullSteamSpyName(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer store.Close()

	spy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"null"}`)
	}))
	defer spy.Close()

	resolver := NewHTTPResolver(5*time.Second, testLogger())
	resolver.SetEndpoints(store.URL, spy.URL)

	_, err := resolver.Resolve(context.Background(), 413150)
	assert.True(t, errors.Is(err, models.ErrNameNotFound))
}

func TestStaticResolver(t *testing.T) {
	resolver := &StaticResolver{Names: map[uint32]string{570: "Dota 2"}}

	name, err := resolver.Resolve(context.Background(), 570)
	require.NoError(t, err)
	assert.Equal(t, "Dota 2", name)

	_, err = resolver.Resolve(context.Background(), 1)
	assert.True(t, errors.Is(err, models.ErrNameNotFound))
}

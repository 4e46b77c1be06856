package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

// recordedRequest captures what the fake trip server received.
type recordedRequest struct {
	Method string
	Path   string
	Form   url.Values
	Header http.Header
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeServer) handler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Form: r.PostForm, Header: r.Header.Clone()})
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeServer) reply(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeServer) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newFakeClient(t *testing.T) (*engine.HTTPClient, *fakeServer) {
	t.Helper()
	fs := &fakeServer{}
	ts := httptest.NewServer(http.HandlerFunc(fs.handler))
	t.Cleanup(ts.Close)

	c, err := engine.NewHTTPClient(ts.URL + "/")
	require.NoError(t, err)
	return c, fs
}

// TestHTTPClient_FormEncoding verifies every mutating endpoint and its fields.
func TestHTTPClient_FormEncoding(t *testing.T) {
	stop := engine.StopFields{Name: "Museum & Café", Address: "123 Main St", Time: "09:00"}

	tests := []struct {
		name string
		call func(context.Context, *engine.HTTPClient) error
		path string
		form url.Values
	}{
		{
			"SaveStop",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.SaveStop(ctx, "42", 0, stop) },
			"/user/trip/42/saveItineraryAjax",
			url.Values{"day": {"0"}, "title": {"Museum & Café"}, "location": {"123 Main St"}, "description": {"09:00"}},
		},
		{
			"DeleteStop",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.DeleteStop(ctx, "42", 2, stop) },
			"/user/trip/42/deleteItinerary",
			url.Values{"day": {"2"}, "title": {"Museum & Café"}, "location": {"123 Main St"}, "description": {"09:00"}},
		},
		{
			"DeleteDay",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.DeleteDay(ctx, "42", 3) },
			"/user/trip/42/deleteDay",
			url.Values{"day": {"3"}},
		},
		{
			"SavePackingItem",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.SavePackingItem(ctx, "42", "Hat", false) },
			"/user/trip/42/savePackingItem",
			url.Values{"name": {"Hat"}, "checked": {"false"}},
		},
		{
			"UpdatePackingItem",
			func(ctx context.Context, c *engine.HTTPClient) error {
				return c.UpdatePackingItem(ctx, "42", "Cap", true, "Hat")
			},
			"/user/trip/42/updatePackingItem",
			url.Values{"name": {"Cap"}, "checked": {"true"}, "oldName": {"Hat"}},
		},
		{
			"DeletePackingItem",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.DeletePackingItem(ctx, "42", "Hat") },
			"/user/trip/42/deletePackingItem",
			url.Values{"name": {"Hat"}},
		},
		{
			"UpdatePackingItemStatus",
			func(ctx context.Context, c *engine.HTTPClient) error {
				return c.UpdatePackingItemStatus(ctx, "42", "Hat", true)
			},
			"/user/trip/42/updatePackingItemStatus",
			url.Values{"name": {"Hat"}, "checked": {"true"}},
		},
		{
			"DeleteTrip",
			func(ctx context.Context, c *engine.HTTPClient) error { return c.DeleteTrip(ctx, "42") },
			"/user/trip/42/delete",
			url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fs := newFakeClient(t)
			require.NoError(t, tt.call(context.Background(), c))

			req := fs.last(t)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.form, req.Form)
			assert.Equal(t, config.UserAgent, req.Header.Get("User-Agent"))
			if len(tt.form) > 0 {
				assert.Equal(t, config.MimeForm, req.Header.Get("Content-Type"))
			}
		})
	}
}

// TestHTTPClient_CSRF checks the token is attached to mutating calls only once known.
func TestHTTPClient_CSRF(t *testing.T) {
	c, fs := newFakeClient(t)
	ctx := context.Background()

	require.NoError(t, c.DeleteDay(ctx, "1", 0))
	assert.Empty(t, fs.last(t).Header.Get("X-CSRF-TOKEN"), "absence is tolerated")

	c.SetCSRF(engine.CSRFToken{Header: "X-CSRF-TOKEN", Token: "abc"})
	require.NoError(t, c.DeleteDay(ctx, "1", 0))
	assert.Equal(t, "abc", fs.last(t).Header.Get("X-CSRF-TOKEN"))
}

// TestHTTPClient_ErrorBody verifies non-2xx answers surface the server text.
func TestHTTPClient_ErrorBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"BadRequest", http.StatusBadRequest, "Item already exists"},
		{"ServerError", http.StatusInternalServerError, "  stack trace  "},
		{"Forbidden", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fs := newFakeClient(t)
			fs.reply(tt.status, tt.body)

			err := c.SavePackingItem(context.Background(), "42", "Hat", false)

			var apiErr *engine.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, strings.TrimSpace(tt.body), apiErr.Body)
		})
	}
}

// TestHTTPClient_Timeout ensures the client respects context deadlines.
func TestHTTPClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	c, err := engine.NewHTTPClient(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = c.DeleteDay(ctx, "1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPClient_Validation(t *testing.T) {
	_, err := engine.NewHTTPClient("")
	assert.EqualError(t, err, config.ErrBaseURLEmpty)

	_, err = engine.NewHTTPClient("ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrProtocol)

	_, err = engine.NewHTTPClient(string([]byte{0x7f}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidURL)
}

// TestHTTPClient_SessionAndLoad walks the login, page load and CSRF pickup.
func TestHTTPClient_SessionAndLoad(t *testing.T) {
	tokens := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "ana@example.com" || r.PostForm.Get("password") != "secret" {
			http.Redirect(w, r, "/login?error=true", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"})
		http.Redirect(w, r, "/user/homepage", http.StatusFound)
	})
	mux.HandleFunc("/user/homepage", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/user/trip/42", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err != nil || c.Value != "s1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(tripPage))
	})
	mux.HandleFunc("/user/trip/42/deleteDay", func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.Header.Get("X-CSRF-TOKEN")
	})
	loggedOut := make(chan string, 1)
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		loggedOut <- r.Header.Get("X-CSRF-TOKEN")
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, "/login?logout", http.StatusFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := engine.NewHTTPClient(ts.URL)
	require.NoError(t, err)
	c.Clock = MockClock{CurrentTime: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	assert.EqualError(t, c.Login(ctx, "ana@example.com", "wrong"), config.ErrLoginFailed)

	_, err = c.LoadTrip(ctx, "42")
	var apiErr *engine.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	require.NoError(t, c.Login(ctx, "ana@example.com", "secret"))
	trip, err := c.LoadTrip(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", trip.Destination)
	assert.Equal(t, date(2025, 7, 1), trip.Start)

	require.NoError(t, c.DeleteDay(ctx, "42", 0))
	assert.Equal(t, "tok-123", <-tokens)
	assert.Equal(t, ts.URL+"/user/trip/42", c.TripURL("42"))

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, "tok-123", <-loggedOut, "logout is a protected POST")
	_, err = c.LoadTrip(ctx, "42")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status, "the session cookie is gone")
}

func TestHTTPClient_Summaries(t *testing.T) {
	updated := make(chan struct{}, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trips/update-coordinates", func(w http.ResponseWriter, r *http.Request) {
		updated <- struct{}{}
	})
	mux.HandleFunc("/api/trips/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"destination":"Lisbon","startDate":"2025-07-01","endDate":"2025-07-04","latitude":38.72,"longitude":-9.14},
			{"destination":"Nowhere","startDate":"2025-08-01","endDate":"2025-08-02","latitude":null,"longitude":null}
		]`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := engine.NewHTTPClient(ts.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.UpdateCoordinates(ctx))
	assert.Len(t, updated, 1)

	sums, err := c.TripSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "Lisbon", sums[0].Destination)
	require.NotNil(t, sums[0].Latitude)
	assert.InDelta(t, 38.72, *sums[0].Latitude, 1e-9)
	assert.Nil(t, sums[1].Longitude)
}

// Package server publishes the open trip's itinerary as a read-only
// iCalendar feed on the loopback interface, so calendar applications can
// subscribe to it.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
	"golang.org/x/sync/errgroup"
)

// feedItem is one rendered version of the feed.
type feedItem struct {
	data         []byte
	etag         string
	lastModified string // http.TimeFormat
}

// ItineraryFeed serves the latest published itinerary.
// Readers never block writers: the current version is swapped atomically.
type ItineraryFeed struct {
	cache atomic.Pointer[feedItem]
	Port  string
	Clock engine.Clock
}

// NewItineraryFeed creates a feed bound to port once started.
func NewItineraryFeed(port string) *ItineraryFeed {
	return &ItineraryFeed{
		Port:  port,
		Clock: engine.RealClock{},
	}
}

// ValidatePort checks that port is a number within the TCP range.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(config.ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrPortNumber, err)
	}
	if n < config.MinPort || n > config.MaxPort {
		return fmt.Errorf("%s: %d", config.ErrPortRange, n)
	}
	return nil
}

// URL is the subscription address of the feed.
func (s *ItineraryFeed) URL() string {
	return "http://" + net.JoinHostPort(config.LocalhostBindAddr, s.Port) + config.RouteFeed
}

// Start binds the loopback port, serves until ctx is cancelled, then shuts
// down gracefully. A busy port is reported before anything is served.
func (s *ItineraryFeed) Start(ctx context.Context) error {
	if err := ValidatePort(s.Port); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(config.LocalhostBindAddr, s.Port))
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}
	log := slog.With(slog.String(config.LogKeyComponent, config.CompServer))
	log.Info(config.MsgServerListen, slog.String(config.LogKeyURL, s.URL()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(config.MsgServerStop)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil
	})
	return g.Wait()
}

// Handler serves the feed on "/" and on the .ics route.
func (s *ItineraryFeed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleFeedRequest)
	return mux
}

// Publish renders the trip's saved stops and serves them.
func (s *ItineraryFeed) Publish(trip *engine.Trip) error {
	data, err := engine.GenerateICS(trip, s.Clock.Now())
	if err != nil {
		return err
	}
	s.Update(data)
	return nil
}

// Update replaces the served content. Identical content keeps its
// validators so subscribers are answered 304.
func (s *ItineraryFeed) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	if prev := s.cache.Load(); prev != nil && prev.etag == etag {
		return
	}

	s.cache.Store(&feedItem{
		data:         data,
		etag:         etag,
		lastModified: s.Clock.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// Ready reports whether an itinerary has been published.
func (s *ItineraryFeed) Ready() bool {
	return s.cache.Load() != nil
}

func (s *ItineraryFeed) handleFeedRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != config.RouteRoot && r.URL.Path != config.RouteFeed {
		http.NotFound(w, r)
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	h := w.Header()
	h.Set(config.HeaderContentType, config.MimeTextCalendar)
	h.Set(config.HeaderXContentType, config.MimeNoSniff)
	h.Set(config.HeaderCacheControl, config.CacheControlPrivate)
	h.Set(config.HeaderETag, item.etag)
	h.Set(config.HeaderLastModified, item.lastModified)

	if notModified(r, item) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
		slog.Warn(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// notModified applies RFC 9110 precedence: If-None-Match, when present,
// decides alone; otherwise If-Modified-Since is compared at second precision.
func notModified(r *http.Request, item *feedItem) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		return match == item.etag
	}
	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	clientTime, err := http.ParseTime(since)
	if err != nil {
		return false
	}
	serverTime, err := http.ParseTime(item.lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}

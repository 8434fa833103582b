package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"audiogate-backend/lib/scrapers/vkaudio"
)

type Options struct {
	// url prefix the api routes are mounted under, defaults to "/api"
	ApiPrefix string
	// url prefix the blob directory is served under, defaults to
	// "/media". stream requests redirect here.
	MediaPrefix string
}

// Service exposes a scraping engine over plain http. it hands out
// opaque (cache key, track id) pairs in its urls and never reveals the
// site's media urls to callers.
type Service struct {
	engine *vkaudio.Engine
	config Options
}

func NewService(engine *vkaudio.Engine, options Options) Service {
	if options.ApiPrefix == "" {
		options.ApiPrefix = "/api"
	}
	if options.MediaPrefix == "" {
		options.MediaPrefix = "/media"
	}
	return Service{engine: engine, config: options}
}

// Register mounts the api routes on mux. the blob directory itself is
// served by the caller under MediaPrefix.
func (s Service) Register(mux *http.ServeMux) {
	prefix := s.config.ApiPrefix
	mux.HandleFunc("GET "+prefix+"/search", s.handleSearch)
	mux.HandleFunc("GET "+prefix+"/download/{key}/{id}", s.handleDownload)
	mux.HandleFunc("GET "+prefix+"/bytes/{key}/{id}", s.handleBytes)
}

// Track is the public shape of one scraped item. the internal track id
// and media url only show up embedded in the download/stream urls.
type Track struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	DownloadUrl string `json:"download_url"`
	StreamUrl   string `json:"stream_url"`
}

func (s Service) publicTrack(key string, item vkaudio.Item) Track {
	base := fmt.Sprintf(
		"%s/download/%s/%s",
		s.config.ApiPrefix,
		url.PathEscape(key),
		url.PathEscape(item.Id),
	)
	return Track{
		Artist:      item.Artist,
		Title:       item.Title,
		Duration:    item.Duration,
		DownloadUrl: base,
		StreamUrl:   base + "?stream=1",
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, vkaudio.ErrNotFound),
		errors.Is(err, vkaudio.ErrInvalidMedia),
		errors.Is(err, vkaudio.ErrDownloadFailed):
		return http.StatusNotFound
	case errors.Is(err, vkaudio.ErrAuthenticationExhausted),
		errors.Is(err, vkaudio.ErrUnsupportedChallenge):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (s Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleSearch")
	defer span.End()

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing query parameter 'q'"))
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			writeError(w, http.StatusBadRequest, errors.New("parameter 'page' must be a non-negative integer"))
			return
		}
	}
	span.SetAttributes(
		attribute.String("query", query),
		attribute.Int("page", page),
	)

	key, items, err := s.engine.Search(ctx, query, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		writeError(w, httpStatus(err), err)
		return
	}

	tracks := []Track{}
	for _, item := range items {
		if item.Id == "" {
			// items with no media cannot be downloaded, don't list them
			continue
		}
		tracks = append(tracks, s.publicTrack(key, item))
	}
	writeData(w, tracks)
}

func (s Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleDownload")
	defer span.End()

	item, err := s.engine.Resolve(ctx, r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		span.RecordError(err)
		writeError(w, httpStatus(err), err)
		return
	}

	mediaPath, err := s.engine.FetchOrServe(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch media")
		writeError(w, httpStatus(err), err)
		return
	}

	if r.URL.Query().Get("stream") != "" {
		target := s.config.MediaPrefix + "/" + path.Base(mediaPath)
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	w.Header().Set(
		"Content-Disposition",
		`attachment; filename="`+downloadFilename(item)+`"`,
	)
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, mediaPath)
}

func (s Service) handleBytes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleBytes")
	defer span.End()

	length, err := s.engine.ByteLength(ctx, r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		span.RecordError(err)
		writeError(w, httpStatus(err), err)
		return
	}
	writeData(w, length)
}

var filenameSanitizer = strings.NewReplacer(
	`/`, "_", `\`, "_", `"`, "'", ":", "-",
	"*", "", "?", "", "<", "", ">", "", "|", "",
	"\n", " ", "\r", " ", "\t", " ",
)

func downloadFilename(item vkaudio.Item) string {
	name := item.Artist + " - " + item.Title
	if strings.TrimSpace(name) == "-" || strings.TrimSpace(name) == "" {
		name = "track"
	}
	name = strings.TrimSpace(filenameSanitizer.Replace(name))
	return name + ".mp3"
}

func writeData(w http.ResponseWriter, data any) {
	writeJson(w, http.StatusOK, map[string]any{
		"status": "ok",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJson(w, status, map[string]any{
		"status": "error",
		"error":  err.Error(),
	})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to write response body", "err", err)
	}
}

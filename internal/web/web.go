package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sched2ics/internal/config"
	"sched2ics/internal/convert"
	"sched2ics/internal/ics"
	appLog "sched2ics/internal/log"
	"sched2ics/internal/refresh"
)

const maxUploadBytes = 32 << 20

// Server exposes conversion over HTTP and serves calendars published by
// the refresh job.
type Server struct {
	cfg   *config.Config
	conv  *convert.Converter
	store *refresh.Store
	mux   *http.ServeMux
}

// NewServer constructs a Server. store may be nil when no sources are
// configured.
func NewServer(cfg *config.Config, conv *convert.Converter, store *refresh.Store) *Server {
	if store == nil {
		store = refresh.NewStore()
	}
	s := &Server{
		cfg:   cfg,
		conv:  conv,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped with basic auth if configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sched2ics", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/convert", s.handleConvert)
	s.mux.HandleFunc("POST /api/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/calendars", s.handleListCalendars)
	s.mux.HandleFunc("GET /calendars/{file}", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// upload is a request body read either from a multipart "file" field or
// from the raw body.
type upload struct {
	name string
	data []byte
}

func readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			return upload{}, fmt.Errorf("multipart field \"file\": %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return upload{}, err
		}
		return upload{name: hdr.Filename, data: data}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return upload{}, err
	}
	name := "schedule.json"
	if mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		name = "schedule.xlsx"
	}
	if q := r.URL.Query().Get("name"); q != "" {
		name = filepath.Base(q)
	}
	return upload{name: name, data: data}, nil
}

// converterFor applies the optional tz query override.
func (s *Server) converterFor(r *http.Request) (*convert.Converter, error) {
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		return s.conv, nil
	}
	if _, ok := ics.LookupZone(tz); !ok {
		return nil, fmt.Errorf("unsupported tz %q", tz)
	}
	return s.conv.WithTZID(tz), nil
}

// handleConvert converts an uploaded export and returns the calendar as an
// attachment.
//
// POST /api/convert?tz=America/Chicago
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	conv, err := s.converterFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	up, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := conv.ConvertBytes(up.name, up.data)
	if err != nil {
		appLog.Warn("api convert: unusable input", "name", up.name, "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	appLog.Info("api convert", "name", up.name, "events", len(res.Events))
	writeCalendar(w, convert.OutputName(up.name), res.Document, len(res.Events))
}

type previewResponse struct {
	TZID          string           `json:"tzid"`
	Weeks         int              `json:"weeks"`
	Rows          int              `json:"rows"`
	Occurrences   []ics.Occurrence `json:"occurrences"`
	TruncatedUIDs []string         `json:"truncated_uids,omitempty"`
}

// handlePreview converts an upload and returns the first weeks of
// occurrences as JSON.
//
// POST /api/preview?weeks=2&tz=America/New_York
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conv, err := s.converterFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weeks := parseIntDefault(r.URL.Query().Get("weeks"), s.cfg.PreviewWeeks)

	up, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := conv.ConvertBytes(up.name, up.data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	exp, err := convert.Preview(res, weeks)
	if err != nil {
		appLog.Error("api preview: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}
	occ := exp.Occurrences
	if occ == nil {
		occ = []ics.Occurrence{}
	}
	writeJSON(w, http.StatusOK, previewResponse{
		TZID:          conv.TZID(),
		Weeks:         weeks,
		Rows:          len(res.Rows),
		Occurrences:   occ,
		TruncatedUIDs: exp.TruncatedEvents,
	})
}

type calendarDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Events    int       `json:"events"`
	FromCache bool      `json:"from_cache"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

func (s *Server) handleListCalendars(w http.ResponseWriter, _ *http.Request) {
	cals := s.store.List()
	out := make([]calendarDTO, 0, len(cals))
	for _, c := range cals {
		out = append(out, calendarDTO{
			ID:        c.ID,
			Name:      c.Name,
			Events:    c.Events,
			FromCache: c.FromCache,
			UpdatedAt: c.UpdatedAt,
			URL:       "/calendars/" + c.ID + ".ics",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCalendar serves a published calendar.
//
// GET /calendars/{id}.ics
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), ".ics")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	cal, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "calendar not published yet")
		return
	}

	name := cal.Name
	if name == "" {
		name = cal.ID
	}
	w.Header().Set("Last-Modified", cal.UpdatedAt.UTC().Format(http.TimeFormat))
	writeCalendar(w, convert.OutputName(name), cal.Document, cal.Events)
}

func writeCalendar(w http.ResponseWriter, filename, doc string, events int) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	w.Header().Set("X-Event-Count", strconv.Itoa(events))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, doc); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

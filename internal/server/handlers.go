package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arraylab/cloudarray/internal/array"
	"github.com/arraylab/cloudarray/internal/backend"
)

// Chunk payloads are capped to keep one request from pinning the
// server; arrays needing more belong on smaller chunk shapes.
const maxChunkBytes = 1 << 30

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// arrayName validates and returns the {name} path parameter.
func arrayName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if !backend.ValidName(name) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid array name: %q", name))
		return "", false
	}
	return name, true
}

func chunkNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid chunk number: %q", chi.URLParam(r, "n")))
		return 0, false
	}
	return n, true
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	name, ok := arrayName(w, r)
	if !ok {
		return
	}
	b, err := s.store(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	doc, err := b.ReadMetadata(r.Context())
	if errors.Is(err, backend.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}

func (s *Server) handlePutMetadata(w http.ResponseWriter, r *http.Request) {
	name, ok := arrayName(w, r)
	if !ok {
		return
	}
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxChunkBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := array.ParseMetadata(doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.store(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := b.SaveMetadata(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	name, ok := arrayName(w, r)
	if !ok {
		return
	}
	n, ok := chunkNumber(w, r)
	if !ok {
		return
	}
	b, err := s.store(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := b.ReadChunk(r.Context(), n)
	if errors.Is(err, backend.ErrChunkNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Accept-Ranges", "bytes")

	if rng := r.Header.Get("Range"); rng != "" {
		start, end, err := parseRange(rng, len(data))
		if err != nil {
			writeError(w, http.StatusRequestedRangeNotSatisfiable, err)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
		return
	}
	w.Write(data)
}

func (s *Server) handlePutChunk(w http.ResponseWriter, r *http.Request) {
	name, ok := arrayName(w, r)
	if !ok {
		return
	}
	n, ok := chunkNumber(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxChunkBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.store(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if cr := r.Header.Get("Content-Range"); cr != "" {
		if err := s.patchChunk(r, b, n, cr, data); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := b.SaveChunk(r.Context(), n, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchChunk applies a byte-range write: the existing payload (or a
// zero buffer of the declared total size) is patched and saved back.
func (s *Server) patchChunk(r *http.Request, b backend.Backend, n int, contentRange string, data []byte) error {
	start, end, total, err := parseContentRange(contentRange)
	if err != nil {
		return err
	}
	if end-start+1 != len(data) {
		return fmt.Errorf("content-range spans %d bytes but body has %d", end-start+1, len(data))
	}

	existing, err := b.ReadChunk(r.Context(), n)
	if errors.Is(err, backend.ErrChunkNotFound) {
		existing = make([]byte, total)
	} else if err != nil {
		return err
	}
	if end >= len(existing) {
		return fmt.Errorf("range end %d past chunk size %d", end, len(existing))
	}
	copy(existing[start:end+1], data)
	return b.SaveChunk(r.Context(), n, existing)
}

func (s *Server) handleDeleteArray(w http.ResponseWriter, r *http.Request) {
	name, ok := arrayName(w, r)
	if !ok {
		return
	}
	b, err := s.store(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := b.Delete(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.forget(name)
	w.WriteHeader(http.StatusNoContent)
}

// parseRange parses a single Range header "bytes=start-end" against a
// payload of the given size. end is inclusive, per RFC 7233.
func parseRange(header string, size int) (start, end int, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit in %q", header)
	}
	lo, hi, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}
	start, err = strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}
	if hi == "" {
		end = size - 1
	} else if end, err = strconv.Atoi(hi); err != nil {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}
	if start < 0 || end < start || end >= size {
		return 0, 0, fmt.Errorf("range %q out of bounds for %d bytes", header, size)
	}
	return start, end, nil
}

// parseContentRange parses "bytes start-end/total". end is inclusive.
func parseContentRange(header string) (start, end, total int, err error) {
	spec, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return 0, 0, 0, fmt.Errorf("unsupported content-range unit in %q", header)
	}
	rangePart, totalPart, ok := strings.Cut(spec, "/")
	if !ok {
		return 0, 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	lo, hi, ok := strings.Cut(rangePart, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	if start, err = strconv.Atoi(lo); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	if end, err = strconv.Atoi(hi); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	if total, err = strconv.Atoi(totalPart); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed content-range %q", header)
	}
	if start < 0 || end < start || total <= end {
		return 0, 0, 0, fmt.Errorf("content-range %q out of bounds", header)
	}
	return start, end, total, nil
}

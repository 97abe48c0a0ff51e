package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/sparelist/internal/catalog"
	"github.com/kalambet/sparelist/internal/form"
	"github.com/kalambet/sparelist/internal/selection"
	"github.com/kalambet/sparelist/internal/storage"
	"github.com/kalambet/sparelist/internal/worklist"
)

const (
	maxRequestBodySize = 1 << 20  // 1MB
	maxUploadSize      = 32 << 20 // 32MB

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CatalogGroup is one spare type as served by GET /catalog.
type CatalogGroup struct {
	Spare   string           `json:"spare"`
	Records []catalog.Record `json:"records"`
}

type selectRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// NewHandler returns the HTTP API over f.
func NewHandler(f *form.Form) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/catalog", handleCatalog(f))

	r.Get("/form", handleGetForm(f))
	r.Put("/form/selection", handleSelect(f))
	r.Put("/form/meta", handleSetMeta(f))
	r.Post("/form/reset", handleResetForm(f))

	r.Get("/items", handleListItems(f))
	r.Post("/items", handleAddItem(f))
	r.Delete("/items/{index}", handleDeleteItem(f))
	r.Delete("/items", handleResetItems(f))

	r.Get("/export", handleExport(f))
	r.Put("/merge/file", handleStageFile(f))
	r.Delete("/merge/file", handleClearFile(f))
	r.Post("/merge", handleMerge(f))

	r.Get("/history", handleHistory(f))
	r.Get("/history/{id}", handleHistoryEntry(f))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleCatalog(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := f.Catalog()
		groups := make([]CatalogGroup, 0, cat.Len())
		for _, spare := range cat.Spares() {
			groups = append(groups, CatalogGroup{Spare: spare, Records: cat.Records(spare)})
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

func handleGetForm(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.Snapshot())
	}
}

func handleSelect(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		snap, err := f.Select(req.Field, req.Value)
		if err != nil {
			formError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleSetMeta(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var meta worklist.Meta
		if !decodeBody(w, r, &meta) {
			return
		}
		writeJSON(w, http.StatusOK, f.SetMeta(meta))
	}
}

func handleResetForm(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.Reset())
	}
}

func handleListItems(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nonNil(f.Items()))
	}
}

func handleAddItem(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := f.Add(r.Context())
		if err != nil {
			formError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleDeleteItem(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "index must be an integer")
			return
		}
		deleted, err := f.Delete(r.Context(), index)
		if err != nil {
			formError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "items": len(f.Items())})
	}
}

func handleResetItems(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f.ResetAll(r.Context()); err != nil {
			formError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

func handleExport(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := f.Export(r.Context())
		if err != nil {
			formError(w, err)
			return
		}
		writeFile(w, out)
	}
}

func handleStageFile(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid upload: %v", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}
		if err := f.StageFile(header.Filename, data); err != nil {
			formError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"staged": header.Filename, "bytes": len(data)})
	}
}

func handleClearFile(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.ClearFile()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMerge(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := f.Merge(r.Context())
		if err != nil {
			if isInputError(err) {
				formError(w, err)
				return
			}
			// Anything else is the staged workbook failing to parse.
			httpError(w, http.StatusUnprocessableEntity, "invalid_file_error", "%v", err)
			return
		}
		w.Header().Set("X-Duplicates", strconv.Itoa(out.Merged.Duplicates))
		w.Header().Set("X-Appended", strconv.Itoa(out.Merged.Appended))
		writeFile(w, out)
	}
}

func handleHistory(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		recs, err := f.History(r.Context(), limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list history: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleHistoryEntry(f *form.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := f.HistoryEntry(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "no export with id %q", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get export: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func isInputError(err error) bool {
	return errors.Is(err, worklist.ErrMissingAssetTag) ||
		errors.Is(err, selection.ErrUnknownField) ||
		errors.Is(err, form.ErrNoFile) ||
		errors.Is(err, form.ErrUnsupportedFile)
}

// formError maps form errors onto HTTP responses.
func formError(w http.ResponseWriter, err error) {
	if isInputError(err) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func writeFile(w http.ResponseWriter, out form.File) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Write(out.Data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

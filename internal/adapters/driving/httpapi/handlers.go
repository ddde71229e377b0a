package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

const maxPendingBody = 4 << 20

type pendingRequest struct {
	Docs []domain.DocMeta `json:"docs"`
}

type pendingResponse struct {
	Pending []domain.DocMeta `json:"pending"`
}

func (s *Server) handleSearchPersons(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	persons, err := s.entities.SearchPersons(r.Context(), filters)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if persons == nil {
		persons = []domain.Person{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"persons": persons,
		"count":   len(persons),
	})
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	person, err := s.entities.GetPerson(r.Context(), r.URL.Query().Get("case"), chi.URLParam(r, "personID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", domain.DefaultOccurrenceLimit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.entities.Occurrences(r.Context(), r.URL.Query().Get("case"), chi.URLParam(r, "personID"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []domain.OccurrenceRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"occurrences": records,
		"count":       len(records),
	})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPendingBody)
	var req pendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	pending, err := s.entities.PendingDocs(r.Context(), req.Docs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if pending == nil {
		pending = []domain.DocMeta{}
	}
	writeJSON(w, http.StatusOK, pendingResponse{Pending: pending})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.entities.Snapshots(r.Context(), r.URL.Query().Get("case"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snaps == nil {
		snaps = []domain.DocSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (s *Server) handleClearCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if err := s.entities.ClearCase(r.Context(), caseID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "case_id": caseID})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	caseID := r.URL.Query().Get("case")
	name := "ailawyer.xlsx"
	if caseID != "" {
		name = "ailawyer-" + url.PathEscape(caseID) + ".xlsx"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	// Headers are already out once the workbook starts streaming.
	if err := s.exports.Export(r.Context(), w, caseID); err != nil {
		logger.Error("export %q: %v", caseID, err)
	}
}

func parseFilters(q url.Values) (domain.PersonSearchFilters, error) {
	f := domain.PersonSearchFilters{
		CaseID: q.Get("case"),
		Query:  q.Get("q"),
		Sort:   domain.PersonSort(q.Get("sort")),
	}
	var err error
	for name, dst := range map[string]*bool{
		"has_cf":      &f.HasTaxCode,
		"has_dob":     &f.HasDOB,
		"has_address": &f.HasAddress,
		"has_title":   &f.HasTitle,
	} {
		if *dst, err = boolParam(q, name); err != nil {
			return f, err
		}
	}
	if v := q.Get("min_confidence"); v != "" {
		if f.MinConfidence, err = strconv.ParseFloat(v, 64); err != nil {
			return f, fmt.Errorf("min_confidence: %q is not a number", v)
		}
	}
	if f.Sort != "" && !f.Sort.IsValid() {
		return f, fmt.Errorf("sort: unknown ordering %q", f.Sort)
	}
	if f.Limit, err = intParam(q, "limit", domain.DefaultSearchLimit); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", name, v)
	}
	return b, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a non-negative integer", name, v)
	}
	return n, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrLocked), errors.Is(err, domain.ErrServiceUnavailable):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logger.Error("api: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/apperr"
	"StockTracker/internal/model"
	"StockTracker/internal/scheduler"
	"StockTracker/internal/store"
	"StockTracker/internal/view"
)

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, apperr.Message(err))
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// handleStocks returns storage order without query parameters, otherwise the
// filtered and sorted view. A store read failure yields an empty list.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if len(q) == 0 {
		recs, err := s.svc.All(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("read stocks")
			recs = []model.StockRecord{}
		}
		writeJSON(w, http.StatusOK, recs)
		return
	}

	window, err := view.ParseWindow(q.Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	srt, err := view.ParseSort(q.Get("sort"), q.Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := view.Filter{
		Type:        q.Get("type"),
		Status:      q.Get("status"),
		Search:      q.Get("q"),
		SuggestedBy: q.Get("suggestedBy"),
		Window:      window,
	}
	recs, err := s.svc.List(r.Context(), f, srt)
	if err != nil {
		log.Error().Err(err).Msg("read stocks")
		recs = []model.StockRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	res, err := s.svc.Upload(r.Context(), file, header.Filename)
	if err != nil {
		if errors.Is(err, apperr.ErrUpstream) {
			log.Warn().Err(err).Str("file", header.Filename).Msg("upload parse failed")
			writeError(w, http.StatusInternalServerError, apperr.Message(err))
			return
		}
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully uploaded %d stocks and options", res.Total),
		"stocks":  res.Stocks,
		"total":   res.Total,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var in model.StockInput
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.svc.Add(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Stock added successfully",
		"stock":   rec,
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var in model.StockInput
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.svc.Edit(r.Context(), in.Ticker.String(), in.StockPatch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Stock updated successfully",
		"stock":   rec,
	})
}

type exitRequest struct {
	Ticker    model.FlexString `json:"ticker"`
	ExitValue model.FlexString `json:"exitValue"`
	ExitNotes model.FlexString `json:"exitNotes"`
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	var req exitRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.svc.Exit(r.Context(), req.Ticker.String(), req.ExitValue.String(), req.ExitNotes.String())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Exit recorded successfully",
		"stock":         rec,
		"returnPercent": rec.ReturnPercent,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker model.FlexString `json:"ticker"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.Delete(r.Context(), req.Ticker.String()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Stock deleted successfully",
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entry     model.FlexString `json:"entry"`
		ExitValue model.FlexString `json:"exitValue"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"returnPercent": s.svc.PreviewReturn(req.Entry.String(), req.ExitValue.String()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "price refresh is not configured")
		return
	}
	if err := s.svc.Store.Authorize(r.Context(), store.OpUpdate); err != nil {
		s.fail(w, err)
		return
	}
	ctx := s.base
	if code, ok := store.CredentialFrom(r.Context()); ok {
		ctx = store.WithCredential(ctx, code)
	}
	if err := s.refresher.Start(ctx); err != nil {
		if errors.Is(err, scheduler.ErrRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": "Price refresh started",
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Quote(r.Context(), r.PathValue("ticker"))
	if err != nil {
		log.Warn().Err(err).Str("ticker", r.PathValue("ticker")).Msg("quote failed")
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Server is running!"})
}

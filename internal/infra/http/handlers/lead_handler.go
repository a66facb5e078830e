package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/storage"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// Room left on top of the file ceiling for the multipart framing and text
// fields.
const multipartOverhead = 1 << 20

type LeadHandler struct {
	createUC      *usecase.CreateLeadUseCase
	leads         *usecase.LeadService
	rateLimiter   *RateLimiter
	maxUploadSize int64
	logger        *zap.Logger
}

func NewLeadHandler(createUC *usecase.CreateLeadUseCase, leads *usecase.LeadService, maxUploadSize int64, logger *zap.Logger) *LeadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{
		createUC:      createUC,
		leads:         leads,
		rateLimiter:   NewRateLimiter(10, time.Minute), // 10 req/min per IP
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Submit is the public intake endpoint: multipart form with first_name,
// last_name, email and a resume file.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "resume exceeds the maximum allowed size",
				Code:  usecase.CodeFileTooLarge,
			})
			return
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid multipart form",
			Code:  usecase.CodeValidation,
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	input := usecase.CreateLeadInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
	}

	resume := usecase.ResumeUpload{}
	file, header, err := r.FormFile("resume")
	if err == nil {
		defer file.Close()
		resume.Reader = file
		resume.Filename = header.Filename
		resume.ContentType = header.Header.Get("Content-Type")
	}

	lead, err := h.createUC.Execute(ctx, input, resume)
	if err != nil {
		middleware.RecordLeadSubmission("failed")
		if te, ok := usecase.AsTechnicalError(err); ok {
			switch te.Code {
			case usecase.CodeRenderFailed, usecase.CodeDeliveryFailed, usecase.CodeNotificationFailed:
				middleware.RecordNotificationFailure(te.Code)
			}
		}
		respondError(w, h.logger, err)
		return
	}

	middleware.RecordLeadSubmission("created")
	respondJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListLeadsInput{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := entity.ParseLeadStatus(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  usecase.CodeValidation,
			})
			return
		}
		input.Status = &status
	}

	page, err := h.leads.ListLeads(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.GetLead(r.Context(), chi.URLParam(r, "leadId"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON body",
			Code:  usecase.CodeValidation,
		})
		return
	}

	status, err := entity.ParseLeadStatus(req.Status)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  usecase.CodeValidation,
		})
		return
	}

	lead, err := h.leads.UpdateLeadStatus(r.Context(), chi.URLParam(r, "leadId"), status)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.DeleteLead(r.Context(), chi.URLParam(r, "leadId")); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	path, key, err := h.leads.ResolveResume(r.Context(), chi.URLParam(r, "leadId"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", storage.ContentType(key))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key))
	http.ServeFile(w, r, path)
}

func (h *LeadHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.leads.CountByStatus(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

// queryInt reads an integer query parameter; anything unparsable becomes 0 and
// the service applies its defaults.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

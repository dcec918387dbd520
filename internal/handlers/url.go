package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
	"go.uber.org/zap"
)

// Shortener is the subset of shortener.Service used by the handlers.
type Shortener interface {
	Shorten(ctx context.Context, rawURL string) (*shortener.Shortened, error)
	LookupActive(ctx context.Context, hash shortener.Hash) (*shortener.Record, error)
	Deactivate(ctx context.Context, hash shortener.Hash, removeToken string) (*shortener.Deactivation, error)
}

// VisitRecorder logs visits without blocking the caller.
type VisitRecorder interface {
	RegisterVisit(ctx context.Context, url string, hash shortener.Hash) bool
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service  Shortener
	recorder VisitRecorder
	visits   visits.Store
	logger   *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	service Shortener,
	recorder VisitRecorder,
	visitStore visits.Store,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		service:  service,
		recorder: recorder,
		visits:   visitStore,
		logger:   logger,
	}
}

func (h *URLHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	if strings.TrimSpace(req.Body.URL) == "" {
		return nil, huma.Error400BadRequest("url is required")
	}

	res, err := h.service.Shorten(ctx, req.Body.URL)
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) {
			return nil, huma.Error400BadRequest("invalid url", err)
		}

		h.logger.Error("failed to shorten url",
			zap.String("url", req.Body.URL),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to save url")
	}

	resp := &ShortenResponse{}
	resp.Body.URL = res.URL
	resp.Body.Shorten = res.ShortenedLink
	resp.Body.Hash = string(res.Hash)
	resp.Body.RemoveURL = res.RemovalLink
	resp.Body.Created = res.Created

	return resp, nil
}

func (h *URLHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	record, err := h.service.LookupActive(ctx, shortener.Hash(req.Hash))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short url not found")
		}

		h.logger.Error("failed to get url",
			zap.String("hash", req.Hash),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	h.recorder.RegisterVisit(ctx, record.URL, record.Hash)

	resp := &ResolveResponse{}

	switch preferredMediaType(req.Accept) {
	case "text/plain":
		resp.Status = http.StatusOK
		resp.Headers.ContentType = "text/plain; charset=utf-8"
		resp.Body = []byte(record.URL)
	case "application/json":
		body, err := json.Marshal(ResolveBody{URL: record.URL})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to encode url")
		}

		resp.Status = http.StatusOK
		resp.Headers.ContentType = "application/json"
		resp.Body = body
	default:
		resp.Status = http.StatusFound
		resp.Headers.Location = record.URL
	}

	return resp, nil
}

func (h *URLHandler) ListVisits(ctx context.Context, req *VisitsRequest) (*VisitsResponse, error) {
	list, err := h.visits.ListByHash(ctx, shortener.Hash(req.Hash))
	if err != nil {
		h.logger.Error("failed to list visits",
			zap.String("hash", req.Hash),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to get visits")
	}

	resp := &VisitsResponse{}
	resp.Body.VisitsCount = len(list)
	resp.Body.Visits = make([]VisitBody, 0, len(list))

	for _, v := range list {
		resp.Body.Visits = append(resp.Body.Visits, VisitBody{
			URL:       v.URL,
			Hash:      string(v.Hash),
			CreatedAt: v.CreatedAt,
			ClientIP:  v.ClientIP,
			UserAgent: v.UserAgent,
			Referrer:  v.Referrer,
		})
	}

	return resp, nil
}

func (h *URLHandler) Deactivate(ctx context.Context, req *DeactivateRequest) (*DeactivateResponse, error) {
	out, err := h.service.Deactivate(ctx, shortener.Hash(req.Hash), req.RemoveToken)
	if err != nil {
		h.logger.Error("failed to deactivate url",
			zap.String("hash", req.Hash),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to deactivate url")
	}

	if out.Removed {
		h.logger.Info("url deactivated", zap.String("hash", req.Hash))
	}

	resp := &DeactivateResponse{}
	resp.Body.Success = out.Success
	resp.Body.Removed = out.Removed
	resp.Body.Message = out.Message

	return resp, nil
}

// preferredMediaType returns the first media type listed in an Accept header.
func preferredMediaType(accept string) string {
	first, _, _ := strings.Cut(accept, ",")
	mediaType, _, _ := strings.Cut(first, ";")

	return strings.ToLower(strings.TrimSpace(mediaType))
}

package webui

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	handlerName     = "HTTPHandler"
	maxRequestBytes = 1 << 20
)

type Handler struct {
	config  *config.Config
	logger  *zap.Logger
	manager *Manager
	loop    *Loop
}

type HandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Manager *Manager
	Loop    *Loop
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, handlerName)),
		manager: params.Manager,
		loop:    params.Loop,
	}
}

type changeRequest struct {
	Value any `json:"value"`
}

type changeResponse struct {
	Updates map[string]entity.Component `json:"updates"`
}

type runRequest struct {
	Task     string `json:"task"`
	StartURL string `json:"start_url"`
}

type saveRequest struct {
	Dir string `json:"dir"`
}

type saveResponse struct {
	Path string `json:"path"`
}

type loadRequest struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/components", h.listComponents)
		r.Get("/components/{key}", h.getComponent)
		r.Post("/components/{key}/change", h.changeComponent)
		r.Get("/rules", h.listRules)

		r.Get("/session", h.sessionStatus)
		r.Post("/session/launch", h.launchSession)
		r.Post("/session/run", h.runTask)
		r.Post("/session/stop", h.stopSession)

		r.Post("/config/save", h.saveConfig)
		r.Post("/config/load", h.loadConfig)
	})

	return r
}

func (h *Handler) listComponents(w http.ResponseWriter, r *http.Request) {
	var out map[string]entity.Component

	err := h.loop.Do(r.Context(), func(context.Context) error {
		out = h.manager.Components()

		return nil
	})

	h.respond(w, out, err)
}

func (h *Handler) getComponent(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var out entity.Component

	err := h.loop.Do(r.Context(), func(context.Context) error {
		var err error
		out, err = h.manager.Component(key)

		return err
	})

	h.respond(w, out, err)
}

func (h *Handler) changeComponent(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond(w, nil, apperr.InvalidReqError("changeComponent", "body", err))

		return
	}

	var updates map[string]entity.Component

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		var err error
		updates, err = h.manager.Change(ctx, key, req.Value)

		return err
	})

	h.respond(w, changeResponse{Updates: updates}, err)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	var out []RuleInfo

	err := h.loop.Do(r.Context(), func(context.Context) error {
		out = h.manager.Rules()

		return nil
	})

	h.respond(w, out, err)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	var out entity.SessionStatus

	err := h.loop.Do(r.Context(), func(context.Context) error {
		out = h.manager.SessionStatus()

		return nil
	})

	h.respond(w, out, err)
}

func (h *Handler) launchSession(w http.ResponseWriter, r *http.Request) {
	var out entity.SessionStatus

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		var err error
		out, err = h.manager.LaunchSession(ctx)

		return err
	})

	h.respond(w, out, err)
}

func (h *Handler) runTask(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond(w, nil, apperr.InvalidReqError("runTask", "body", err))

		return
	}

	var out entity.SessionStatus

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		var err error
		out, err = h.manager.RunTask(ctx, req.Task, req.StartURL)

		return err
	})

	h.respond(w, out, err)
}

func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	var out entity.SessionStatus

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		out = h.manager.StopSession(ctx)

		return nil
	})

	h.respond(w, out, err)
}

func (h *Handler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond(w, nil, apperr.InvalidReqError("saveConfig", "body", err))

		return
	}

	if req.Dir == "" {
		req.Dir = h.config.AgentConfig.SettingsDir
	}

	var out saveResponse

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		var err error
		out.Path, err = h.manager.SaveConfig(ctx, req.Dir)

		return err
	})

	h.respond(w, out, err)
}

func (h *Handler) loadConfig(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(r, &req); err != nil || req.Path == "" {
		if err == nil {
			err = errors.New("path is required")
		}

		h.respond(w, nil, apperr.InvalidReqError("loadConfig", "path", err))

		return
	}

	var updates map[string]entity.Component

	err := h.loop.Do(r.Context(), func(ctx context.Context) error {
		var err error
		updates, err = h.manager.LoadConfig(ctx, req.Path)

		return err
	})

	h.respond(w, changeResponse{Updates: updates}, err)
}

func (h *Handler) respond(w http.ResponseWriter, body any, err error) {
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Request failed", zap.Error(err))
		}

		writeJSON(w, status, errorResponse{Error: err.Error(), Code: apperr.CodeOf(err)})

		return
	}

	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func statusOf(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}

	if errors.Is(err, ErrLoopStopped) {
		return http.StatusServiceUnavailable
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidArgument, apperr.CodeParseFailed:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeDuplicateKey, apperr.CodeTaskRunning:
		return http.StatusConflict
	case apperr.CodeSessionAbsent:
		return http.StatusPreconditionFailed
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON accepts an empty body as the zero value.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(nil, r.Body, maxRequestBytes)); err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil
	}

	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package task

import (
	"errors"
	"log/slog"
	"net/http"

	dto "taskboard/internal/api/dto/task"
	"taskboard/internal/client/taskapi"
	"taskboard/internal/converter"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/service"
	"taskboard/internal/service/dashboard"
	"taskboard/pkg/req"
	"taskboard/pkg/resp"

	"github.com/go-chi/chi/v5"
)

type HandlerDeps struct {
	Tasks service.TaskAPIFactory
	// SignOut handles 401 answers of the task backend
	SignOut http.Handler
	Logger  *slog.Logger
}

type Handler struct {
	tasks   service.TaskAPIFactory
	signOut http.Handler
	logger  *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tasks:   deps.Tasks,
		signOut: deps.SignOut,
		logger:  logger.With("component", "dashboard"),
	}
}

// Dashboard answers the task list selected by ?filter=&sort=&q=
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToViewResponse(b.View(q)))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := req.Decode[dto.CreateTaskRequest](r.Body)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	_, err = b.Create(r.Context(), converter.CreateTaskRequestToInput(payload))
	h.finish(w, r, b, q, err, http.StatusCreated)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := req.Decode[dto.UpdateTaskRequest](r.Body)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	_, err = b.Update(r.Context(), chi.URLParam(r, "id"), converter.UpdateTaskRequestToPatch(payload))
	h.finish(w, r, b, q, err, http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	err = b.Delete(r.Context(), chi.URLParam(r, "id"))
	h.finish(w, r, b, q, err, http.StatusOK)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	_, err = b.ToggleComplete(r.Context(), chi.URLParam(r, "id"))
	h.finish(w, r, b, q, err, http.StatusOK)
}

// load builds the board of the signed in store and fetches the tasks.
// A failed fetch stays on the board as a notice; a 401 signs out.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (service.DashboardService, bool) {
	store, ok := middleware.StoreFrom(r.Context())
	if !ok {
		h.logger.Error("dashboard reached without a session store", "path", r.URL.Path)
		resp.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	b := dashboard.NewBoard(h.tasks.NewTaskAPI(store.Tokens()), store.State().User, h.logger)
	if err := b.Load(r.Context()); errors.Is(err, taskapi.ErrUnauthorized) {
		h.signOut.ServeHTTP(w, r)
		return nil, false
	}
	return b, true
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, b service.DashboardService, q model.ViewQuery, err error, okStatus int) {
	switch {
	case err == nil:
		resp.WriteJSONResponse(w, okStatus, converter.ToViewResponse(b.View(q)))
	case errors.Is(err, dashboard.ErrInvalidTask):
		resp.WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, taskapi.ErrUnauthorized):
		h.signOut.ServeHTTP(w, r)
	default:
		h.logger.Warn("task backend call failed", "path", r.URL.Path, "error", err)
		resp.WriteJSONResponse(w, http.StatusBadGateway, converter.ToViewResponse(b.View(q)))
	}
}

func parseQuery(r *http.Request) (model.ViewQuery, error) {
	values := r.URL.Query()

	filter, err := dashboard.ParseFilter(values.Get("filter"))
	if err != nil {
		return model.ViewQuery{}, err
	}
	order, err := dashboard.ParseSort(values.Get("sort"))
	if err != nil {
		return model.ViewQuery{}, err
	}

	return model.ViewQuery{
		Filter: filter,
		Sort:   order,
		Search: values.Get("q"),
	}, nil
}

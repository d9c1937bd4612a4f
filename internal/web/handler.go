package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"curriculum-push/internal/models"
	"curriculum-push/internal/service"
	queue_service "curriculum-push/internal/service/queue"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	queueService service.CurriculumQueueService
	logger       *zap.Logger
}

func NewHandler(queueService service.CurriculumQueueService, logger *zap.Logger) *Handler {
	return &Handler{
		queueService: queueService,
		logger:       logger.Named("web"),
	}
}

// entryRequest - тело запросов добавления и обновления
type entryRequest struct {
	ID          int    `json:"curriculum_id"`
	CourseName  string `json:"course_name"`
	Period      int    `json:"curriculum_period"`
	Week        int    `json:"curriculum_week"`
	Section     int    `json:"curriculum_section"`
	Classroom   string `json:"classroom"`
	TeacherName string `json:"teacher_name"`
	Remark      string `json:"remark"`
}

func (r entryRequest) toModel() models.CurriculumEntry {
	return models.CurriculumEntry{
		ID:          r.ID,
		CourseName:  r.CourseName,
		Period:      r.Period,
		Week:        r.Week,
		Section:     r.Section,
		Classroom:   r.Classroom,
		TeacherName: r.TeacherName,
		Remark:      r.Remark,
	}
}

// ListAll GET /curriculum
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.queueService.ListAll(r.Context())
	h.respond(w, res, err)
}

// ListUpcoming GET /curriculum/upcoming
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	res, err := h.queueService.ListUpcoming(r.Context())
	h.respond(w, res, err)
}

// ListPage GET /curriculum/page?page=1&size=10
func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	res, err := h.queueService.ListPage(r.Context(), page, size)
	h.respond(w, res, err)
}

// Add POST /curriculum
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	res, err := h.queueService.Add(r.Context(), req.toModel())
	h.respond(w, res, err)
}

// Update PUT /curriculum
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, err)
		return
	}

	res, err := h.queueService.Update(r.Context(), req.toModel())
	h.respond(w, res, err)
}

// DeleteMany POST /curriculum/delete, тело - массив ID
func (h *Handler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var ids []int
	if err := decodeJSON(w, r, &ids); err != nil {
		h.badRequest(w, err)
		return
	}

	res, err := h.queueService.DeleteMany(r.Context(), ids)
	h.respond(w, res, err)
}

// Reset POST /curriculum/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	res, err := h.queueService.Reset(r.Context())
	h.respond(w, res, err)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, res *models.Result, err error) {
	if res == nil {
		res = models.Failed().WithMessage("Внутренняя ошибка")
	}
	writeJSON(w, statusFor(err), res)
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	h.logger.Warn("bad request", zap.Error(err))
	writeJSON(w, http.StatusBadRequest, models.Failed().
		WithMessage("Некорректный запрос").
		WithDescription(err.Error()))
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, queue_service.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, queue_service.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue_service.ErrTimeConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single json value")
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/exam-attendance/internal/config"
	"github.com/kirillkom/exam-attendance/internal/core/domain"
	"github.com/kirillkom/exam-attendance/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceRecorder receives attendance events for metrics.
type AttendanceRecorder interface {
	RecordStatusChange(operation string, status domain.Status, count int)
	RecordEdit(err error)
	RecordReport(action string, err error)
}

type Router struct {
	cfg        config.Config
	ingest     ports.RosterIngestor
	attendance ports.AttendanceService
	reports    ports.ReportService
	recorder   AttendanceRecorder
	metrics    http.Handler
	wrap       func(http.Handler) http.Handler
}

func NewRouter(
	cfg config.Config,
	ingest ports.RosterIngestor,
	attendance ports.AttendanceService,
	reports ports.ReportService,
) *Router {
	return &Router{
		cfg:        cfg,
		ingest:     ingest,
		attendance: attendance,
		reports:    reports,
	}
}

// WithMetrics exposes the registry on /metrics, records attendance events and
// wraps every request with the given instrumentation middleware.
func (rt *Router) WithMetrics(handler http.Handler, middleware func(http.Handler) http.Handler, recorder AttendanceRecorder) *Router {
	rt.metrics = handler
	rt.wrap = middleware
	rt.recorder = recorder
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}

	mux.HandleFunc("POST /v1/ingestions", rt.uploadRoster)
	mux.HandleFunc("GET /v1/ingestions/{id}", rt.getIngestion)

	mux.HandleFunc("GET /v1/rooms", rt.listRooms)
	mux.HandleFunc("GET /v1/rooms/{room}", rt.getRoom)
	mux.HandleFunc("PUT /v1/rooms/{room}/candidates/{hall_ticket}", rt.setStatus)
	mux.HandleFunc("POST /v1/rooms/{room}/status", rt.bulkSetStatus)
	mux.HandleFunc("POST /v1/candidates/edit", rt.editCandidate)

	mux.HandleFunc("GET /v1/stats", rt.stats)
	mux.HandleFunc("GET /v1/cohorts", rt.listCohorts)
	mux.HandleFunc("GET /v1/cohorts/{code}", rt.getCohort)
	mux.HandleFunc("GET /v1/snapshot", rt.snapshot)
	mux.HandleFunc("GET /v1/exam", rt.getExam)
	mux.HandleFunc("PUT /v1/exam", rt.putExam)

	mux.HandleFunc("POST /v1/reports/dform", rt.publishReport)
	mux.HandleFunc("GET /v1/reports/dform.xlsx", rt.downloadReport)
	mux.HandleFunc("POST /v1/session/reset", rt.resetSession)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.wrap != nil {
		handler = rt.wrap(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

type statsResponse struct {
	domain.Stats
	Percentages domain.Percentages `json:"percentages"`
}

func newStatsResponse(s domain.Stats) statsResponse {
	return statsResponse{Stats: s, Percentages: s.Percentages()}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadRoster(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadMB > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(rt.cfg.MaxUploadMB)<<20)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", rt.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	mode := domain.IngestionMode(strings.ToLower(strings.TrimSpace(r.FormValue("mode"))))
	job, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, mode, file)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getIngestion(w http.ResponseWriter, r *http.Request) {
	job, err := rt.ingest.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := rt.attendance.Rooms()
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"stats": newStatsResponse(rt.attendance.Stats(nil)),
	})
}

func (rt *Router) getRoom(w http.ResponseWriter, r *http.Request) {
	filter, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := rt.attendance.RoomView(r.PathValue("room"), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	stats, err := rt.attendance.SetStatus(r.PathValue("room"), r.PathValue("hall_ticket"), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rt.recordStatusChange("set", status, 1)
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (rt *Router) bulkSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	room := r.PathValue("room")
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	stats, written, err := rt.attendance.BulkSetStatus(room, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rt.recordStatusChange("bulk", status, written)
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (rt *Router) editCandidate(w http.ResponseWriter, r *http.Request) {
	var edit domain.CandidateEdit
	if !decodeJSON(w, r, &edit) {
		return
	}
	edit.Status = domain.Status(strings.ToLower(strings.TrimSpace(string(edit.Status))))

	stats, err := rt.attendance.Edit(edit)
	if rt.recorder != nil {
		rt.recorder.RecordEdit(err)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatsResponse(rt.attendance.Stats(parseRooms(r))))
}

func (rt *Router) listCohorts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cohorts": rt.attendance.CohortGroups(parseRooms(r), filter),
	})
}

func (rt *Router) getCohort(w http.ResponseWriter, r *http.Request) {
	filter, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.attendance.CohortView(r.PathValue("code"), parseRooms(r), filter))
}

func (rt *Router) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.attendance.Snapshot())
}

func (rt *Router) getExam(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.attendance.ExamDetails())
}

func (rt *Router) putExam(w http.ResponseWriter, r *http.Request) {
	var details domain.ExamDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	rt.attendance.SetExamDetails(details)
	writeJSON(w, http.StatusOK, rt.attendance.ExamDetails())
}

func (rt *Router) publishReport(w http.ResponseWriter, r *http.Request) {
	req, err := rt.reports.Publish(r.Context())
	if rt.recorder != nil {
		rt.recorder.RecordReport("publish", err)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":           req.ID,
		"rooms":        req.Rooms,
		"stats":        newStatsResponse(req.Stats),
		"generated_at": req.GeneratedAt,
	})
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := rt.reports.Render(r.Context(), &buf)
	if rt.recorder != nil {
		rt.recorder.RecordReport("download", err)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) resetSession(w http.ResponseWriter, _ *http.Request) {
	rt.attendance.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) recordStatusChange(operation string, status domain.Status, count int) {
	if rt.recorder != nil {
		rt.recorder.RecordStatusChange(operation, status, count)
	}
}

// parseRooms reads ?rooms=a,b. An absent parameter selects every room.
func parseRooms(r *http.Request) []string {
	if !r.URL.Query().Has("rooms") {
		return nil
	}
	rooms := []string{}
	for _, room := range strings.Split(r.URL.Query().Get("rooms"), ",") {
		if room = strings.TrimSpace(room); room != "" {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// parseStatusFilter maps "" and "all" to no filter.
func parseStatusFilter(raw string) (domain.Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	return domain.ParseStatus(raw)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

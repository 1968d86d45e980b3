package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"energi/internal/core"
	"energi/internal/dataset"
	applog "energi/internal/log"
)

// eventPayload is the wire shape of one ledger event. Duration travels as
// HH:MM:SS, matching the persisted table.
type eventPayload struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Category string  `json:"category"`
	Activity string  `json:"activity,omitempty"`
	Energy   int     `json:"energy"`
	Protein  float64 `json:"protein,omitempty"`
	Carb     float64 `json:"carb,omitempty"`
	Fat      float64 `json:"fat,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	Duration string  `json:"duration,omitempty"`
	Pace     float64 `json:"pace,omitempty"`
	Steps    int     `json:"steps,omitempty"`
	Note     string  `json:"note,omitempty"`
}

type eventDTO struct {
	Date       core.Date      `json:"date"`
	Time       core.TimeOfDay `json:"time"`
	Category   core.Category  `json:"category"`
	Activity   string         `json:"activity,omitempty"`
	Energy     int            `json:"energy"`
	Protein    float64        `json:"protein"`
	Carb       float64        `json:"carb"`
	Fat        float64        `json:"fat"`
	Distance   float64        `json:"distance,omitempty"`
	Duration   string         `json:"duration,omitempty"`
	Pace       float64        `json:"pace,omitempty"`
	Steps      int            `json:"steps,omitempty"`
	Note       string         `json:"note,omitempty"`
	Summary    string         `json:"summary"`
	EnergyAcc  int            `json:"energy_acc"`
	ProteinAcc float64        `json:"protein_acc"`
}

type deletePayload struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Summary string `json:"summary"`
}

type dayResponse struct {
	Date   core.Date  `json:"date"`
	Events []eventDTO `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (p eventPayload) toEvent() (core.Event, error) {
	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		return core.Event{}, fmt.Errorf("date: %w", err)
	}
	tod, err := core.ParseTimeOfDay(strings.TrimSpace(p.Time))
	if err != nil {
		return core.Event{}, fmt.Errorf("time: %w", err)
	}

	e := core.Event{
		Date:     date,
		Time:     tod,
		Category: core.Category(strings.ToUpper(strings.TrimSpace(p.Category))),
		Activity: strings.TrimSpace(p.Activity),
		Energy:   p.Energy,
		Protein:  p.Protein,
		Carb:     p.Carb,
		Fat:      p.Fat,
		Distance: p.Distance,
		Duration: dataset.ParseDuration(strings.TrimSpace(p.Duration)),
		Pace:     p.Pace,
		Steps:    p.Steps,
		Note:     strings.TrimSpace(p.Note),
	}
	if e.Category == core.CategoryFood && e.Activity == "" {
		e.Activity = core.ActivityEat
	}
	return e, nil
}

func toDTO(e core.Event) eventDTO {
	dto := eventDTO{
		Date:       e.Date,
		Time:       e.Time,
		Category:   e.Category,
		Activity:   e.Activity,
		Energy:     e.Energy,
		Protein:    e.Protein,
		Carb:       e.Carb,
		Fat:        e.Fat,
		Distance:   e.Distance,
		Pace:       e.Pace,
		Steps:      e.Steps,
		Note:       e.Note,
		Summary:    e.Summary(),
		EnergyAcc:  e.EnergyAcc,
		ProteinAcc: e.ProteinAcc,
	}
	if e.Duration > 0 {
		dto.Duration = dataset.FormatDuration(e.Duration)
	}
	return dto
}

func toDayResponse(date core.Date, events []core.Event) dayResponse {
	resp := dayResponse{Date: date, Events: make([]eventDTO, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toDTO(e))
	}
	return resp
}

// handleInsertEvent appends one event and returns the rebuilt day.
func (s *Server) handleInsertEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	event, err := payload.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.Insert(r.Context(), event, s.bmr); err != nil {
		s.writeServiceError(w, r, "insert event", applog.OpInsert, err)
		return
	}

	day, err := s.svc.DayLedger(r.Context(), event.Date)
	if err != nil {
		s.writeServiceError(w, r, "read back day", applog.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDayResponse(event.Date, day))
}

// handleDeleteEvent removes one event, identified by its time and summary
// line, and returns the rebuilt day.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload deletePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	date, err := core.ParseDate(strings.TrimSpace(payload.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date: "+err.Error())
		return
	}
	tod, err := core.ParseTimeOfDay(strings.TrimSpace(payload.Time))
	if err != nil {
		writeError(w, http.StatusBadRequest, "time: "+err.Error())
		return
	}
	if strings.TrimSpace(payload.Summary) == "" {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	if err := s.svc.Delete(r.Context(), date, tod, strings.TrimSpace(payload.Summary), s.bmr); err != nil {
		s.writeServiceError(w, r, "delete event", applog.OpDelete, err)
		return
	}

	day, err := s.svc.DayLedger(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, "read back day", applog.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(date, day))
}

// handleDayLedger returns one day's accumulated rows.
func (s *Server) handleDayLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date: "+err.Error())
		return
	}

	day, err := s.svc.DayLedger(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, "load day", applog.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(date, day))
}

// handleItems returns the deletable rows of a day as time+summary pairs.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date: "+err.Error())
		return
	}

	items, err := s.svc.Items(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, "load items", applog.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAnalyze returns the deficit analysis anchored at the given date.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date: "+err.Error())
		return
	}

	analysis, err := s.svc.Analyze(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, "analyze", applog.OpAnalyze, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// dateParam reads the date query parameter, defaulting to today.
func dateParam(r *http.Request) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		now := time.Now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDate(raw)
}

// writeServiceError maps domain errors onto status codes: unknown rows are
// 404, rejected events 422, backing store failures 502.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	var storeErr *dataset.StoreError

	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrMalformedEvent), errors.Is(err, core.ErrInvalidBaseline):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &storeErr):
		s.logger.ErrorContext(r.Context(), msg,
			applog.FieldError, err,
			applog.FieldOperation, op)
		writeError(w, http.StatusBadGateway, "backing store unavailable")
	default:
		s.logger.ErrorContext(r.Context(), msg,
			applog.FieldError, err,
			applog.FieldOperation, op)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

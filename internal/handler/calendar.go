package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/ics"
	"agenda/internal/model"
	"agenda/internal/store"
)

type CalendarHandler struct {
	events *store.EventStore
	logger *slog.Logger
}

func NewCalendarHandler(es *store.EventStore, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{events: es, logger: logger}
}

// Month handles GET /api/calendar/month?year=2025&month=10 and returns
// the padded month grid with events and holidays attached.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}
	month := time.Month(monthNum)

	// The grid pads into adjacent months, so fetch a week past each edge.
	first := model.NewDate(year, month, 1)
	last := model.NewDate(year, month, model.DaysInMonth(year, month))
	events, err := h.events.ListByRange(first.AddDays(-7), last.AddDays(7))
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": monthNum,
		"weeks": calendar.MonthGrid(year, month, events),
	})
}

// Week handles GET /api/calendar/week?date=2025-10-15 and returns the
// Sunday-first week containing the date.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	date, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	sunday := date.AddDays(-int(date.Weekday()))
	events, err := h.events.ListByRange(sunday, sunday.AddDays(6))
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date": date,
		"days": calendar.Week(date, events),
	})
}

// Export handles GET /api/export.ics: the whole schedule as an iCalendar
// feed for subscription by external calendar apps.
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="agenda.ics"`)
	w.Write([]byte(ics.Export(events)))
}

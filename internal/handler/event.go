package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"agenda/internal/conflict"
	"agenda/internal/model"
	"agenda/internal/recurrence"
	"agenda/internal/store"
	ws "agenda/internal/websocket"
)

type EventHandler struct {
	events *store.EventStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewEventHandler(es *store.EventStore, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: es, hub: hub, logger: logger}
}

type eventRequest struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Location         string           `json:"location"`
	Category         string           `json:"category"`
	Date             model.Date       `json:"date"`
	StartTime        model.TimeOfDay  `json:"start_time"`
	EndTime          model.TimeOfDay  `json:"end_time"`
	Repeat           model.RepeatRule `json:"repeat"`
	NotificationTime int              `json:"notification_time"`
}

func (h *EventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*eventRequest, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return nil, false
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required")
		return nil, false
	}
	if req.StartTime >= req.EndTime {
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
		return nil, false
	}
	if req.Repeat.Repeating() && req.Repeat.Interval < 1 {
		writeError(w, http.StatusBadRequest, "repeat interval must be at least 1")
		return nil, false
	}

	return &req, true
}

func (req *eventRequest) toEvent() model.Event {
	e := model.Event{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		Category:         req.Category,
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Repeat:           req.Repeat,
		NotificationTime: req.NotificationTime,
	}
	if !e.Repeat.Repeating() {
		e.Repeat = model.NoRepeat()
	}
	return e
}

// expand turns a seed event into its full instance batch. Non-repeating
// seeds expand to themselves; repeating seeds become one instance per
// occurrence, sharing the group id minted by the generator.
func (h *EventHandler) expand(seed model.Event) ([]model.Event, error) {
	if !seed.Repeat.Repeating() {
		return []model.Event{seed}, nil
	}
	return recurrence.Generate(seed, seed.Repeat, recurrence.Options{})
}

// findConflicts checks every candidate instance against the events
// already stored on its date. excludeID marks which stored row is being
// edited so it does not conflict with itself; zero for new events.
func (h *EventHandler) findConflicts(batch []model.Event, excludeID int64) ([]model.Event, error) {
	var conflicts []model.Event
	seen := make(map[int64]struct{})

	for _, candidate := range batch {
		existing, err := h.events.ListByDate(candidate.Date)
		if err != nil {
			return nil, err
		}
		candidate.ID = excludeID
		for _, c := range conflict.FindConflicts(candidate, existing) {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

// Create handles POST /api/events. A repeating request is expanded into
// its whole series and stored atomically. Overlapping events produce a
// 409 with the conflicting events unless ?force=1 is set.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	batch, err := h.expand(req.toEvent())
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidRule) {
			writeError(w, http.StatusBadRequest, "invalid repeat rule")
			return
		}
		h.logger.Error("expand series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to expand series")
		return
	}

	if !forceRequested(r) {
		conflicts, err := h.findConflicts(batch, 0)
		if err != nil {
			h.logger.Error("conflict check", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check conflicts")
			return
		}
		if len(conflicts) > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     "schedule conflict",
				"conflicts": conflicts,
			})
			return
		}
	}

	stored, err := h.events.CreateBatch(batch)
	if err != nil {
		h.logger.Error("create events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Broadcast(ws.EventMessage("created", stored[0].ID))
	writeJSON(w, http.StatusCreated, stored)
}

// List handles GET /api/events with optional start, end, and q filters.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		events []model.Event
		err    error
	)
	switch {
	case q.Get("q") != "":
		events, err = h.events.Search(q.Get("q"))
	case q.Get("start") != "" && q.Get("end") != "":
		var start, end model.Date
		if start, err = model.ParseDate(q.Get("start")); err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		if end, err = model.ParseDate(q.Get("end")); err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		events, err = h.events.ListByRange(start, end)
	default:
		events, err = h.events.List()
	}
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Update handles PUT /api/events/{id}. Editing a member of a recurring
// series detaches it: the stored row becomes a standalone event and the
// rest of the series is untouched. A non-repeating event updated with a
// repeat rule is replaced by a freshly expanded series.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	req, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	updated := req.toEvent()
	updated.ID = id

	if existing.Repeat.Repeating() {
		updated = recurrence.Detach(updated)
	}

	if updated.Repeat.Repeating() {
		h.replaceWithSeries(w, r, existing, updated)
		return
	}

	if !forceRequested(r) {
		conflicts, err := h.findConflicts([]model.Event{updated}, id)
		if err != nil {
			h.logger.Error("conflict check", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check conflicts")
			return
		}
		if len(conflicts) > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     "schedule conflict",
				"conflicts": conflicts,
			})
			return
		}
	}

	stored, err := h.events.Update(id, updated)
	if err != nil {
		h.logger.Error("update event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.hub.Broadcast(ws.EventMessage("updated", id))
	writeJSON(w, http.StatusOK, stored)
}

// replaceWithSeries converts a standalone event into a recurring series:
// the old row is removed and the expanded batch stored in its place.
func (h *EventHandler) replaceWithSeries(w http.ResponseWriter, r *http.Request, existing *model.Event, updated model.Event) {
	batch, err := h.expand(updated)
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidRule) {
			writeError(w, http.StatusBadRequest, "invalid repeat rule")
			return
		}
		h.logger.Error("expand series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to expand series")
		return
	}

	if !forceRequested(r) {
		conflicts, err := h.findConflicts(batch, existing.ID)
		if err != nil {
			h.logger.Error("conflict check", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check conflicts")
			return
		}
		if len(conflicts) > 0 {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     "schedule conflict",
				"conflicts": conflicts,
			})
			return
		}
	}

	stored, err := h.events.ReplaceWithBatch(existing.ID, batch)
	if err != nil {
		h.logger.Error("replace with series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.hub.Broadcast(ws.EventMessage("updated", stored[0].ID))
	writeJSON(w, http.StatusOK, stored)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.events.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.events.Delete(id); err != nil {
		h.logger.Error("delete event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.hub.Broadcast(ws.EventMessage("deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroup handles DELETE /api/event-groups/{group_id}: removes every
// member of a recurring series. Detached events keep no group id, so
// they are never swept up.
func (h *EventHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("group_id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "group id is required")
		return
	}

	n, err := h.events.DeleteByGroup(groupID)
	if err != nil {
		h.logger.Error("delete group", "error", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "failed to delete series")
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}

	h.hub.Broadcast(ws.Message{Type: "event_group_deleted", Entity: "event", Action: "group_deleted", Extra: map[string]any{"group_id": groupID, "deleted": n}})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

// CheckConflicts handles POST /api/events/conflicts: a dry-run conflict
// probe for the given event against the stored schedule. Pass id to
// exclude the event being edited.
func (h *EventHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		eventRequest
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartTime >= req.EndTime {
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
		return
	}

	batch, err := h.expand(req.toEvent())
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidRule) {
			writeError(w, http.StatusBadRequest, "invalid repeat rule")
			return
		}
		h.logger.Error("expand series", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to expand series")
		return
	}

	conflicts, err := h.findConflicts(batch, req.ID)
	if err != nil {
		h.logger.Error("conflict check", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check conflicts")
		return
	}
	if conflicts == nil {
		conflicts = []model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

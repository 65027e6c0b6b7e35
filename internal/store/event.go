package store

import (
	"database/sql"
	"fmt"

	"agenda/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, title, description, location, category, date, start_time, end_time,
	repeat_type, repeat_interval, repeat_end_date, repeat_count, repeat_group_id,
	notification_time, created_at, updated_at`

// Create inserts a single event and returns the stored row. The id on the
// argument is ignored; the database assigns identity.
func (s *EventStore) Create(e model.Event) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (title, description, location, category, date, start_time, end_time,
		 repeat_type, repeat_interval, repeat_end_date, repeat_count, repeat_group_id, notification_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Location, e.Category,
		e.Date.String(), e.StartTime.String(), e.EndTime.String(),
		string(e.Repeat.Type), e.Repeat.Interval, endDateParam(e.Repeat.EndDate),
		e.Repeat.Count, e.Repeat.GroupID, e.NotificationTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

// CreateBatch inserts all events of one expansion batch in a single
// transaction and returns the stored rows with their database-assigned
// ids, in insertion order. Provisional ids from the generator are
// discarded here.
func (s *EventStore) CreateBatch(events []model.Event) ([]model.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	ids, err := insertBatch(tx, events)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return s.getAll(ids)
}

// ReplaceWithBatch removes the event with the given id and inserts the
// batch in its place, all in one transaction: either the old row is gone
// and the whole batch is stored, or nothing changed.
func (s *EventStore) ReplaceWithBatch(id int64, events []model.Event) ([]model.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete replaced event: %w", err)
	}

	ids, err := insertBatch(tx, events)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace: %w", err)
	}

	return s.getAll(ids)
}

func insertBatch(tx *sql.Tx, events []model.Event) ([]int64, error) {
	var ids []int64
	for _, e := range events {
		result, err := tx.Exec(
			`INSERT INTO events (title, description, location, category, date, start_time, end_time,
			 repeat_type, repeat_interval, repeat_end_date, repeat_count, repeat_group_id, notification_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Title, e.Description, e.Location, e.Category,
			e.Date.String(), e.StartTime.String(), e.EndTime.String(),
			string(e.Repeat.Type), e.Repeat.Interval, endDateParam(e.Repeat.EndDate),
			e.Repeat.Count, e.Repeat.GroupID, e.NotificationTime,
		)
		if err != nil {
			return nil, fmt.Errorf("insert batch event: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("batch insert id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *EventStore) getAll(ids []int64) ([]model.Event, error) {
	stored := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		e, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		stored = append(stored, *e)
	}
	return stored, nil
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	return e, nil
}

// List returns all events ordered by date, then start time.
func (s *EventStore) List() ([]model.Event, error) {
	return s.query(`SELECT ` + eventColumns + ` FROM events ORDER BY date, start_time, id`)
}

// ListByDate returns the events on a single date ordered by start time.
func (s *EventStore) ListByDate(date model.Date) ([]model.Event, error) {
	return s.query(
		`SELECT `+eventColumns+` FROM events WHERE date = ? ORDER BY start_time, id`,
		date.String(),
	)
}

// ListByRange returns events with start <= date <= end.
func (s *EventStore) ListByRange(start, end model.Date) ([]model.Event, error) {
	return s.query(
		`SELECT `+eventColumns+` FROM events WHERE date >= ? AND date <= ? ORDER BY date, start_time, id`,
		start.String(), end.String(),
	)
}

// Search returns events whose title, description, or location contains the
// keyword, case-insensitively.
func (s *EventStore) Search(keyword string) ([]model.Event, error) {
	pattern := "%" + keyword + "%"
	return s.query(
		`SELECT `+eventColumns+` FROM events
		 WHERE title LIKE ? OR description LIKE ? OR location LIKE ?
		 ORDER BY date, start_time, id`,
		pattern, pattern, pattern,
	)
}

// ListGroup returns every member of a recurrence series ordered by date.
func (s *EventStore) ListGroup(groupID string) ([]model.Event, error) {
	if groupID == "" {
		return nil, nil
	}
	return s.query(
		`SELECT `+eventColumns+` FROM events WHERE repeat_group_id = ? ORDER BY date, id`,
		groupID,
	)
}

func (s *EventStore) Update(id int64, e model.Event) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE events
		 SET title = ?, description = ?, location = ?, category = ?, date = ?,
		     start_time = ?, end_time = ?, repeat_type = ?, repeat_interval = ?,
		     repeat_end_date = ?, repeat_count = ?, repeat_group_id = ?,
		     notification_time = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Title, e.Description, e.Location, e.Category, e.Date.String(),
		e.StartTime.String(), e.EndTime.String(),
		string(e.Repeat.Type), e.Repeat.Interval, endDateParam(e.Repeat.EndDate),
		e.Repeat.Count, e.Repeat.GroupID, e.NotificationTime, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	return s.GetByID(id)
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// DeleteByGroup removes every member of a recurrence series and nothing
// else. Detached events carry an empty group id and are never matched; an
// empty argument is rejected so it cannot sweep them up.
func (s *EventStore) DeleteByGroup(groupID string) (int64, error) {
	if groupID == "" {
		return 0, fmt.Errorf("delete by group: empty group id")
	}
	result, err := s.db.Exec("DELETE FROM events WHERE repeat_group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("delete group: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *EventStore) query(q string, args ...any) ([]model.Event, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	var dateStr, startStr, endStr, repeatType string
	var repeatEnd sql.NullString

	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Category,
		&dateStr, &startStr, &endStr,
		&repeatType, &e.Repeat.Interval, &repeatEnd, &e.Repeat.Count,
		&e.Repeat.GroupID, &e.NotificationTime, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.Date, err = model.ParseDate(dateStr); err != nil {
		return nil, err
	}
	if e.StartTime, err = model.ParseTimeOfDay(startStr); err != nil {
		return nil, err
	}
	if e.EndTime, err = model.ParseTimeOfDay(endStr); err != nil {
		return nil, err
	}
	e.Repeat.Type = model.RepeatType(repeatType)
	if repeatEnd.Valid && repeatEnd.String != "" {
		d, err := model.ParseDate(repeatEnd.String)
		if err != nil {
			return nil, err
		}
		e.Repeat.EndDate = &d
	}

	return &e, nil
}

func endDateParam(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

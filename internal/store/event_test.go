package store

import (
	"database/sql"
	"testing"
	"time"

	"agenda/internal/database"
	"agenda/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEvent(title string, date model.Date) model.Event {
	start, _ := model.ParseTimeOfDay("10:00")
	end, _ := model.ParseTimeOfDay("11:00")
	return model.Event{
		Title:     title,
		Category:  "work",
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Repeat:    model.NoRepeat(),
	}
}

func TestEventCreateAndGet(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	created, err := s.Create(testEvent("Standup", model.NewDate(2025, time.May, 18)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Error("created event has zero id")
	}
	if created.Repeat.Type != model.RepeatNone {
		t.Errorf("repeat type = %q, want none", created.Repeat.Type)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Title != "Standup" {
		t.Errorf("got %+v, want Standup", got)
	}
	if !got.Date.Equal(model.NewDate(2025, time.May, 18)) {
		t.Errorf("date = %s", got.Date)
	}
	if got.StartTime.String() != "10:00" {
		t.Errorf("start time = %s", got.StartTime)
	}
}

func TestEventGetByIDMissing(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	got, err := s.GetByID(999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing event", got)
	}
}

func TestEventCreateBatchAssignsIDs(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	end := model.NewDate(2025, time.June, 1)
	rule := model.RepeatRule{Type: model.RepeatWeekly, Interval: 1, EndDate: &end, GroupID: "grp-1"}

	batch := []model.Event{
		testEvent("Yoga", model.NewDate(2025, time.May, 17)),
		testEvent("Yoga", model.NewDate(2025, time.May, 24)),
		testEvent("Yoga", model.NewDate(2025, time.May, 31)),
	}
	for i := range batch {
		batch[i].ID = int64(100 + i) // provisional ids must be discarded
		batch[i].Repeat = rule
	}

	stored, err := s.CreateBatch(batch)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d events, want 3", len(stored))
	}
	for i, e := range stored {
		if e.ID == 0 || e.ID >= 100 {
			t.Errorf("stored[%d].ID = %d, want database-assigned id", i, e.ID)
		}
		if i > 0 && stored[i].ID <= stored[i-1].ID {
			t.Errorf("ids not increasing: %d then %d", stored[i-1].ID, stored[i].ID)
		}
		if e.Repeat.GroupID != "grp-1" {
			t.Errorf("stored[%d] group = %q", i, e.Repeat.GroupID)
		}
		if e.Repeat.EndDate == nil || !e.Repeat.EndDate.Equal(end) {
			t.Errorf("stored[%d] end date = %v", i, e.Repeat.EndDate)
		}
	}
}

func TestEventListByDateAndRange(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	dates := []model.Date{
		model.NewDate(2025, time.May, 18),
		model.NewDate(2025, time.May, 18),
		model.NewDate(2025, time.May, 20),
		model.NewDate(2025, time.June, 2),
	}
	for i, d := range dates {
		if _, err := s.Create(testEvent("Event", d)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	onDay, err := s.ListByDate(model.NewDate(2025, time.May, 18))
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(onDay) != 2 {
		t.Errorf("ListByDate returned %d events, want 2", len(onDay))
	}

	inRange, err := s.ListByRange(model.NewDate(2025, time.May, 18), model.NewDate(2025, time.May, 31))
	if err != nil {
		t.Fatalf("ListByRange: %v", err)
	}
	if len(inRange) != 3 {
		t.Errorf("ListByRange returned %d events, want 3", len(inRange))
	}
}

func TestEventSearch(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	events := []model.Event{
		testEvent("Team meeting", model.NewDate(2025, time.May, 18)),
		testEvent("Dentist", model.NewDate(2025, time.May, 19)),
	}
	events[1].Location = "Team clinic"
	for _, e := range events {
		if _, err := s.Create(e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := s.Search("team")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search(team) returned %d events, want 2 (title and location)", len(got))
	}

	got, err = s.Search("dentist")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Dentist" {
		t.Errorf("Search(dentist) = %+v", got)
	}
}

func TestEventUpdate(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	created, err := s.Create(testEvent("Old title", model.NewDate(2025, time.May, 18)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated := *created
	updated.Title = "New title"
	updated.Repeat = model.NoRepeat()

	got, err := s.Update(created.ID, updated)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "New title" {
		t.Errorf("title = %q after update", got.Title)
	}
	if got.ID != created.ID {
		t.Errorf("id changed on update: %d -> %d", created.ID, got.ID)
	}
}

func TestEventDelete(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	created, err := s.Create(testEvent("Doomed", model.NewDate(2025, time.May, 18)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Error("event still present after delete")
	}
}

func TestEventDeleteByGroup(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	rule := model.RepeatRule{Type: model.RepeatDaily, Interval: 1, GroupID: "grp-doomed"}
	members := []model.Event{
		testEvent("Series", model.NewDate(2025, time.May, 18)),
		testEvent("Series", model.NewDate(2025, time.May, 19)),
	}
	for i := range members {
		members[i].Repeat = rule
	}
	if _, err := s.CreateBatch(members); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	// A detached event has no group id and must survive the group delete.
	detached, err := s.Create(testEvent("Detached", model.NewDate(2025, time.May, 20)))
	if err != nil {
		t.Fatalf("Create detached: %v", err)
	}

	n, err := s.DeleteByGroup("grp-doomed")
	if err != nil {
		t.Fatalf("DeleteByGroup: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d events, want 2", n)
	}

	remaining, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != detached.ID {
		t.Errorf("remaining = %+v, want only the detached event", remaining)
	}
}

func TestEventDeleteByGroupEmptyID(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	if _, err := s.Create(testEvent("Detached", model.NewDate(2025, time.May, 18))); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.DeleteByGroup(""); err == nil {
		t.Fatal("DeleteByGroup(\"\") succeeded, want error")
	}

	remaining, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("detached event deleted by empty group id")
	}
}

func TestEventListGroup(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	rule := model.RepeatRule{Type: model.RepeatDaily, Interval: 1, GroupID: "grp-list"}
	members := []model.Event{
		testEvent("Series", model.NewDate(2025, time.May, 19)),
		testEvent("Series", model.NewDate(2025, time.May, 18)),
	}
	for i := range members {
		members[i].Repeat = rule
	}
	if _, err := s.CreateBatch(members); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	got, err := s.ListGroup("grp-list")
	if err != nil {
		t.Fatalf("ListGroup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListGroup returned %d events, want 2", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("group members not ordered by date")
	}

	got, err = s.ListGroup("")
	if err != nil {
		t.Fatalf("ListGroup empty: %v", err)
	}
	if got != nil {
		t.Errorf("ListGroup(\"\") = %+v, want nil", got)
	}
}

func TestEventReplaceWithBatch(t *testing.T) {
	s := NewEventStore(setupTestDB(t))

	old, err := s.Create(testEvent("Standalone", model.NewDate(2025, time.May, 18)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	bystander, err := s.Create(testEvent("Bystander", model.NewDate(2025, time.May, 25)))
	if err != nil {
		t.Fatalf("Create bystander: %v", err)
	}

	rule := model.RepeatRule{Type: model.RepeatDaily, Interval: 1, GroupID: "grp-replace"}
	batch := []model.Event{
		testEvent("Series", model.NewDate(2025, time.May, 18)),
		testEvent("Series", model.NewDate(2025, time.May, 19)),
		testEvent("Series", model.NewDate(2025, time.May, 20)),
	}
	for i := range batch {
		batch[i].Repeat = rule
	}

	stored, err := s.ReplaceWithBatch(old.ID, batch)
	if err != nil {
		t.Fatalf("ReplaceWithBatch: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d events, want 3", len(stored))
	}

	gone, err := s.GetByID(old.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Error("replaced event still present")
	}

	all, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("store holds %d events, want 4 (series + bystander)", len(all))
	}
	if got, err := s.GetByID(bystander.ID); err != nil || got == nil {
		t.Errorf("bystander missing after replace: %v %v", got, err)
	}
	for i, e := range stored {
		if e.Repeat.GroupID != "grp-replace" {
			t.Errorf("stored[%d] group = %q", i, e.Repeat.GroupID)
		}
	}
}

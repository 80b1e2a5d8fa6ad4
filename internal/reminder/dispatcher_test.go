package reminder

import (
	"context"
	"errors"
	"testing"

	"care-coordination/internal/domain/medicines"
	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/ports/push"
)

func testMedicine() medicines.Medicine {
	return medicines.Medicine{
		ID:     "med-1",
		UserID: "user-1",
		Name:   "Aspirin",
		Dosage: "100mg",
		Active: true,
	}
}

func TestBuildReminder(t *testing.T) {
	rem := BuildReminder(testMedicine(), medicines.Dose{Time: "08:00"})

	if rem.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", rem.UserID)
	}
	if rem.Title != "Medicine Reminder" {
		t.Fatalf("unexpected title: %q", rem.Title)
	}
	if rem.Body != "Time to take Aspirin - 100mg" {
		t.Fatalf("unexpected body: %q", rem.Body)
	}
	if rem.Data["medicine_id"] != "med-1" || rem.Data["time"] != "08:00" {
		t.Fatalf("unexpected data: %#v", rem.Data)
	}
}

func TestDispatcher_NoTokens_SkipsSilently(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string][]string{}}
	gateway := &fakeGateway{}
	feed := &fakeFeed{}
	d := NewDispatcher(directory, gateway, feed, nil)

	if err := d.Dispatch(context.Background(), testMedicine(), medicines.Dose{Time: "08:00"}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(gateway.sent) != 0 {
		t.Fatalf("expected no push without tokens, got %d", len(gateway.sent))
	}
	if len(feed.entries) != 0 {
		t.Fatalf("expected no feed entry without tokens, got %d", len(feed.entries))
	}
}

func TestDispatcher_PushFailure_StillWritesFeed(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string][]string{"user-1": {"tok-1"}}}
	gateway := &fakeGateway{err: errors.New("fcm down")}
	feed := &fakeFeed{}
	d := NewDispatcher(directory, gateway, feed, nil)

	if err := d.Dispatch(context.Background(), testMedicine(), medicines.Dose{Time: "08:00"}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(feed.entries) != 1 {
		t.Fatalf("expected feed entry despite push failure, got %d", len(feed.entries))
	}
	if feed.entries[0].typ != notifications.TypeMedicineReminder {
		t.Fatalf("unexpected feed type: %s", feed.entries[0].typ)
	}
}

func TestDispatcher_InvalidToken_Cleared(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string][]string{"user-1": {"stale-tok"}}}
	gateway := &fakeGateway{err: push.ErrTokenInvalid}
	feed := &fakeFeed{}
	d := NewDispatcher(directory, gateway, feed, nil)

	if err := d.Dispatch(context.Background(), testMedicine(), medicines.Dose{Time: "08:00"}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(directory.cleared) != 1 || directory.cleared[0] != "stale-tok" {
		t.Fatalf("expected stale token cleared, got %#v", directory.cleared)
	}
}

func TestDispatcher_SendsToEveryToken(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string][]string{"user-1": {"tok-1", "tok-2"}}}
	gateway := &fakeGateway{}
	feed := &fakeFeed{}
	d := NewDispatcher(directory, gateway, feed, nil)

	if err := d.Dispatch(context.Background(), testMedicine(), medicines.Dose{Time: "08:00"}); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(gateway.sent) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(gateway.sent))
	}
	if len(feed.entries) != 1 {
		t.Fatalf("expected a single feed entry, got %d", len(feed.entries))
	}
}

func TestDispatcher_FeedError_Propagates(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string][]string{"user-1": {"tok-1"}}}
	feed := &fakeFeed{err: errors.New("db down")}
	d := NewDispatcher(directory, &fakeGateway{}, feed, nil)

	if err := d.Dispatch(context.Background(), testMedicine(), medicines.Dose{Time: "08:00"}); err == nil {
		t.Fatalf("expected error when feed write fails")
	}
}

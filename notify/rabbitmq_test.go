package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"bds_scrooper/models"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey("batdongsan"); got != "listings.batdongsan" {
		t.Fatalf("unexpected routing key %s", got)
	}
}

func TestNewListingEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	l := models.Listing{ID: "abc", Title: "Nhà Ba Đình", SourcePlatform: "batdongsan"}

	created := NewListingEvent(l, true, at)
	updated := NewListingEvent(l, false, at)

	if created.Type != EventListingCreated || updated.Type != EventListingUpdated {
		t.Fatalf("unexpected types %s, %s", created.Type, updated.Type)
	}
	if created.EventID == uuid.Nil || created.EventID == updated.EventID {
		t.Fatalf("expected distinct event IDs, got %s and %s", created.EventID, updated.EventID)
	}
	if created.Published.Location() != time.UTC || !created.Published.Equal(at) {
		t.Fatalf("expected UTC publish time, got %v", created.Published)
	}

	body, err := json.Marshal(created)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "listing.created" || decoded["published_at"] != "2026-03-01T02:00:00Z" {
		t.Fatalf("unexpected body %s", body)
	}
	listing, ok := decoded["listing"].(map[string]any)
	if !ok || listing["id"] != "abc" {
		t.Fatalf("listing not embedded: %s", body)
	}
}

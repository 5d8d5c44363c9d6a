package store

import (
	"testing"

	"github.com/irc-library/maktaba/model"
)

func TestReaderLifecycle(t *testing.T) {
	s := createTestStore(t)

	reader, err := s.AddReader(&model.Reader{Name: "Ayesha", Email: "ayesha@example.org", PasswordHash: "hash-ayesha"})
	if err != nil {
		t.Fatalf("Failed to add reader: %v", err)
	}
	if reader.ID == "" || reader.CreatedTs == 0 {
		t.Errorf("Expected id and timestamp to be set: %+v", reader)
	}

	byName, err := s.GetReader(&model.FindReader{Name: &reader.Name})
	if err != nil {
		t.Fatalf("Failed to get reader: %v", err)
	}
	if byName == nil || byName.ID != reader.ID {
		t.Fatalf("Unexpected reader: %+v", byName)
	}
	if byName.PasswordHash != "hash-ayesha" {
		t.Errorf("Expected stored credential to survive the round trip, got %q", byName.PasswordHash)
	}

	if err := s.RemoveReader(reader.ID); err != nil {
		t.Fatalf("Failed to remove reader: %v", err)
	}
	gone, err := s.GetReader(&model.FindReader{ID: &reader.ID})
	if err != nil {
		t.Fatalf("Failed to get reader: %v", err)
	}
	if gone != nil {
		t.Errorf("Expected reader to be gone, got %+v", gone)
	}
}

func TestReaderRequestLifecycle(t *testing.T) {
	s := createTestStore(t)

	request, err := s.AddReaderRequest(&model.ReaderRequest{Name: "Omar", Email: "omar@example.org", PasswordHash: "hash-omar"})
	if err != nil {
		t.Fatalf("Failed to add reader request: %v", err)
	}
	if request.Status != model.RequestPending {
		t.Errorf("Expected new request to be pending, got %q", request.Status)
	}

	approved, err := s.SetReaderRequestStatus(request.ID, model.RequestApproved)
	if err != nil {
		t.Fatalf("Failed to approve request: %v", err)
	}
	if approved.Status != model.RequestApproved {
		t.Errorf("Expected approved, got %q", approved.Status)
	}
	if approved.PasswordHash != "hash-omar" {
		t.Errorf("Expected the request to keep its credential, got %q", approved.PasswordHash)
	}

	// The resolved request stays on record.
	pending := model.RequestPending
	pendingList, err := s.ListReaderRequests(&model.FindReaderRequest{Status: &pending})
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(pendingList) != 0 {
		t.Errorf("Expected no pending requests, got %d", len(pendingList))
	}
	all, err := s.ListReaderRequests(&model.FindReaderRequest{})
	if err != nil {
		t.Fatalf("Failed to list requests: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected the resolved request to remain, got %d", len(all))
	}
}

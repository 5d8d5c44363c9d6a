package store

import (
	"testing"
)

func TestLibraryMetaSelfHeal(t *testing.T) {
	s := createTestStore(t)

	addTestBook(t, s, "Fiqh us-Sunnah", "Sayyid Sabiq", "Fiqh")
	addTestBook(t, s, "Tafsir ibn Kathir", "Ibn Kathir", "Tafsir")
	addTestBook(t, s, "Bidayat al-Mujtahid", "Ibn Rushd", "Fiqh")

	// No aggregate row exists yet; the read must recompute one.
	meta, err := s.GetLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to get library meta: %v", err)
	}
	if meta.TotalBooks != 3 {
		t.Errorf("Expected 3 books, got %d", meta.TotalBooks)
	}
	if meta.TotalSubjects != 2 {
		t.Errorf("Expected 2 subjects, got %d", meta.TotalSubjects)
	}
	if meta.TotalAuthors != 3 {
		t.Errorf("Expected 3 authors, got %d", meta.TotalAuthors)
	}
	if len(meta.Subjects) != 2 || meta.Subjects[0] != "Fiqh" || meta.Subjects[1] != "Tafsir" {
		t.Errorf("Expected sorted subjects [Fiqh Tafsir], got %v", meta.Subjects)
	}
}

func TestLibraryMetaCachedUntilRecompute(t *testing.T) {
	s := createTestStore(t)

	addTestBook(t, s, "Muqaddimah", "Ibn Khaldun", "History")
	meta, err := s.GetLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to get library meta: %v", err)
	}
	if meta.TotalBooks != 1 {
		t.Fatalf("Expected 1 book, got %d", meta.TotalBooks)
	}

	// Adding a book does not touch the aggregate; a plain read serves the
	// cached value until the caller recomputes.
	addTestBook(t, s, "Al-Muwatta", "Imam Malik", "Hadith")
	cached, err := s.GetLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to get library meta: %v", err)
	}
	if cached.TotalBooks != 1 {
		t.Errorf("Expected cached total of 1, got %d", cached.TotalBooks)
	}

	fresh, err := s.RecomputeLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to recompute library meta: %v", err)
	}
	if fresh.TotalBooks != 2 || fresh.TotalSubjects != 2 {
		t.Errorf("Expected recomputed totals 2/2, got %d/%d", fresh.TotalBooks, fresh.TotalSubjects)
	}
}

func TestLibraryMetaRecomputeAfterDelete(t *testing.T) {
	s := createTestStore(t)

	addTestBook(t, s, "Fiqh us-Sunnah", "Sayyid Sabiq", "Fiqh")
	doomed := addTestBook(t, s, "Tafsir ibn Kathir", "Ibn Kathir", "Tafsir")

	before, err := s.RecomputeLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to recompute library meta: %v", err)
	}
	if before.TotalSubjects != 2 {
		t.Fatalf("Expected 2 subjects, got %d", before.TotalSubjects)
	}

	if err := s.RemoveBook(doomed.ID); err != nil {
		t.Fatalf("Failed to remove book: %v", err)
	}
	after, err := s.RecomputeLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to recompute library meta: %v", err)
	}
	if after.TotalSubjects != before.TotalSubjects-1 {
		t.Errorf("Expected subject count to drop by one, got %d", after.TotalSubjects)
	}
	if after.TotalBooks != 1 {
		t.Errorf("Expected 1 book, got %d", after.TotalBooks)
	}
	if len(after.Subjects) != 1 || after.Subjects[0] != "Fiqh" {
		t.Errorf("Expected subjects [Fiqh], got %v", after.Subjects)
	}
}

func TestLibraryMetaIgnoresBlankFields(t *testing.T) {
	s := createTestStore(t)

	addTestBook(t, s, "Untitled Donation", "", "  ")
	meta, err := s.RecomputeLibraryMeta()
	if err != nil {
		t.Fatalf("Failed to recompute library meta: %v", err)
	}
	if meta.TotalBooks != 1 {
		t.Errorf("Expected 1 book, got %d", meta.TotalBooks)
	}
	if meta.TotalSubjects != 0 || meta.TotalAuthors != 0 {
		t.Errorf("Expected blank subject and author to be ignored, got %d/%d",
			meta.TotalSubjects, meta.TotalAuthors)
	}
}

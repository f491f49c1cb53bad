package store

import (
	"testing"
	"time"

	"github.com/pagesift/pagesift/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(url string) *models.PipelineResult {
	return &models.PipelineResult{
		URL:         url,
		OriginalURL: url,
		Metadata:    models.Metadata{Title: "Sample Page", Language: "en"},
		Content:     "some cleaned page content with a handful of words",
		Chunks: []models.Chunk{
			{Index: 0, Text: "some cleaned page content", Length: 25, WordCount: 4, IsFirst: true, Method: "sentence"},
			{Index: 1, Text: "with a handful of words", Length: 23, WordCount: 5, IsLast: true, Method: "sentence"},
		},
		Stats: &models.Statistics{
			Extract: models.ParseStats{Method: models.MethodReadability, Language: "en"},
			Clean:   models.CleanStats{WordCount: 9},
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestSaveAndQueryResult(t *testing.T) {
	s := openTestStore(t)

	url := "https://example.com/article"
	id, err := s.SaveResult(sampleResult(url))
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if id <= 0 {
		t.Errorf("row id = %d, want positive", id)
	}

	got, err := s.ResultsByURL(url, 10)
	if err != nil {
		t.Fatalf("ResultsByURL: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	r := got[0]
	if r.Method != "readability" {
		t.Errorf("method = %q", r.Method)
	}
	if r.Language != "en" {
		t.Errorf("language = %q", r.Language)
	}
	if r.WordCount != 9 {
		t.Errorf("word count = %d, want 9", r.WordCount)
	}
	if r.ChunkCount != 2 {
		t.Errorf("chunk count = %d, want 2", r.ChunkCount)
	}
	if r.Result.Metadata.Title != "Sample Page" {
		t.Errorf("decoded title = %q", r.Result.Metadata.Title)
	}
	if len(r.Result.Chunks) != 2 {
		t.Errorf("decoded chunks = %d, want 2", len(r.Result.Chunks))
	}
}

func TestRecentResultsOrder(t *testing.T) {
	s := openTestStore(t)

	for _, u := range []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"} {
		if _, err := s.SaveResult(sampleResult(u)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentResults(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].URL != "https://c.example.com" {
		t.Errorf("newest first: got %q", got[0].URL)
	}
}

func TestRobotsDecisionsUpsert(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	first := []models.RobotsDecision{
		{Origin: "https://example.com", Allowed: true, FetchedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := s.SaveRobotsDecisions(first); err != nil {
		t.Fatalf("SaveRobotsDecisions: %v", err)
	}

	// Refreshing the same origin updates in place.
	second := []models.RobotsDecision{
		{Origin: "https://example.com", Allowed: false, FetchedAt: now.Add(time.Hour), ExpiresAt: now.Add(2 * time.Hour)},
		{Origin: "https://other.example.com", Allowed: true, FetchedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := s.SaveRobotsDecisions(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.RobotsDecisions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d decisions, want 2", len(got))
	}
	if got[0].Origin != "https://example.com" || got[0].Allowed {
		t.Errorf("upsert did not replace verdict: %+v", got[0])
	}
}

func TestSaveRobotsDecisionsEmpty(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveRobotsDecisions(nil); err != nil {
		t.Fatalf("empty save should be a no-op: %v", err)
	}
}

package store_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/fallback"
	"github.com/matzehuels/flowsketch/pkg/store"
)

// exercise runs the shared contract against a backend.
func exercise(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	doc := fallback.Synthesize("Ship the release notes", "", "")
	doc.SourcePrompt = "Ship the release notes"

	rec, err := st.Create(ctx, doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Create returned empty id")
	}
	if !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("fresh record timestamps differ: %v vs %v", rec.CreatedAt, rec.UpdatedAt)
	}

	got, err := st.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SourcePrompt != "Ship the release notes" || got.Document.SourcePrompt != got.SourcePrompt {
		t.Errorf("source prompt = %q / %q", got.SourcePrompt, got.Document.SourcePrompt)
	}
	if len(got.Document.Nodes) != len(doc.Nodes) {
		t.Errorf("nodes = %d, want %d", len(got.Document.Nodes), len(doc.Nodes))
	}

	// Mutating a returned copy leaves the stored document alone.
	got.Document.Nodes[0].Label = "changed"
	again, _ := st.Get(ctx, rec.ID)
	if again.Document.Nodes[0].Label == "changed" {
		t.Error("stored document was mutated through a returned record")
	}

	edited := again.Document.Clone()
	edited.SourcePrompt = ""
	if err := edited.SetNodeLabel(edited.Nodes[0].ID, "Kick off"); err != nil {
		t.Fatalf("SetNodeLabel: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	replaced, err := st.Replace(ctx, rec.ID, edited)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if replaced.Document.Nodes[0].Label != "Kick off" {
		t.Errorf("label = %q", replaced.Document.Nodes[0].Label)
	}
	if replaced.SourcePrompt != "Ship the release notes" {
		t.Errorf("empty prompt on replace dropped the stored one: %q", replaced.SourcePrompt)
	}
	if !replaced.UpdatedAt.After(replaced.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", replaced.UpdatedAt, replaced.CreatedAt)
	}

	second, err := st.Create(ctx, fallback.Synthesize("Onboard a hire", "", ""))
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	list, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != rec.ID || list[1].ID != second.ID {
		t.Errorf("List order wrong: %v", ids(list))
	}

	if err := st.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, rec.ID); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := st.Delete(ctx, rec.ID); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Delete twice: %v", err)
	}
	if _, err := st.Replace(ctx, "missing", edited); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Replace missing: %v", err)
	}

	bad := edited.Clone()
	bad.Nodes = bad.Nodes[:1]
	if _, err := st.Create(ctx, bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Create invalid: %v", err)
	}
	if _, err := st.Replace(ctx, second.ID, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Replace nil: %v", err)
	}
}

func ids(recs []*store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	exercise(t, st)
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FLOWSKETCH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWSKETCH_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:        uri,
		Database:   "flowsketch_test",
		Collection: "documents_" + strconv.FormatInt(time.Now().UnixNano(), 36),
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer st.Close()
	exercise(t, st)
}

func TestMongoStoreRequiresURI(t *testing.T) {
	if _, err := store.NewMongoStore(context.Background(), store.MongoConfig{}); err == nil {
		t.Error("expected error for empty uri")
	}
}

package sessions

import (
	"io"
	"testing"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

const primary = "acct-primary"

func newTestRegistry() *Registry {
	return NewRegistry(primary, shared.NewLogger(io.Discard))
}

func TestRegistry_Upsert(t *testing.T) {
	t.Run("stores sessions for the primary account", func(t *testing.T) {
		r := newTestRegistry()

		if !r.Upsert("user-a", 1, 7, "tok", models.TierFree, primary) {
			t.Fatal("expected upsert to succeed for primary account")
		}

		entry, ok := r.Get("user-a")
		if !ok {
			t.Fatal("expected session to exist")
		}
		if entry.SurfaceID != 7 || entry.SessionIndex != 1 {
			t.Errorf("unexpected entry: %+v", entry)
		}
	})

	t.Run("rejects non-primary accounts without storing", func(t *testing.T) {
		r := newTestRegistry()

		if r.Upsert("user-b", 1, 7, "tok", models.TierPaid, "acct-other") {
			t.Fatal("expected upsert to reject non-primary account")
		}
		if r.Len() != 0 {
			t.Errorf("expected empty registry, got %d entries", r.Len())
		}
	})

	t.Run("evicts the previous holder of a surface", func(t *testing.T) {
		r := newTestRegistry()

		r.Upsert("A", 1, 7, "tok", models.TierFree, primary)
		r.Upsert("B", 2, 7, "tok", models.TierFree, primary)

		if _, ok := r.Get("A"); ok {
			t.Error("expected A to be evicted")
		}
		if _, ok := r.Get("B"); !ok {
			t.Error("expected B to be present")
		}
	})

	t.Run("evicts the previous holder of a session slot", func(t *testing.T) {
		r := newTestRegistry()

		r.Upsert("A", 3, 7, "tok", models.TierFree, primary)
		r.Upsert("B", 3, 9, "tok", models.TierFree, primary)

		if _, ok := r.Get("A"); ok {
			t.Error("expected A to be evicted")
		}
	})

	t.Run("re-upserting the same user keeps a single entry", func(t *testing.T) {
		r := newTestRegistry()

		r.Upsert("A", 1, 7, "tok1", models.TierFree, primary)
		r.Upsert("A", 1, 7, "tok2", models.TierPaid, primary)

		if r.Len() != 1 {
			t.Fatalf("expected 1 entry, got %d", r.Len())
		}
		entry, _ := r.Get("A")
		if entry.XSRFToken != "tok2" || entry.Tier != models.TierPaid {
			t.Errorf("expected updated entry, got %+v", entry)
		}
	})
}

// No sequence of upserts may leave two entries sharing a surface or slot.
func TestRegistry_UniquenessInvariant(t *testing.T) {
	r := newTestRegistry()

	type call struct {
		user    string
		slot    int
		surface int
	}
	calls := []call{
		{"A", 1, 7}, {"B", 2, 8}, {"C", 1, 9}, {"D", 3, 8}, {"A", 2, 7}, {"E", 1, 7},
	}

	for _, c := range calls {
		r.Upsert(c.user, c.slot, c.surface, "tok", models.TierFree, primary)

		seenSurface := map[int]string{}
		seenSlot := map[int]string{}
		for _, entry := range r.All() {
			if prev, ok := seenSurface[entry.SurfaceID]; ok {
				t.Fatalf("surface %d held by both %s and %s", entry.SurfaceID, prev, entry.UserID)
			}
			if prev, ok := seenSlot[entry.SessionIndex]; ok {
				t.Fatalf("slot %d held by both %s and %s", entry.SessionIndex, prev, entry.UserID)
			}
			seenSurface[entry.SurfaceID] = entry.UserID
			seenSlot[entry.SessionIndex] = entry.UserID
		}
	}
}

func TestRegistry_UpdateXSRF(t *testing.T) {
	r := newTestRegistry()

	r.UpdateXSRF("missing", "tok")

	r.Upsert("A", 1, 7, "old", models.TierFree, primary)
	r.UpdateXSRF("A", "new")

	entry, _ := r.Get("A")
	if entry.XSRFToken != "new" {
		t.Errorf("expected token to update, got %q", entry.XSRFToken)
	}
}

func TestRegistry_LookupBySurface(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A", 1, 7, "tok", models.TierFree, primary)

	if user, ok := r.LookupBySurface(7); !ok || user != "A" {
		t.Errorf("expected A on surface 7, got %q (%v)", user, ok)
	}
	if _, ok := r.LookupBySurface(99); ok {
		t.Error("expected no user on surface 99")
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A", 1, 7, "tok", models.TierFree, primary)

	r.Remove("A")
	r.Remove("A") // idempotent

	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_Evict(t *testing.T) {
	r := newTestRegistry()
	r.Upsert("A", 1, 7, "tok", models.TierFree, primary)
	r.Upsert("B", 2, 8, "tok", models.TierFree, primary)

	r.Evict(5, 7) // matches A's surface only

	if _, ok := r.Get("A"); ok {
		t.Error("expected A evicted")
	}
	if _, ok := r.Get("B"); !ok {
		t.Error("expected B untouched")
	}
}

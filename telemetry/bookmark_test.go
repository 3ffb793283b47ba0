package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HuntBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with low kill rate
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndStep: i * 100,
			PreyCount:     50,
			PredCount:     10,
			Kills:         2,
			KillRate:      0.2,
		})
	}

	// Now add a window with high kill rate (>2x average)
	bookmarks := bd.Check(WindowStats{
		WindowEndStep: 500,
		PreyCount:     50,
		PredCount:     10,
		Kills:         8,
		KillRate:      0.8,
	})
	if !hasBookmark(bookmarks, BookmarkHuntBreakthrough) {
		t.Error("expected hunt_breakthrough bookmark")
	}
}

func TestBookmarkDetector_SpeciationBurst(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, PreyCount: 50, PredCount: 10, Splits: 1})
	}
	bookmarks := bd.Check(WindowStats{WindowEndStep: 400, PreyCount: 50, PredCount: 10, Splits: 5})
	if !hasBookmark(bookmarks, BookmarkSpeciationBurst) {
		t.Error("expected speciation_burst bookmark")
	}
}

func TestBookmarkDetector_PreyCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up prey population
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, PreyCount: 100, PredCount: 10})
	}

	// Now crash prey population
	bookmarks := bd.Check(WindowStats{WindowEndStep: 500, PreyCount: 50, PredCount: 10})
	if !hasBookmark(bookmarks, BookmarkPreyCrash) {
		t.Error("expected prey_crash bookmark")
	}
}

func TestBookmarkDetector_PredatorRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Predator population drops to critical level
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, PreyCount: 100, PredCount: 2})
	}

	// Predator recovers to 3x the minimum
	bookmarks := bd.Check(WindowStats{WindowEndStep: 300, PreyCount: 100, PredCount: 10})
	if !hasBookmark(bookmarks, BookmarkPredatorRecovery) {
		t.Error("expected predator_recovery bookmark")
	}
}

func TestBookmarkDetector_ExtinctionFiresOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndStep: 100, PreyCount: 40, PredCount: 3})

	if !hasBookmark(bd.Check(WindowStats{WindowEndStep: 200, PreyCount: 40, PredCount: 0}), BookmarkExtinction) {
		t.Fatal("expected extinction bookmark")
	}
	if hasBookmark(bd.Check(WindowStats{WindowEndStep: 300, PreyCount: 40, PredCount: 0}), BookmarkExtinction) {
		t.Error("extinction reported twice")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Stable windows: low variance, both populations present
	fired := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndStep: i * 100, PreyCount: 100, PredCount: 20})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			if fired >= 0 {
				t.Fatalf("stable ecosystem fired twice (windows %d and %d)", fired, i)
			}
			fired = i
		}
	}
	// Four windows of history are needed before counting starts.
	if fired != 8 {
		t.Errorf("stable ecosystem fired at window %d, want 8", fired)
	}
}

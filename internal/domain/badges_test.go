package domain

import "testing"

func TestHighestTier(t *testing.T) {
	cases := []struct {
		category BadgeCategory
		counter  int
		wantID   int64
		wantOK   bool
	}{
		{CategoryQuizMaster, 1, 0, false},
		{CategoryQuizMaster, 2, 1, true},
		{CategoryQuizMaster, 3, 1, true},
		{CategoryQuizMaster, 4, 2, true},
		{CategoryQuizMaster, 9, 3, true},
		{CategoryPointCollector, 50, 5, true},
		{CategoryDiscussionStarter, 4, 7, true},
		{CategoryDiscussionStarter, 5, 8, true},
		{CategoryCommentUpvoter, 4, 0, false},
		{CategoryCommentUpvoter, 5, 9, true},
	}
	for _, tc := range cases {
		badge, ok := HighestTier(tc.category, tc.counter)
		if ok != tc.wantOK {
			t.Fatalf("%s@%d: ok = %v, want %v", tc.category, tc.counter, ok, tc.wantOK)
		}
		if ok && badge.ID != tc.wantID {
			t.Fatalf("%s@%d: badge = %d, want %d", tc.category, tc.counter, badge.ID, tc.wantID)
		}
	}
}

func TestBadgeCatalogIDsUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for _, b := range BadgeCatalog {
		if seen[b.ID] {
			t.Fatalf("duplicate badge id %d", b.ID)
		}
		seen[b.ID] = true
		if got, ok := BadgeByID(b.ID); !ok || got.Name != b.Name {
			t.Fatalf("lookup of %d returned %+v", b.ID, got)
		}
	}
}

package interval

import "testing"

func TestInsertAndQueryRange(t *testing.T) {
	tr := NewTree()
	tr.Insert(0, 5, 1)
	tr.Insert(10, 15, 2)
	tr.Insert(4, 11, 3)

	got := tr.QueryRange(4, 5)
	if len(got) != 2 {
		t.Fatalf("QueryRange(4,5) = %v, want 2 intervals", got)
	}
}

func TestShiftInsertion(t *testing.T) {
	tr := NewTree()
	tr.Insert(5, 10, 1)
	tr.Shift(7, 3) // insert 3 chars at offset 7, inside the interval

	all := tr.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(all))
	}
	if all[0].Start != 5 || all[0].End != 13 {
		t.Fatalf("interval = %+v, want [5,13)", all[0])
	}
}

func TestShiftDeletionDropsContained(t *testing.T) {
	tr := NewTree()
	tr.Insert(5, 10, 1)
	tr.Shift(0, -20) // delete [0,20): entirely contains the interval

	if tr.Len() != 0 {
		t.Fatalf("expected interval dropped, got %d remaining", tr.Len())
	}
}

func TestShiftDeletionClipsStraddling(t *testing.T) {
	tr := NewTree()
	tr.Insert(5, 15, 1)
	tr.Shift(8, -4) // delete [8,12): straddles the interval

	all := tr.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(all))
	}
	if all[0].Start != 5 || all[0].End != 11 {
		t.Fatalf("interval = %+v, want [5,11)", all[0])
	}
}

func TestReplaceLayer(t *testing.T) {
	tr := NewTree()
	tr.Insert(0, 5, 1)
	tr.ReplaceLayer([]Interval{{Start: 10, End: 20, Style: 9}})
	all := tr.All()
	if len(all) != 1 || all[0].Start != 10 {
		t.Fatalf("ReplaceLayer did not swap contents: %v", all)
	}
}

func TestLayerSetAscendingPrecedence(t *testing.T) {
	ls := NewLayerSet()
	ls.Layer(3)
	ls.Layer(1)
	ls.Layer(2)
	ids := ls.Layers()
	want := []LayerID{1, 2, 3}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("Layers() = %v, want ascending %v", ids, want)
		}
	}
}

func TestQueryRangeNoPhantomIntervals(t *testing.T) {
	tr := NewTree()
	tr.Insert(0, 10, 1)
	tr.Insert(20, 30, 2)
	all := tr.All()
	queried := tr.QueryRange(0, 30)
	if len(all) != len(queried) {
		t.Fatalf("All()=%d vs QueryRange(0,charCount)=%d mismatch", len(all), len(queried))
	}
}

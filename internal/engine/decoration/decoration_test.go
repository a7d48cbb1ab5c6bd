package decoration

import "testing"

func TestDecorationsInRangeAcrossLayers(t *testing.T) {
	s := NewStore()
	s.ReplaceDecorations(1, []Decoration{{ID: 1, Anchor: 5, AnchorEnd: 10}})
	s.ReplaceDecorations(2, []Decoration{{ID: 2, Anchor: 20, AnchorEnd: 25}})

	got := s.DecorationsInRange(0, 12)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("DecorationsInRange(0,12) = %v, want only id 1", got)
	}
}

func TestShiftDecorationsMovesAnchors(t *testing.T) {
	s := NewStore()
	s.ReplaceDecorations(1, []Decoration{{ID: 1, Anchor: 5, AnchorEnd: 10}})
	s.ShiftDecorations(3, 2)

	got := s.Decorations(1)
	if got[0].Anchor != 7 || got[0].AnchorEnd != 12 {
		t.Fatalf("after shift = %+v, want anchor 7/12", got[0])
	}
}

func TestShiftDiagnosticsCollapsesDeletedSpan(t *testing.T) {
	s := NewStore()
	s.ReplaceDiagnostics([]Diagnostic{{ID: 1, Start: 5, End: 8}})
	// Deletion spanning [0,10) collapses this diagnostic's span to empty.
	s.ShiftDiagnostics(0, -10)

	got := s.Diagnostics()
	if got[0].Start != 0 || got[0].End != 0 {
		t.Fatalf("after shift = %+v, want collapsed to 0,0", got[0])
	}
}

func TestSearchWorkspaceSymbols(t *testing.T) {
	s := NewStore()
	s.SetWorkspaceSymbols([]WorkspaceSymbol{
		{Name: "ParseConfig", Kind: SymbolKindFunction, URI: "a.go"},
		{Name: "WriteLog", Kind: SymbolKindFunction, URI: "b.go"},
	})

	got := s.SearchWorkspaceSymbols("Config")
	if len(got) != 1 || got[0].Name != "ParseConfig" {
		t.Fatalf("SearchWorkspaceSymbols(Config) = %v", got)
	}

	all := s.SearchWorkspaceSymbols("")
	if len(all) != 2 {
		t.Fatalf("SearchWorkspaceSymbols(\"\") = %d, want 2", len(all))
	}
}

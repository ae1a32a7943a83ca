package resolver

import "testing"

func TestLookup_ExactMatch(t *testing.T) {
	idx := BuildIndex([]string{"Lightning Bolt", "Cut // Ribbons"})
	name, mode, ok := idx.Lookup("lightning bolt")
	if !ok || name != "Lightning Bolt" || !mode.Full {
		t.Fatalf("got (%q, %+v, %v)", name, mode, ok)
	}
}

func TestLookup_DFCHalves(t *testing.T) {
	idx := BuildIndex([]string{"Kabira Takedown // Kabira Plateau"})

	name, mode, ok := idx.Lookup("kabira takedown")
	if !ok || name != "Kabira Takedown // Kabira Plateau" || mode.Full || mode.Part != 0 {
		t.Fatalf("front half: got (%q, %+v, %v)", name, mode, ok)
	}

	name, mode, ok = idx.Lookup("kabira plateau")
	if !ok || name != "Kabira Takedown // Kabira Plateau" || mode.Full || mode.Part != 1 {
		t.Fatalf("back half: got (%q, %+v, %v)", name, mode, ok)
	}
}

func TestLookup_ApproximateMatch(t *testing.T) {
	idx := BuildIndex([]string{"Lightning Bolt"})
	name, mode, ok := idx.Lookup("lighming bolt") // one deletion plus one substitution (distance 2)
	if !ok || name != "Lightning Bolt" || !mode.Full {
		t.Fatalf("got (%q, %+v, %v)", name, mode, ok)
	}
}

func TestLookup_RejectsBeyondThreshold(t *testing.T) {
	idx := BuildIndex([]string{"Lightning Bolt"})
	_, _, ok := idx.Lookup("xyz")
	if ok {
		t.Fatal("expected no match for an unrelated short query")
	}
}

func TestLookup_PrefersFullOverPart(t *testing.T) {
	// "Fire" is both a Full catalog name and, via a contrived DFC, a Part(0)
	// key, so the typo "fyre" is one edit from each. Full must win.
	idx := BuildIndex([]string{"Fire", "Fire // Ice"})
	name, mode, ok := idx.Lookup("fyre")
	if !ok || name != "Fire" || !mode.Full {
		t.Fatalf("got (%q, %+v, %v)", name, mode, ok)
	}
}

func TestLookup_EmptyQuery(t *testing.T) {
	idx := BuildIndex([]string{"Lightning Bolt"})
	_, _, ok := idx.Lookup("   ")
	if ok {
		t.Fatal("expected empty/whitespace query to fail")
	}
}

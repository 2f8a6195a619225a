package catalog

import "testing"

func TestNewHasSevenEntries(t *testing.T) {
	c := New()
	if got := len(c.All()); got != 7 {
		t.Fatalf("expected 7 catalog entries, got %d", got)
	}
}

func TestLookupKnownCUSIP(t *testing.T) {
	c := New()
	e, err := c.Lookup("91282CAX9")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := e.PV01.String(); got != "0.02" {
		t.Fatalf("expected PV01 0.02, got %s", got)
	}
}

func TestLookupUnknownCUSIP(t *testing.T) {
	c := New()
	if _, err := c.Lookup("NOPE"); err == nil {
		t.Fatal("expected error for unknown CUSIP")
	}
}

func TestSectorBucketsCoverAllEntries(t *testing.T) {
	c := New()
	total := len(c.BySector(SectorShort)) + len(c.BySector(SectorBelly)) + len(c.BySector(SectorLong))
	if total != 7 {
		t.Fatalf("expected sector buckets to cover all 7 entries, got %d", total)
	}
}

func TestCUSIPsMatchesAll(t *testing.T) {
	c := New()
	if got := len(c.CUSIPs()); got != len(c.All()) {
		t.Fatalf("CUSIPs length %d != All length %d", got, len(c.All()))
	}
}

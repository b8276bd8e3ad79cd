package instrument

import "testing"

func TestUniverseIDs(t *testing.T) {
	u := Universe(64)
	if len(u) != 64 {
		t.Fatalf("len = %d, want 64", len(u))
	}
	for i, ins := range u {
		if ins.ID != i {
			t.Fatalf("instrument %d has ID %d", i, ins.ID)
		}
	}
}

func TestUniverseDeterministic(t *testing.T) {
	a := Universe(128)
	b := Universe(128)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("universe not deterministic at id %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestUniverseValidForSimulation(t *testing.T) {
	for _, ins := range Universe(1024) {
		if ins.Ticker == "" {
			t.Fatalf("id %d: empty ticker", ins.ID)
		}
		if ins.BasePrice <= 0 {
			t.Fatalf("id %d: non-positive base price %f", ins.ID, ins.BasePrice)
		}
		if ins.TickSize <= 0 || ins.Volatility <= 0 {
			t.Fatalf("id %d: bad tick size %f or volatility %f", ins.ID, ins.TickSize, ins.Volatility)
		}
	}
}

func TestUniverseTickersUnique(t *testing.T) {
	seen := make(map[string]int)
	for _, ins := range Universe(256) {
		if prev, dup := seen[ins.Ticker]; dup {
			t.Fatalf("ticker %s shared by ids %d and %d", ins.Ticker, prev, ins.ID)
		}
		seen[ins.Ticker] = ins.ID
	}
}

func TestByTicker(t *testing.T) {
	u := Universe(32)
	m := ByTicker(u)
	if len(m) != 32 {
		t.Fatalf("lookup size = %d, want 32", len(m))
	}
	for _, ins := range u {
		got, ok := m[ins.Ticker]
		if !ok || got.ID != ins.ID {
			t.Fatalf("lookup %s = %+v, want id %d", ins.Ticker, got, ins.ID)
		}
	}
}

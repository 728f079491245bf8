package models

import "testing"

func TestSignalTypeDirectionGroups(t *testing.T) {
	buyLike := []SignalType{StrongBuy, Buy, WeakBuy}
	for _, st := range buyLike {
		if !st.IsBuyLike() || st.IsSellLike() {
			t.Fatalf("%s should be buy-like only", st)
		}
	}
	sellLike := []SignalType{StrongSell, Sell, WeakSell}
	for _, st := range sellLike {
		if !st.IsSellLike() || st.IsBuyLike() {
			t.Fatalf("%s should be sell-like only", st)
		}
	}
	for _, st := range []SignalType{Hold, Neutral} {
		if st.IsBuyLike() || st.IsSellLike() {
			t.Fatalf("%s should be directionless", st)
		}
	}
}

func TestSignalTypeOpposite(t *testing.T) {
	if StrongBuy.Opposite() != Sell || WeakBuy.Opposite() != Sell {
		t.Fatalf("buy-like opposite should be SELL")
	}
	if StrongSell.Opposite() != Buy || WeakSell.Opposite() != Buy {
		t.Fatalf("sell-like opposite should be BUY")
	}
	if Hold.Opposite() != Hold || Neutral.Opposite() != Hold {
		t.Fatalf("directionless opposite should be HOLD")
	}
}

func TestIsValidSignalType(t *testing.T) {
	valid := []SignalType{StrongBuy, Buy, WeakBuy, Hold, Neutral, WeakSell, Sell, StrongSell}
	for _, st := range valid {
		if !IsValidSignalType(st) {
			t.Fatalf("%s should be valid", st)
		}
	}
	for _, st := range []SignalType{"", "SIDEWAYS", "buy"} {
		if IsValidSignalType(st) {
			t.Fatalf("%q should be invalid", st)
		}
	}
}

func TestModelKey(t *testing.T) {
	s := TradingSignal{Symbol: "AAPL", SignalType: Buy}
	if got := s.ModelKey(); got != "model_AAPL_BUY" {
		t.Fatalf("unexpected model key %q", got)
	}
}

func TestPerformanceTrackerAccuracy(t *testing.T) {
	if (PerformanceTracker{}).Accuracy() != 0.5 {
		t.Fatalf("untracked accuracy should be 0.5")
	}
	tr := PerformanceTracker{TotalPredictions: 4, CorrectPredictions: 3}
	if tr.Accuracy() != 0.75 {
		t.Fatalf("expected 0.75, got %v", tr.Accuracy())
	}
}

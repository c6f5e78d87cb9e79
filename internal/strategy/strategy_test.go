package strategy

import (
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/internal/indicators"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func buySnapshot() indicators.Snapshot {
	return indicators.Snapshot{
		Timestamp:        testTime,
		Close:            100,
		CloseHigh:        120,
		EMAFast:          101,
		EMASlow:          100,
		EMAFastAboveSlow: true,
		EMACrossUp:       true,
		MACD:             1.5,
		MACDSignal:       1.0,
		MACDAboveSignal:  true,
		GoldenCross:      true,
	}
}

func flatPosition() types.Position {
	return types.Position{Market: "BTC-USD", State: types.PositionFlat}
}

func holdingPosition(entry float64) types.Position {
	return types.Position{
		Market:     "BTC-USD",
		State:      types.PositionHolding,
		EntryPrice: entry,
		EntrySize:  1,
		EntryTime:  testTime.Add(-24 * time.Hour),
	}
}

func TestBuyOnCrossUpWithAllGatesOpen(t *testing.T) {
	s := New("BTC-USD", Config{})
	d := s.Decide(buySnapshot(), flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionBuy {
		t.Fatalf("expected BUY, got %s (%s)", d.Action, d.Reason)
	}
}

func TestNoBuyWithoutCross(t *testing.T) {
	snap := buySnapshot()
	snap.EMACrossUp = false // level still above, but no edge this tick
	s := New("BTC-USD", Config{})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("expected WAIT without a cross edge, got %s", d.Action)
	}
}

func TestBuyEMADisabledUsesMACDOnly(t *testing.T) {
	snap := buySnapshot()
	snap.EMACrossUp = false
	s := New("BTC-USD", Config{DisableBuyEMA: true})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionBuy {
		t.Errorf("expected BUY on MACD alone, got %s (%s)", d.Action, d.Reason)
	}
}

func TestNearHighGuardBlocksBuy(t *testing.T) {
	snap := buySnapshot()
	snap.Close = 119 // within 3% of the 120 closing high
	s := New("BTC-USD", Config{})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("expected near-high guard to block, got %s", d.Action)
	}

	relaxed := New("BTC-USD", Config{DisableBuyNearHigh: true})
	d = relaxed.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionBuy {
		t.Errorf("guard disabled should allow BUY, got %s (%s)", d.Action, d.Reason)
	}
}

func TestBullOnlyGateBlocksBearMarket(t *testing.T) {
	snap := buySnapshot()
	snap.GoldenCross = false
	s := New("BTC-USD", Config{})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("expected bull gate to block, got %s", d.Action)
	}

	relaxed := New("BTC-USD", Config{DisableBullOnly: true})
	d = relaxed.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionBuy {
		t.Errorf("gate disabled should allow BUY, got %s (%s)", d.Action, d.Reason)
	}
}

func TestIncompleteSnapshotWaits(t *testing.T) {
	snap := buySnapshot()
	snap.Missing = []string{indicators.KeyEMA, indicators.KeyMACD, indicators.KeySMA}
	s := New("BTC-USD", Config{})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("incomplete snapshot must WAIT, got %s", d.Action)
	}
}

func TestForecastVetoesBuy(t *testing.T) {
	s := New("BTC-USD", Config{})
	forecast := &Forecast{ProjectedPrice: 90, Confidence: 0.9}

	d := s.Decide(buySnapshot(), flatPosition(), 1, testTime, forecast)
	if d.Action != types.ActionWait {
		t.Errorf("confident down forecast should veto, got %s", d.Action)
	}

	weak := &Forecast{ProjectedPrice: 90, Confidence: 0.1}
	d = s.Decide(buySnapshot(), flatPosition(), 1, testTime, weak)
	if d.Action != types.ActionBuy {
		t.Errorf("low-confidence forecast must not veto, got %s", d.Action)
	}
}

func TestNeverSellWhileFlat(t *testing.T) {
	snap := buySnapshot()
	snap.EMACrossUp = false
	snap.EMACrossDown = true
	snap.EMAFastAboveSlow = false
	snap.MACDAboveSignal = false
	s := New("BTC-USD", Config{SellAtLoss: true})

	d := s.Decide(snap, flatPosition(), 1, testTime, nil)
	if d.Action == types.ActionSell {
		t.Fatal("SELL while flat must be impossible")
	}
}

func TestNeverBuyWhileHolding(t *testing.T) {
	s := New("BTC-USD", Config{})
	d := s.Decide(buySnapshot(), holdingPosition(90), 1, testTime, nil)
	if d.Action == types.ActionBuy {
		t.Fatal("BUY while holding must be impossible")
	}
}

func sellSnapshot(price float64) indicators.Snapshot {
	return indicators.Snapshot{
		Timestamp:        testTime,
		Close:            price,
		CloseHigh:        price * 1.5,
		EMAFast:          price - 1,
		EMASlow:          price,
		EMAFastAboveSlow: false,
		EMACrossDown:     true,
		MACD:             -0.5,
		MACDSignal:       0.2,
		MACDAboveSignal:  false,
	}
}

func TestSellOnCrossDown(t *testing.T) {
	s := New("BTC-USD", Config{SellAtLoss: true})
	d := s.Decide(sellSnapshot(110), holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionSell {
		t.Fatalf("expected SELL, got %s (%s)", d.Action, d.Reason)
	}
}

func TestNoSellBandSuppressesExit(t *testing.T) {
	cfg := Config{SellAtLoss: true, NoSellMinPcnt: -2, NoSellMaxPcnt: 2}
	s := New("BTC-USD", cfg)

	// margin ~1%, inside the band
	d := s.Decide(sellSnapshot(101), holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("margin inside band must suppress SELL, got %s (%s)", d.Action, d.Reason)
	}

	// margin ~10%, outside the band
	d = s.Decide(sellSnapshot(110), holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionSell {
		t.Errorf("margin outside band should SELL, got %s (%s)", d.Action, d.Reason)
	}
}

func TestSellAtLossDisabledHoldsUnderWater(t *testing.T) {
	s := New("BTC-USD", Config{SellAtLoss: false})
	d := s.Decide(sellSnapshot(80), holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionWait {
		t.Errorf("sell at loss disabled should hold, got %s", d.Action)
	}
}

func TestLossFailsafeBypassesSuppression(t *testing.T) {
	cfg := Config{SellAtLoss: false, NoSellMinPcnt: -50, NoSellMaxPcnt: 5, SellLowerPcnt: -10}
	s := New("BTC-USD", cfg)

	snap := sellSnapshot(80) // margin ~-20%
	snap.EMACrossDown = false
	d := s.Decide(snap, holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionSell {
		t.Errorf("loss failsafe must fire through band and sellAtLoss, got %s (%s)", d.Action, d.Reason)
	}
}

func TestProfitTargetSells(t *testing.T) {
	s := New("BTC-USD", Config{SellUpperPcnt: 5})
	snap := sellSnapshot(110)
	snap.EMACrossDown = false // target alone should trigger
	d := s.Decide(snap, holdingPosition(100), 1, testTime, nil)
	if d.Action != types.ActionSell {
		t.Errorf("profit target should SELL, got %s (%s)", d.Action, d.Reason)
	}
}

func TestSmartSwitchOnlyWhileFlat(t *testing.T) {
	sw := NewSmartSwitch(true)

	g, changed := sw.Evaluate(holdingPosition(100), true, types.GranularityOneHour)
	if changed || g != types.GranularityOneHour {
		t.Error("granularity must freeze while holding")
	}

	g, changed = sw.Evaluate(flatPosition(), true, types.GranularityOneHour)
	if !changed || g != types.GranularityFifteenMinutes {
		t.Errorf("bull while flat should switch to 15m, got %s", g)
	}

	g, changed = sw.Evaluate(flatPosition(), false, types.GranularityFifteenMinutes)
	if !changed || g != types.GranularityOneHour {
		t.Errorf("bear while flat should switch back to 1h, got %s", g)
	}

	disabled := NewSmartSwitch(false)
	if _, changed := disabled.Evaluate(flatPosition(), true, types.GranularityOneHour); changed {
		t.Error("disabled switch must never change granularity")
	}
}

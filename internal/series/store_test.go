package series

import (
	"errors"
	"testing"

	"quotewatch/internal/models"
)

func candle(t int64, close float64) models.Candle {
	return models.Candle{
		Time:   t,
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 10,
	}
}

func TestIngestDedupKeepsMostRecent(t *testing.T) {
	s := NewStore()

	s.Ingest("BTC/USD", []models.Candle{candle(60, 100), candle(120, 101)}, IngestReset)
	// Same timestamp again via append: one bar remains, with the new values.
	s.Ingest("BTC/USD", []models.Candle{candle(120, 200)}, IngestAppend)

	bars := s.Bars("BTC/USD")
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Time != 120 || bars[1].Close != 200 {
		t.Errorf("expected latest supplied candle at t=120, got %+v", bars[1])
	}
}

func TestIngestPrependNewBatchWinsCollision(t *testing.T) {
	s := NewStore()
	s.Ingest("BTC/USD", []models.Candle{candle(60, 100), candle(120, 101)}, IngestReset)

	// Backfill overlapping the oldest existing bar: the backfill value wins.
	s.Ingest("BTC/USD", []models.Candle{candle(0, 90), candle(60, 95)}, IngestPrepend)

	bars := s.Bars("BTC/USD")
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Time != 0 || bars[1].Close != 95 {
		t.Errorf("unexpected merge result: %+v", bars)
	}
}

func TestIngestSortsOutOfOrderInput(t *testing.T) {
	s := NewStore()
	s.Ingest("BTC/USD", []models.Candle{candle(180, 3), candle(60, 1), candle(120, 2)}, IngestReset)

	bars := s.Bars("BTC/USD")
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Time >= bars[i].Time {
			t.Fatalf("bars not strictly ascending at %d: %+v", i, bars)
		}
	}
}

func TestIngestResetDiscardsExisting(t *testing.T) {
	s := NewStore()
	s.Ingest("BTC/USD", []models.Candle{candle(60, 1)}, IngestReset)
	s.Ingest("BTC/USD", []models.Candle{candle(600, 2)}, IngestReset)

	if n := s.Count("BTC/USD"); n != 1 {
		t.Fatalf("expected reset to discard old bars, have %d", n)
	}
	if ts, _ := s.OldestTime("BTC/USD"); ts != 600 {
		t.Errorf("expected only the new bar, oldest=%d", ts)
	}
}

func TestIngestBulkCapDropsOldest(t *testing.T) {
	s := NewStore(WithBulkCap(100))

	batch := make([]models.Candle, 150)
	for i := range batch {
		batch[i] = candle(int64(i)*60, float64(i))
	}
	s.Ingest("BTC/USD", batch, IngestReset)

	if n := s.Count("BTC/USD"); n != 100 {
		t.Fatalf("expected cap 100, got %d", n)
	}
	if ts, _ := s.OldestTime("BTC/USD"); ts != 50*60 {
		t.Errorf("expected oldest bars dropped, oldest=%d", ts)
	}
}

func TestAppendTickCoalescesSamePeriod(t *testing.T) {
	s := NewStore()
	s.Ingest("BTC/USD", []models.Candle{candle(60, 100)}, IngestReset)

	// Same still-forming period: replaced, not duplicated.
	s.AppendTick("BTC/USD", candle(60, 105))
	if n := s.Count("BTC/USD"); n != 1 {
		t.Fatalf("expected coalesced bar, count=%d", n)
	}
	if last, _ := s.LastBar("BTC/USD"); last.Close != 105 {
		t.Errorf("expected replaced close 105, got %v", last.Close)
	}

	// New period: pushed.
	s.AppendTick("BTC/USD", candle(120, 106))
	if n := s.Count("BTC/USD"); n != 2 {
		t.Fatalf("expected new bar pushed, count=%d", n)
	}
}

func TestAppendTickCapDropsOldest(t *testing.T) {
	s := NewStore(WithTickCap(10))
	for i := 0; i < 25; i++ {
		s.AppendTick("BTC/USD", candle(int64(i)*60, float64(i)))
	}
	if n := s.Count("BTC/USD"); n != 10 {
		t.Fatalf("expected tick cap 10, got %d", n)
	}
	if ts, _ := s.OldestTime("BTC/USD"); ts != 15*60 {
		t.Errorf("expected oldest dropped, oldest=%d", ts)
	}
}

func TestBoundsQueries(t *testing.T) {
	s := NewStore()

	if s.HasData("BTC/USD") {
		t.Fatal("empty store should have no data")
	}
	if _, ok := s.OldestTime("BTC/USD"); ok {
		t.Fatal("empty store should report no oldest time")
	}

	s.Ingest("BTC/USD", []models.Candle{candle(60, 1), candle(300, 2)}, IngestReset)

	if !s.HasData("BTC/USD") {
		t.Fatal("expected data")
	}
	oldest, _ := s.OldestTime("BTC/USD")
	newest, _ := s.NewestTime("BTC/USD")
	if oldest != 60 || newest != 300 {
		t.Errorf("bounds mismatch: oldest=%d newest=%d", oldest, newest)
	}
}

func TestSetLoadingClearsErrorOnlyOnStart(t *testing.T) {
	s := NewStore()
	boom := errors.New("fetch failed")

	s.SetLoading("BTC/USD", true, false)
	s.SetError("BTC/USD", boom)

	st := s.Status("BTC/USD")
	if st.Loading || st.LoadingMore {
		t.Fatal("SetError must clear both loading flags")
	}
	if !errors.Is(st.Err, boom) {
		t.Fatal("expected recorded error")
	}

	// Finishing a load does not clear the error.
	s.SetLoading("BTC/USD", false, false)
	if s.Status("BTC/USD").Err == nil {
		t.Fatal("finishing a load must not clear the error")
	}

	// Starting a new load does.
	s.SetLoading("BTC/USD", true, false)
	if s.Status("BTC/USD").Err != nil {
		t.Fatal("starting a load must clear the error")
	}
}

func TestOnChangeFiresPerMutation(t *testing.T) {
	s := NewStore()
	var got []string
	unsub := s.OnChange(func(symbol string) { got = append(got, symbol) })

	s.Ingest("BTC/USD", []models.Candle{candle(60, 1)}, IngestReset)
	s.AppendTick("ETH/USD", candle(60, 2))
	if len(got) != 2 || got[0] != "BTC/USD" || got[1] != "ETH/USD" {
		t.Fatalf("unexpected notifications: %v", got)
	}

	unsub()
	s.AppendTick("BTC/USD", candle(120, 3))
	if len(got) != 2 {
		t.Fatal("unsubscribed listener still notified")
	}
}

func TestClearDropsSymbolState(t *testing.T) {
	s := NewStore()
	s.Ingest("BTC/USD", []models.Candle{candle(60, 1)}, IngestReset)
	s.SetError("BTC/USD", errors.New("x"))

	s.Clear("BTC/USD")

	if s.HasData("BTC/USD") {
		t.Fatal("expected cleared series")
	}
	if s.Status("BTC/USD").Err != nil {
		t.Fatal("expected cleared error")
	}
}

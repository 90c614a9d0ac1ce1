// Package ingest normalizes heterogeneous wire payloads into canonical
// candles, quotes and trades, and routes them into the series cache and the
// alert pipeline. Normalize is the single trust boundary: nothing malformed
// passes it.
package ingest

import (
	"encoding/json"
	"strconv"
	"time"

	"quotewatch/internal/models"
)

// Message is the closed set of normalized payload variants.
type Message interface {
	isMessage()
}

// BarMessage is a normalized OHLCV bar.
type BarMessage struct {
	Symbol string
	Candle models.Candle
}

// QuoteMessage is a normalized bid/ask quote.
type QuoteMessage struct {
	Quote models.Quote
}

// TradeMessage is a normalized executed trade.
type TradeMessage struct {
	Trade models.Trade
}

func (BarMessage) isMessage()   {}
func (QuoteMessage) isMessage() {}
func (TradeMessage) isMessage() {}

// Normalize converts a raw transport payload into one of the canonical
// message variants. It accepts JSON bytes or an already-decoded object and
// tolerates string-typed numbers and the key aliases seen across feeds.
// Unparseable input yields nil: the record is dropped at this boundary and no
// error propagates past it.
func Normalize(raw any) Message {
	obj, ok := toObject(raw)
	if !ok {
		return nil
	}

	symbol, ok := stringField(obj, "symbol", "s", "pair", "ticker", "instrument")
	if !ok || symbol == "" {
		return nil
	}

	// Quotes carry a bid/ask pair.
	if bid, okBid := floatField(obj, "bid_price", "bidPrice", "bid", "bp", "b"); okBid {
		ask, okAsk := floatField(obj, "ask_price", "askPrice", "ask", "ap", "a")
		if !okAsk {
			return nil
		}
		q := models.Quote{
			Symbol:   symbol,
			BidPrice: bid,
			AskPrice: ask,
		}
		q.BidSize, _ = floatField(obj, "bid_size", "bidSize", "bs")
		q.AskSize, _ = floatField(obj, "ask_size", "askSize", "as")
		if vol, okVol := floatField(obj, "volume", "v", "vol"); okVol {
			q.Volume = &vol
		}
		if ts, okTS := timeField(obj); okTS {
			q.Timestamp = time.Unix(ts, 0).UTC()
		} else {
			q.Timestamp = time.Now().UTC()
		}
		return QuoteMessage{Quote: q}
	}

	// Bars carry a full OHLC set plus a timestamp.
	open, okO := floatField(obj, "open", "o")
	high, okH := floatField(obj, "high", "h")
	low, okL := floatField(obj, "low", "l")
	closeP, okC := floatField(obj, "close", "c")
	if okO && okH && okL && okC {
		ts, okTS := timeField(obj)
		if !okTS {
			return nil
		}
		vol, _ := floatField(obj, "volume", "v", "vol")
		return BarMessage{
			Symbol: symbol,
			Candle: models.Candle{
				Time:   ts,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closeP,
				Volume: vol,
			},
		}
	}

	// Trades carry a price and a size.
	if price, okP := floatField(obj, "price", "p", "last", "ltp"); okP {
		size, okS := floatField(obj, "size", "qty", "quantity", "q", "amount")
		if !okS {
			return nil
		}
		ts, okTS := timeField(obj)
		if !okTS {
			ts = time.Now().Unix()
		}
		return TradeMessage{
			Trade: models.Trade{
				Symbol: symbol,
				Price:  price,
				Size:   size,
				Time:   ts,
			},
		}
	}

	return nil
}

func toObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case []byte:
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err != nil {
			return nil, false
		}
		return obj, true
	case json.RawMessage:
		return toObject([]byte(v))
	case string:
		return toObject([]byte(v))
	default:
		return nil, false
	}
}

func stringField(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// floatField reads the first present key, accepting native numbers,
// json.Number and numeric strings.
func floatField(obj map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return 0, false
			}
			return f, true
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return 0, false
			}
			return f, true
		default:
			return 0, false
		}
	}
	return 0, false
}

// timeField reads a timestamp in epoch seconds. Millisecond values are
// detected by magnitude and scaled down.
func timeField(obj map[string]any) (int64, bool) {
	f, ok := floatField(obj, "time", "timestamp", "t", "ts", "T", "E")
	if !ok || f <= 0 {
		return 0, false
	}
	ts := int64(f)
	if ts > 1e12 { // milliseconds
		ts /= 1000
	}
	return ts, true
}

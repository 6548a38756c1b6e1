package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"scalper_bot/internal/models"
	"scalper_bot/internal/modules/config"
	healthsvc "scalper_bot/internal/modules/health/service"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Client — провайдер рыночных данных: стрим закрытых свечей по WS от
// терминального моста плюс HTTP-снапшоты (бары, тик, метаданные
// инструмента). Движку отдаются только готовые слепки.
type Client struct {
	cfg    *config.Config
	health *healthsvc.State

	http     *http.Client
	wsDialer *websocket.Dialer
}

func NewClient(cfg *config.Config, health *healthsvc.State) *Client {
	return &Client{
		cfg:      cfg,
		health:   health,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{},
	}
}

// OutTick — закрытая свеча наружу (в StrategyHub).
type OutTick struct {
	Symbol    string
	Timeframe string
	Candle    models.Candle
}

type wsCandle struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Time      int64   `json:"time"` // unix-секунды закрытия
	Confirm   bool    `json:"confirm"`
}

// Stream подключается к мосту и гонит закрытые свечи в out.
// Реконнект с паузой, пока контекст жив.
func (c *Client) Stream(ctx context.Context, symbol string, timeframes []string, out chan<- OutTick) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.runOnce(ctx, symbol, timeframes, out); err != nil && ctx.Err() == nil {
			fmt.Printf("[MARKET] ws error: %v, reconnect in 5s\n", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (c *Client) runOnce(ctx context.Context, symbol string, timeframes []string, out chan<- OutTick) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.cfg.Market.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.Market.WSURL, err)
	}
	defer conn.Close()

	c.health.SetWSConnected(true)
	defer c.health.SetWSConnected(false)

	sub := map[string]any{
		"op":         "subscribe",
		"symbol":     symbol,
		"timeframes": timeframes,
	}
	payload, err := sonic.Marshal(sub)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var wc wsCandle
		if err := sonic.Unmarshal(raw, &wc); err != nil {
			continue // служебные сообщения моста
		}
		if !wc.Confirm {
			continue // сигналим только по закрытым свечам
		}
		c.health.TouchBar(time.Unix(wc.Time, 0).UTC())
		tick := OutTick{
			Symbol:    wc.Symbol,
			Timeframe: wc.Timeframe,
			Candle: models.Candle{
				Open:  wc.Open,
				High:  wc.High,
				Low:   wc.Low,
				Close: wc.Close,
				Time:  time.Unix(wc.Time, 0).UTC(),
			},
		}
		select {
		case <-ctx.Done():
			return nil
		case out <- tick:
		}
	}
}

type barsResponse struct {
	Bars []wsCandle `json:"bars"`
}

// GetBars — последние n закрытых свечей таймфрейма, от старых к новым.
func (c *Client) GetBars(ctx context.Context, symbol, timeframe string, n int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("limit", fmt.Sprintf("%d", n))

	raw, err := c.get(ctx, "/bars?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var resp barsResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]models.Candle, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		bars = append(bars, models.Candle{
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
			Time:  time.Unix(b.Time, 0).UTC(),
		})
	}
	return bars, nil
}

type tickResponse struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// GetTick — текущий bid/ask.
func (c *Client) GetTick(ctx context.Context, symbol string) (bid, ask float64, err error) {
	raw, err := c.get(ctx, "/tick?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return 0, 0, err
	}
	var resp tickResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return 0, 0, fmt.Errorf("decode tick: %w", err)
	}
	return resp.Bid, resp.Ask, nil
}

type metaResponse struct {
	Point      float64 `json:"point"`
	StopsLevel float64 `json:"stops_level"` // в пунктах, 0 — брокер не дал
}

// GetSymbolMeta — размер пункта и брокерский минимум дистанции SL/TP.
func (c *Client) GetSymbolMeta(ctx context.Context, symbol string) (point, minDistance float64, err error) {
	raw, err := c.get(ctx, "/symbol?symbol="+url.QueryEscape(symbol))
	if err != nil {
		return 0, 0, err
	}
	var resp metaResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return 0, 0, fmt.Errorf("decode symbol meta: %w", err)
	}
	return resp.Point, resp.StopsLevel * resp.Point, nil
}

type indicatorsResponse struct {
	MACD       []float64 `json:"macd"`
	MACDSignal []float64 `json:"macd_signal"`
	RSI        []float64 `json:"rsi"`
	VWAP       *float64  `json:"vwap"`
	ATR        *float64  `json:"atr"`
}

// GetIndicators — предрассчитанные индикаторы от провайдера.
// Любое поле может отсутствовать; это деградация, а не ошибка.
func (c *Client) GetIndicators(ctx context.Context, symbol, timeframe string) (models.IndicatorSnapshot, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)

	raw, err := c.get(ctx, "/indicators?"+q.Encode())
	if err != nil {
		return models.IndicatorSnapshot{}, err
	}
	var resp indicatorsResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("decode indicators: %w", err)
	}
	return models.IndicatorSnapshot{
		MACD:       resp.MACD,
		MACDSignal: resp.MACDSignal,
		RSI:        resp.RSI,
		VWAP:       resp.VWAP,
		ATR:        resp.ATR,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Market.HTTPURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

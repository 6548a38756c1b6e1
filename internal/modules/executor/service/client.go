package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"scalper_bot/internal/models"
	"scalper_bot/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Client — сток исполнения: отправляет TradeIntent терминальному мосту.
// Ядро не знает, как именно исполняется ордер; политика тут простая —
// один повтор на сбой или неуспешный статус, дальше ошибка наверх.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

type orderRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Lot    float64 `json:"lot"`
	SL     float64 `json:"sl"`
	TP     float64 `json:"tp"`
	Reason string  `json:"reason"`
}

type orderResponse struct {
	OK      bool    `json:"ok"`
	Ticket  int64   `json:"ticket"`
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}

type ExecResult struct {
	Ticket int64
	Price  float64
}

// PlaceOrder — рыночный ордер с SL/TP. Ровно один ретрай.
func (c *Client) PlaceOrder(ctx context.Context, intent models.TradeIntent) (ExecResult, error) {
	res, err := c.placeOnce(ctx, intent)
	if err == nil {
		return res, nil
	}
	res, retryErr := c.placeOnce(ctx, intent)
	if retryErr != nil {
		return ExecResult{}, errors.Wrap(retryErr, "place order retry failed")
	}
	return res, nil
}

type positionsResponse struct {
	Buy  bool `json:"buy"`
	Sell bool `json:"sell"`
}

// OpenSides — какие стороны сейчас заняты открытыми позициями.
// Мост — источник истины, локальный набор лишь кэширует его ответ.
func (c *Client) OpenSides(ctx context.Context, symbol string) (models.ActiveTradeSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.Executor.URL+"/positions?symbol="+url.QueryEscape(symbol), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get positions")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("executor http %d: %s", resp.StatusCode, string(raw))
	}
	var r positionsResponse
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrap(err, "decode positions")
	}
	return models.ActiveTradeSet{
		models.SideBuy:  r.Buy,
		models.SideSell: r.Sell,
	}, nil
}

func (c *Client) placeOnce(ctx context.Context, intent models.TradeIntent) (ExecResult, error) {
	body := orderRequest{
		Symbol: intent.Symbol,
		Side:   string(intent.Side),
		Lot:    intent.SizeHint,
		SL:     intent.SL,
		TP:     intent.TP,
		Reason: intent.Reason,
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "marshal order")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Executor.URL+"/order", bytes.NewReader(payload))
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ExecResult{}, errors.Wrap(err, "send order")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return ExecResult{}, errors.Errorf("executor http %d: %s", resp.StatusCode, string(raw))
	}

	var r orderResponse
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return ExecResult{}, errors.Wrap(err, "decode order response")
	}
	if !r.OK {
		return ExecResult{}, errors.Errorf("order rejected: %s", r.Message)
	}
	return ExecResult{Ticket: r.Ticket, Price: r.Price}, nil
}

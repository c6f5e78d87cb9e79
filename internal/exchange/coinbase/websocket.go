package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 90 * time.Second
)

type wsSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type wsMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Message   string `json:"message"`
}

// StreamTicker subscribes to the ticker channel for one market and delivers
// last-trade prices until the context is cancelled or the connection drops.
// The caller decides whether to reconnect; a dropped stream just closes the
// channel.
func (c *Client) StreamTicker(ctx context.Context, market string) (<-chan float64, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.WebsocketURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial ticker feed: %w", err)
	}

	sub := wsSubscribe{
		Type:       "subscribe",
		ProductIDs: []string{market},
		Channels:   []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to ticker feed: %w", err)
	}

	prices := make(chan float64, 1)

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(10 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer close(prices)
		defer conn.Close()
		for {
			conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var msg wsMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Type != "ticker" || msg.ProductID != market {
				continue
			}
			price, err := strconv.ParseFloat(msg.Price, 64)
			if err != nil {
				continue
			}

			select {
			case prices <- price:
			case <-ctx.Done():
				return
			default:
				// drop the update if the reader is behind; only the latest
				// price matters
			}
		}
	}()

	return prices, nil
}

package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier pushes alerts to a Telegram chat. Send failures are
// returned to the caller but must never affect trading.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

var levelEmoji = map[string]string{
	"INFO":    "ℹ️",
	"WARNING": "⚠️",
	"ERROR":   "🚨",
	"TRADE":   "💰",
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji, ok := levelEmoji[strings.ToUpper(level)]
	if !ok {
		emoji = "ℹ️"
	}

	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {fmt.Sprintf("%s *PyCryptoBot*\n\n%s", emoji, message)},
		"parse_mode": {"Markdown"},
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	resp, err := t.client.PostForm(endpoint, form)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatTrade renders a trade event as a notification body.
func FormatTrade(market string, side types.OrderSide, price, size float64) string {
	verb := "Bought"
	if side == types.OrderSideSell {
		verb = "Sold"
	}
	return fmt.Sprintf("%s %.8f %s @ $%.2f", verb, size, market, price)
}

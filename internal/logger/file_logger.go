package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Logger represents a file logger for trading activities
type Logger struct {
	market      string
	granularity string
	logFile     *os.File
	logger      *log.Logger
	mu          sync.Mutex
	logDir      string
	console     bool
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewLogger creates a new file logger for the specified market and granularity
func NewLogger(market string, granularity types.Granularity, console bool) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s_%s.log", market, granularity.String(), timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		market:      market,
		granularity: granularity.String(),
		logFile:     file,
		logger:      log.New(file, "", 0),
		logDir:      logDir,
		console:     console,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 TRADING SESSION STARTED
================================================================================
Market: %s | Granularity: %s
Started: %s
Log File: %s_%s_%s.log
================================================================================
`, l.market, l.granularity, time.Now().Format("2006-01-02 15:04:05"),
		l.market, l.granularity, time.Now().Format("2006-01-02"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logEntry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.logger.Println(logEntry)
	if l.console {
		fmt.Println(logEntry)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a trading action
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs market status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogDecision logs the outcome of a trading tick
func (l *Logger) LogDecision(d types.Decision, pos types.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	emoji := "⏳"
	switch d.Action {
	case types.ActionBuy:
		emoji = "📈"
	case types.ActionSell:
		emoji = "📉"
	}

	statusLog := fmt.Sprintf(`
[%s] [STATUS] ==================== MARKET STATUS ====================
%s Action: %s | Price: $%.2f
🧭 Reason: %s`,
		timestamp, emoji, d.Action, d.Price, d.Reason)

	if pos.Holding() {
		statusLog += fmt.Sprintf(`
💼 Position: HOLDING | Entry: $%.2f | Size: %.8f`, pos.EntryPrice, pos.EntrySize)
		if margin, ok := d.Signals["margin_pct"]; ok {
			statusLog += fmt.Sprintf(`
💹 Margin: %.2f%%`, margin)
		}
	} else {
		statusLog += "\n💼 Position: FLAT"
	}

	if len(d.Missing) > 0 {
		statusLog += fmt.Sprintf("\n⚠️  Missing signals: %v", d.Missing)
	}

	statusLog += "\n=========================================================="

	l.logger.Println(statusLog)
	if l.console {
		fmt.Println(statusLog)
	}
}

// LogTradeExecution logs trade execution details
func (l *Logger) LogTradeExecution(side types.OrderSide, orderID string, size, price, value float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	tradeLog := fmt.Sprintf(`
[%s] [TRADE] ==================== %s EXECUTED ====================
✅ Order ID: %s
📦 Size: %.8f %s
💰 Price: $%.2f
💵 Value: $%.2f
=============================================================`,
		timestamp, side, orderID, size, l.market, price, value)

	l.logger.Println(tradeLog)
	if l.console {
		fmt.Println(tradeLog)
	}
}

// LogTradeClosed logs the close of a round trip position
func (l *Logger) LogTradeClosed(entryPrice, exitPrice, marginPct float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	cycleLog := fmt.Sprintf(`
[%s] [TRADE] ==================== POSITION CLOSED ====================
🎯 Entry Price: $%.2f
🚪 Exit Price: $%.2f
📊 Margin: %.2f%%
==============================================================`,
		timestamp, entryPrice, exitPrice, marginPct)

	l.logger.Println(cycleLog)
	if l.console {
		fmt.Println(cycleLog)
	}
}

// LogGranularityChange logs a smart switch transition
func (l *Logger) LogGranularityChange(from, to types.Granularity) {
	l.Info("🔀 Granularity switched: %s -> %s", from, to)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		footer := fmt.Sprintf(`
================================================================================
🛑 TRADING SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, timestamp)
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s_%s.log", l.market, l.granularity, timestamp)
	return filepath.Join(l.logDir, filename)
}

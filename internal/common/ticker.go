// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL", "NSE:INFY")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ", "NSE")
	Exchange string
	// Code is the stock/security code (e.g., "AAPL", "INFY")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"US":     ".US",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"NSE":    ".NSE",
	"BSE":    ".BSE",
	"LSE":    ".LSE",
	"ASX":    ".AU",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
}

// yahooSuffixToExchange maps Yahoo-style suffixes that the completion service tends to
// return (e.g. "RELIANCE.NS") to exchange codes.
var yahooSuffixToExchange = map[string]string{
	"NS": "NSE",
	"BO": "BSE",
	"L":  "LSE",
	"AX": "ASX",
	"TO": "TSX",
	"DE": "XETRA",
}

// DefaultExchange is used when parsing tickers without an exchange prefix.
var DefaultExchange = "US"

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL" (colon separator)
//   - "NSE.INFY" -> Exchange="NSE", Code="INFY" (known exchange prefix)
//   - "INFY.NS" -> Exchange="NSE", Code="INFY" (Yahoo-style suffix)
//   - "aapl" -> Exchange=DefaultExchange, Code="AAPL"
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Only match dot prefixes that are known exchanges to avoid conflicts with codes containing dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		prefix := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[prefix]; ok {
			return Ticker{Exchange: prefix, Code: strings.ToUpper(ticker[idx+1:]), Raw: ticker}
		}
	}

	if idx := strings.LastIndex(ticker, "."); idx > 0 && idx < len(ticker)-1 {
		suffix := strings.ToUpper(ticker[idx+1:])
		if exchange, ok := yahooSuffixToExchange[suffix]; ok {
			return Ticker{Exchange: exchange, Code: strings.ToUpper(ticker[:idx]), Raw: ticker}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "NASDAQ:AAPL" -> "AAPL.US", "NSE:INFY" -> "INFY.NSE"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".US"
	}
	return t.Code + suffix
}

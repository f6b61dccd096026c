package eastmoney

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	quoteBaseURL = "https://push2.eastmoney.com"
	quotePath    = "/api/qt/stock/get"

	// quoteFields is the fixed field list requested from the vendor's
	// flat field-coded quote endpoint. It must stay in sync with the
	// json tags on Quote below.
	quoteFields = "f11,f12,f13,f14,f15,f16,f17,f18,f19,f20," +
		"f31,f32,f33,f34,f35,f36,f37,f38,f39,f40," +
		"f43,f44,f45,f46,f47,f48,f49,f50,f51,f52,f60,f71,f161,f168,f169,f170"
)

// Quote is the remapped bid/ask ladder and day statistics for one
// symbol. The json tags reproduce the vendor's field-code table
// verbatim; changing them breaks behavioral compatibility.
type Quote struct {
	Symbol string `json:"-"`

	Sell5    FlexibleDecimal `json:"f31"`
	Sell5Vol FlexibleDecimal `json:"f32"`
	Sell4    FlexibleDecimal `json:"f33"`
	Sell4Vol FlexibleDecimal `json:"f34"`
	Sell3    FlexibleDecimal `json:"f35"`
	Sell3Vol FlexibleDecimal `json:"f36"`
	Sell2    FlexibleDecimal `json:"f37"`
	Sell2Vol FlexibleDecimal `json:"f38"`
	Sell1    FlexibleDecimal `json:"f39"`
	Sell1Vol FlexibleDecimal `json:"f40"`

	Buy1    FlexibleDecimal `json:"f19"`
	Buy1Vol FlexibleDecimal `json:"f20"`
	Buy2    FlexibleDecimal `json:"f17"`
	Buy2Vol FlexibleDecimal `json:"f18"`
	Buy3    FlexibleDecimal `json:"f15"`
	Buy3Vol FlexibleDecimal `json:"f16"`
	Buy4    FlexibleDecimal `json:"f13"`
	Buy4Vol FlexibleDecimal `json:"f14"`
	Buy5    FlexibleDecimal `json:"f11"`
	Buy5Vol FlexibleDecimal `json:"f12"`

	Last         FlexibleDecimal `json:"f43"`
	High         FlexibleDecimal `json:"f44"`
	Low          FlexibleDecimal `json:"f45"`
	Open         FlexibleDecimal `json:"f46"`
	Volume       FlexibleDecimal `json:"f47"`
	Turnover     FlexibleDecimal `json:"f48"`
	OuterVolume  FlexibleDecimal `json:"f49"`
	VolumeRatio  FlexibleDecimal `json:"f50"`
	LimitUp      FlexibleDecimal `json:"f51"`
	LimitDown    FlexibleDecimal `json:"f52"`
	PrevClose    FlexibleDecimal `json:"f60"`
	AvgPrice     FlexibleDecimal `json:"f71"`
	InnerVolume  FlexibleDecimal `json:"f161"`
	TurnoverRate FlexibleDecimal `json:"f168"`
	Change       FlexibleDecimal `json:"f169"`
	ChangePct    FlexibleDecimal `json:"f170"`
}

// QuoteClient fetches public market data. No validate key is required:
// the quote endpoint does not depend on session state.
type QuoteClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewQuoteClient creates a public quote client.
func NewQuoteClient(httpClient *http.Client) *QuoteClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &QuoteClient{
		httpClient: httpClient,
		baseURL:    quoteBaseURL,
	}
}

// GetQuote fetches the current bid/ask ladder and day statistics for an
// A-share symbol.
func (c *QuoteClient) GetQuote(symbol string) (*Quote, error) {
	symbol = strings.TrimSpace(symbol)
	url := fmt.Sprintf("%s%s?fltt=2&invt=2&secid=%s&fields=%s", c.baseURL, quotePath, secID(symbol), quoteFields)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, &TradingError{Message: "building quote request", Cause: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TradingError{Message: "fetching quote", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TradingError{Message: "reading quote response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TradingError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Message:    "quote request failed",
		}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TradingError{Message: "decoding quote envelope", Cause: err}
	}
	if envelope.Data == nil || string(envelope.Data) == "null" {
		return nil, &TradingError{Message: fmt.Sprintf("no quote data for symbol %s", symbol)}
	}

	var quote Quote
	if err := json.Unmarshal(envelope.Data, &quote); err != nil {
		return nil, &TradingError{Message: "decoding quote data", Cause: err}
	}
	quote.Symbol = symbol
	return &quote, nil
}

// secID builds the vendor's exchange-qualified security id: market 1
// for Shanghai listings, 0 otherwise.
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "9") {
		return "1." + symbol
	}
	return "0." + symbol
}

package eastmoney

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	assetPath  = "/Com/queryAssetAndPositionV1?validatekey="
	submitPath = "/Trade/SubmitTradeV2?validatekey="
	revokePath = "/Trade/RevokeOrders?validatekey="
	ordersPath = "/Search/GetOrdersData?validatekey="
)

// APIClient performs authenticated requests against the trading
// endpoints. It is bound to a single validate key; a new login must
// construct a new client so a stale token is never reused silently.
type APIClient struct {
	httpClient  *http.Client
	baseURL     string
	validateKey string
}

// NewAPIClient creates a client bound to the given validate key. An
// empty key fails fast: requests without a token must never be sent.
func NewAPIClient(httpClient *http.Client, validateKey string) (*APIClient, error) {
	if validateKey == "" {
		return nil, &ValidateKeyError{Message: "validate key is empty"}
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &APIClient{
		httpClient:  httpClient,
		baseURL:     tradeBaseURL,
		validateKey: validateKey,
	}, nil
}

// post is the generic request primitive: a form POST to the endpoint
// with the validate key appended, using the vendor's fixed header set.
// A nil form sends the vendor's default paging body.
func (c *APIClient) post(path string, form url.Values) ([]byte, error) {
	if form == nil {
		form = url.Values{
			"qqhs": {"100"},
			"dwc":  {""},
		}
	}

	fullURL := c.baseURL + path + c.validateKey
	req, err := http.NewRequest("POST", fullURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TradingError{Message: "building request", Cause: err}
	}
	setBaseHeaders(req)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TradingError{Message: fmt.Sprintf("request %s failed", path), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TradingError{Message: "reading response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Eastmoney] Request %s failed, code=%d, response=%s", fullURL, resp.StatusCode, string(body))
		return nil, &TradingError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Message:    fmt.Sprintf("request %s failed", path),
		}
	}

	return body, nil
}

// QueryAssetAndPosition fetches the asset/position snapshot: one entry
// per account currency, each with its nested positions. A response
// without a Data array is an empty snapshot, not a fault.
func (c *APIClient) QueryAssetAndPosition() ([]assetEntry, error) {
	body, err := c.post(assetPath, nil)
	if err != nil {
		return nil, err
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &TradingError{Message: "decoding asset response", Cause: err}
	}
	if result.Data == nil {
		return nil, nil
	}

	var entries []assetEntry
	if err := json.Unmarshal(result.Data, &entries); err != nil {
		return nil, &TradingError{Message: "decoding asset entries", Cause: err}
	}
	return entries, nil
}

// SubmitTrade submits an order. The returned envelope carries the
// vendor's Status and, on acceptance, one confirmed leg per Data entry.
func (c *APIClient) SubmitTrade(symbol string, side OrderSide, market string, price decimal.Decimal, quantity int) (*apiResponse, error) {
	form := url.Values{}
	form.Set("stockCode", symbol)
	form.Set("price", price.String())
	form.Set("amount", fmt.Sprintf("%d", quantity))
	form.Set("tradeType", string(side))
	form.Set("market", market)
	form.Set("zqmc", "")

	body, err := c.post(submitPath, form)
	if err != nil {
		return nil, err
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &TradingError{Message: "decoding submit response", Cause: err}
	}
	return &result, nil
}

// RevokeOrders submits one or more composite order identifiers
// (whitespace-trimmed, comma-joinable) for cancellation. The vendor
// does not return structured JSON here, so the raw trimmed response
// text is returned as-is; it may describe a partial success.
func (c *APIClient) RevokeOrders(orderIDs string) (string, error) {
	form := url.Values{}
	form.Set("revokes", strings.TrimSpace(orderIDs))

	body, err := c.post(revokePath, form)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// GetOrdersData fetches the full order history.
func (c *APIClient) GetOrdersData() ([]OrderRecord, error) {
	body, err := c.post(ordersPath, nil)
	if err != nil {
		return nil, err
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &TradingError{Message: "decoding orders response", Cause: err}
	}
	if result.Data == nil {
		return nil, nil
	}

	var records []OrderRecord
	if err := json.Unmarshal(result.Data, &records); err != nil {
		return nil, &TradingError{Message: "decoding order records", Cause: err}
	}
	return records, nil
}

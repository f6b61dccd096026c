package eastmoney

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/riiy/EMTradingAgent/internal/broker"
	"github.com/shopspring/decimal"
)

// TradingAgent composes the auth manager and API client into a single
// facade exposing login/logout/order/query operations.
//
// The mutex guards the session token and account state: hydration
// performs multiple mutations that must appear atomic to concurrent
// readers when the agent sits behind an HTTP service. The API client is
// rebuilt on every login so a stale validate key is never reused.
type TradingAgent struct {
	mu         sync.Mutex
	httpClient *http.Client
	auth       *AuthClient
	api        *APIClient
	quote      *QuoteClient
	vault      *broker.Vault

	username   string
	passCipher []byte
	passNonce  []byte

	duration int
	loggedIn bool
	accounts []AccountInfo

	// baseURL overrides the vendor trade gateway when non-empty.
	baseURL string
}

const credentialLabel = "eastmoney-password"

// NewAgent creates a trading agent. The recognizer is the OCR
// capability used to solve login captchas. A nil vault means passwords
// are sealed under a random per-process secret.
func NewAgent(recognizer Recognizer, vault *broker.Vault) (*TradingAgent, error) {
	// The gateway correlates captcha, login, and trade page requests
	// through session cookies; all clients share one jar.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar}

	solver, err := NewCaptchaSolver(httpClient, recognizer)
	if err != nil {
		return nil, err
	}

	// Passwords are held AES-GCM-sealed in memory; plaintext exists
	// only transiently during a login attempt.
	if vault == nil {
		vault, err = broker.NewRandomVault()
		if err != nil {
			return nil, fmt.Errorf("creating credential vault: %w", err)
		}
	}

	return &TradingAgent{
		httpClient: httpClient,
		auth:       NewAuthClient(httpClient, solver),
		quote:      NewQuoteClient(httpClient),
		vault:      vault,
		duration:   DefaultDuration,
	}, nil
}

// SetCredentials stores credentials for later Login calls. The password
// is sealed into the vault immediately.
func (a *TradingAgent) SetCredentials(username, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeCredentials(username, password)
}

// SetRetryPolicy overrides the login transport-fault retry policy.
func (a *TradingAgent) SetRetryPolicy(attempts int, delay time.Duration) {
	a.auth.SetRetryPolicy(attempts, delay)
}

// SetSessionDuration sets the session lifetime requested at login, in
// minutes.
func (a *TradingAgent) SetSessionDuration(minutes int) {
	if minutes > 0 {
		a.duration = minutes
	}
}

func (a *TradingAgent) storeCredentials(username, password string) error {
	if username != "" {
		a.username = username
	}
	if password != "" {
		cipher, nonce, err := a.vault.Seal(password, credentialLabel)
		if err != nil {
			return fmt.Errorf("sealing credentials: %w", err)
		}
		a.passCipher = cipher
		a.passNonce = nonce
	}
	return nil
}

// Login authenticates with the vendor and hydrates the account
// snapshot. Passed-in credentials are merged with previously stored
// ones; if either is still missing, it fails fast with
// ErrMissingCredentials and no network call occurs.
//
// Any fault during post-login hydration fails the whole login: the
// agent is never left partially logged in.
func (a *TradingAgent) Login(username, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.storeCredentials(username, password); err != nil {
		return err
	}
	if a.username == "" || a.passCipher == nil {
		return ErrMissingCredentials
	}

	plainPassword, err := a.vault.Open(a.passCipher, a.passNonce, credentialLabel)
	if err != nil {
		return fmt.Errorf("unsealing credentials: %w", err)
	}

	// Invalidate any previous session before attempting a new one.
	a.loggedIn = false
	a.api = nil
	a.accounts = nil

	if err := a.auth.Login(a.username, plainPassword, a.duration); err != nil {
		return err
	}

	api, err := NewAPIClient(a.httpClient, a.auth.ValidateKey())
	if err != nil {
		a.auth.Logout()
		return err
	}
	if a.baseURL != "" {
		api.baseURL = a.baseURL
	}

	entries, err := api.QueryAssetAndPosition()
	if err != nil {
		a.auth.Logout()
		return fmt.Errorf("hydrating account snapshot: %w", err)
	}

	accounts := make([]AccountInfo, 0, len(entries))
	for _, entry := range entries {
		portfolio := &Portfolio{}
		for _, pos := range entry.Positions {
			portfolio.Add(pos)
		}
		accounts = append(accounts, AccountInfo{
			Username:  a.username,
			Overview:  entry.AccountOverview,
			Portfolio: portfolio,
		})
	}

	a.api = api
	a.accounts = accounts
	a.loggedIn = true
	return nil
}

// Logout clears all session and account state. Idempotent, always
// succeeds, no network call.
func (a *TradingAgent) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loggedIn = false
	a.api = nil
	a.accounts = nil
	a.auth.Logout()
}

// IsLoggedIn reports whether the agent holds an authenticated session.
func (a *TradingAgent) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

// AccountInfo returns the account snapshot captured at login. Empty
// when not logged in.
func (a *TradingAgent) AccountInfo() []AccountInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loggedIn {
		return nil
	}
	out := make([]AccountInfo, len(a.accounts))
	copy(out, a.accounts)
	return out
}

// PlaceOrder submits a trade and returns one composite order
// identifier per confirmed leg, synthesized from the current trade date
// and the vendor-echoed sequence number. A vendor rejection surfaces
// the vendor's message and returns no identifiers.
func (a *TradingAgent) PlaceOrder(symbol string, side OrderSide, quantity int, price decimal.Decimal) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loggedIn || a.api == nil {
		return nil, ErrNotLoggedIn
	}

	market := MarketCode(symbol)
	if market == MarketUnknown {
		return nil, &TradingError{Message: fmt.Sprintf("unknown market segment for symbol %q", symbol)}
	}

	log.Printf("[Eastmoney] Placing %s order for %s: %d shares at %s", side, symbol, quantity, price)

	resp, err := a.api.SubmitTrade(symbol, side, market, price, quantity)
	if err != nil {
		return nil, err
	}
	if resp.Status != 0 {
		log.Printf("[Eastmoney] Order rejected: %s", resp.Message)
		return nil, &TradingError{Message: resp.Message}
	}

	var confirms []submitConfirmation
	if resp.Data != nil {
		if err := json.Unmarshal(resp.Data, &confirms); err != nil {
			return nil, &TradingError{Message: "decoding submit confirmations", Cause: err}
		}
	}

	now := time.Now()
	ids := make([]string, 0, len(confirms))
	for _, confirm := range confirms {
		id := FormatOrderID(now, confirm.Sequence.String())
		log.Printf("[Eastmoney] Order placed with ID %s", id)
		ids = append(ids, id)
	}
	return ids, nil
}

// CancelOrder submits composite order identifiers for cancellation and
// returns the vendor's raw response text, which may describe a partial
// success for multi-order strings.
func (a *TradingAgent) CancelOrder(orderIDs string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loggedIn || a.api == nil {
		return "", ErrNotLoggedIn
	}

	log.Printf("[Eastmoney] Cancelling orders: %s", orderIDs)
	return a.api.RevokeOrders(orderIDs)
}

// QueryOrders returns the full order history.
func (a *TradingAgent) QueryOrders() ([]OrderRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loggedIn || a.api == nil {
		return nil, ErrNotLoggedIn
	}
	return a.api.GetOrdersData()
}

// MarketData returns the public quote for a symbol.
func (a *TradingAgent) MarketData(symbol string) (*Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loggedIn {
		return nil, ErrNotLoggedIn
	}
	return a.quote.GetQuote(symbol)
}

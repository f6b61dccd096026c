// Package handlers provides HTTP handlers for the trading service.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/riiy/EMTradingAgent/internal/broker/eastmoney"
	"github.com/riiy/EMTradingAgent/internal/journal"
	"github.com/riiy/EMTradingAgent/internal/middleware"
)

// Agent is the brokerage facade the handlers drive.
type Agent interface {
	Login(username, password string) error
	Logout()
	IsLoggedIn() bool
	AccountInfo() []eastmoney.AccountInfo
	PlaceOrder(symbol string, side eastmoney.OrderSide, quantity int, price decimal.Decimal) ([]string, error)
	CancelOrder(orderIDs string) (string, error)
	QueryOrders() ([]eastmoney.OrderRecord, error)
	MarketData(symbol string) (*eastmoney.Quote, error)
}

// TradingHandler handles the trading API routes.
type TradingHandler struct {
	agent   Agent
	journal *journal.Journal
}

// NewTradingHandler creates a new TradingHandler. The journal may be
// nil; journaling is best-effort and never fails a request.
func NewTradingHandler(agent Agent, jnl *journal.Journal) *TradingHandler {
	return &TradingHandler{agent: agent, journal: jnl}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type orderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// Login authenticates with the brokerage gateway.
func (h *TradingHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = middleware.SanitizeString(req.Username)
	if err := h.agent.Login(req.Username, req.Password); err != nil {
		log.Printf("Login failed for %s: %v", req.Username, err)
		h.record(&journal.Entry{Event: journal.EventLogin, Detail: "failed: " + err.Error()})
		writeAgentError(w, err)
		return
	}

	h.record(&journal.Entry{Event: journal.EventLogin, Detail: "ok"})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"accounts": len(h.agent.AccountInfo()),
	})
}

// Logout drops the brokerage session. Always succeeds.
func (h *TradingHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.agent.Logout()
	h.record(&journal.Entry{Event: journal.EventLogout})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Account returns fund overviews for all accounts under the login.
func (h *TradingHandler) Account(w http.ResponseWriter, r *http.Request) {
	if !h.agent.IsLoggedIn() {
		writeAgentError(w, eastmoney.ErrNotLoggedIn)
		return
	}

	accounts := h.agent.AccountInfo()
	overviews := make([]eastmoney.AccountOverview, 0, len(accounts))
	for _, acc := range accounts {
		overviews = append(overviews, acc.Overview)
	}
	writeJSON(w, http.StatusOK, overviews)
}

// Positions returns all positions across accounts.
func (h *TradingHandler) Positions(w http.ResponseWriter, r *http.Request) {
	if !h.agent.IsLoggedIn() {
		writeAgentError(w, eastmoney.ErrNotLoggedIn)
		return
	}

	positions := []eastmoney.Position{}
	for _, acc := range h.agent.AccountInfo() {
		if acc.Portfolio == nil {
			continue
		}
		positions = append(positions, acc.Portfolio.Positions()...)
	}
	writeJSON(w, http.StatusOK, positions)
}

// PlaceOrder submits a limit order and returns the synthesized order
// identifiers.
func (h *TradingHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Symbol = middleware.SanitizeString(req.Symbol)
	req.Side = strings.ToUpper(middleware.SanitizeString(req.Side))

	var errs middleware.ValidationErrors
	if !middleware.ValidateSymbol(req.Symbol) {
		errs.Add("symbol", "must be 1-6 alphanumeric characters")
	}
	if !middleware.ValidateSide(req.Side) {
		errs.Add("side", `must be "B" or "S"`)
	}
	if !middleware.ValidatePrice(req.Price) {
		errs.Add("price", "must be a positive decimal with at most 3 decimal places")
	}
	if !middleware.ValidateQuantity(req.Quantity) {
		errs.Add("quantity", "must be a positive integer")
	}
	if errs.HasErrors() {
		errs.WriteJSON(w)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid price")
		return
	}

	ids, err := h.agent.PlaceOrder(req.Symbol, eastmoney.OrderSide(req.Side), req.Quantity, price)
	if err != nil {
		h.record(&journal.Entry{
			Event: journal.EventOrderRejected, Symbol: req.Symbol, Side: req.Side,
			Price: req.Price, Quantity: req.Quantity, Detail: err.Error(),
		})
		writeAgentError(w, err)
		return
	}

	for _, id := range ids {
		h.record(&journal.Entry{
			Event: journal.EventOrderSubmitted, OrderID: id, Symbol: req.Symbol,
			Side: req.Side, Price: req.Price, Quantity: req.Quantity,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order_ids": ids})
}

// CancelOrder requests cancellation of one order by its composite
// identifier. The vendor's response text is passed through; it may
// describe a partial success.
func (h *TradingHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !middleware.ValidateOrderID(id) {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := h.agent.CancelOrder(id)
	if err != nil {
		writeAgentError(w, err)
		return
	}

	h.record(&journal.Entry{Event: journal.EventCancelRequested, OrderID: id, Detail: result})
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// ListOrders returns the vendor's order history for the current day.
func (h *TradingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	records, err := h.agent.QueryOrders()
	if err != nil {
		writeAgentError(w, err)
		return
	}
	if records == nil {
		records = []eastmoney.OrderRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Quote returns the public market snapshot for a symbol.
func (h *TradingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !middleware.ValidateSymbol(symbol) {
		writeJSONError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	quote, err := h.agent.MarketData(symbol)
	if err != nil {
		writeAgentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Journal returns the most recent local journal entries.
func (h *TradingHandler) Journal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []journal.Entry{})
		return
	}
	entries, err := h.journal.Recent(100)
	if err != nil {
		log.Printf("Error reading journal: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Health reports process liveness and session state.
func (h *TradingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"logged_in": h.agent.IsLoggedIn(),
	})
}

// record appends a journal entry, logging but otherwise ignoring
// failures.
func (h *TradingHandler) record(e *journal.Entry) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Record(e); err != nil {
		log.Printf("Error journaling %s: %v", e.Event, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAgentError maps facade errors to HTTP statuses. Vendor
// rejections and client mistakes are 4xx; gateway trouble is 502.
func writeAgentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, eastmoney.ErrNotLoggedIn):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, eastmoney.ErrMissingCredentials):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case eastmoney.IsRejected(err):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	default:
		var tradingErr *eastmoney.TradingError
		if errors.As(err, &tradingErr) && tradingErr.StatusCode == 0 && tradingErr.Cause == nil {
			// Vendor-level rejection (bad symbol, refused order),
			// not a transport fault.
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSONError(w, http.StatusBadGateway, err.Error())
	}
}

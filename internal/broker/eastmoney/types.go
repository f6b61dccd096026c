package eastmoney

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FlexibleDecimal handles vendor numeric fields that may arrive as JSON
// strings, plain numbers, or garbage. An unparseable value zeroes that
// field only; it never aborts the surrounding decode.
type FlexibleDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON implements custom unmarshaling for FlexibleDecimal.
func (f *FlexibleDecimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	// Strings are the common case: the vendor quotes most numerics.
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = d
	return nil
}

// Session holds the per-login-attempt authentication state. The nonce
// and captcha text are regenerated on every attempt; the validate key
// is set only after a successful credential check plus token scrape.
type Session struct {
	Nonce       float64
	CaptchaText string
	ValidateKey string
}

// Clear resets the session to its unauthenticated state.
func (s *Session) Clear() {
	s.Nonce = 0
	s.CaptchaText = ""
	s.ValidateKey = ""
}

// AccountOverview is an immutable snapshot of one account currency's
// funds and P&L, rebuilt wholesale on every login.
type AccountOverview struct {
	FrozenFunds       FlexibleDecimal `json:"Djzj"`
	DayPnL            FlexibleDecimal `json:"Dryk"`
	WithdrawableFunds FlexibleDecimal `json:"Kqzj"`
	AvailableFunds    FlexibleDecimal `json:"Kyzj"`
	TotalPnL          FlexibleDecimal `json:"Ljyk"`
	MoneyType         string          `json:"Money_type"`
	TotalAssetsRMB    FlexibleDecimal `json:"RMBZzc"`
	FundBalance       FlexibleDecimal `json:"Zjye"`
	MarketValue       FlexibleDecimal `json:"Zxsz"`
	TotalAssets       FlexibleDecimal `json:"Zzc"`
}

// Position is a per-security holding snapshot. Vendor numerics arrive
// as strings and are parsed decimal-safe, field by field.
type Position struct {
	Symbol      string          `json:"Zqdm"`
	Name        string          `json:"Zqmc"`
	Quantity    FlexibleDecimal `json:"Zqsl"`
	Available   FlexibleDecimal `json:"Kysl"`
	CostPrice   FlexibleDecimal `json:"Cbjg"`
	LastPrice   FlexibleDecimal `json:"Zxjg"`
	MarketValue FlexibleDecimal `json:"Zxsz"`
	PnL         FlexibleDecimal `json:"Ljyk"`
	PnLRatio    FlexibleDecimal `json:"Ykbl"`
}

// Portfolio is an ordered, append-only collection of positions owned by
// exactly one AccountOverview pairing.
type Portfolio struct {
	positions []Position
}

// Add appends a position to the portfolio.
func (p *Portfolio) Add(pos Position) {
	p.positions = append(p.positions, pos)
}

// Positions returns the positions in insertion order.
func (p *Portfolio) Positions() []Position {
	return p.positions
}

// Len returns the number of positions.
func (p *Portfolio) Len() int {
	return len(p.positions)
}

// TotalMarketValue sums the market value of all positions.
func (p *Portfolio) TotalMarketValue() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.positions {
		total = total.Add(pos.MarketValue.Decimal)
	}
	return total
}

// AccountInfo pairs an account overview with its portfolio.
type AccountInfo struct {
	Username  string
	Overview  AccountOverview
	Portfolio *Portfolio
}

// OrderSide is the trade direction in the vendor's encoding.
type OrderSide string

const (
	// SideBuy submits a buy order.
	SideBuy OrderSide = "B"
	// SideSell submits a sell order.
	SideSell OrderSide = "S"
)

// Order is a client-intent order, distinct from the vendor's confirmed
// OrderRecord.
type Order struct {
	Symbol   string
	Side     OrderSide
	Quantity int
	Price    decimal.Decimal
}

// OrderRecord is the vendor's confirmed order representation, fetched
// after submission.
type OrderRecord struct {
	OrderDate string          `json:"Wtrq"`
	OrderTime string          `json:"Wtsj"`
	Symbol    string          `json:"Zqdm"`
	Name      string          `json:"Zqmc"`
	SideName  string          `json:"Mmsm"`
	Quantity  FlexibleDecimal `json:"Wtsl"`
	Price     FlexibleDecimal `json:"Wtjg"`
	FilledQty FlexibleDecimal `json:"Cjsl"`
	Status    string          `json:"Wtzt"`
	Sequence  json.Number     `json:"Wtbh"`
}

// Identifier returns the composite order identifier for this record,
// usable in cancel calls.
func (r *OrderRecord) Identifier() string {
	return r.OrderDate + "_" + r.Sequence.String()
}

// FormatOrderID synthesizes the composite order identifier the vendor
// expects for cancellation: trade date (YYYYMMDD) joined to the
// vendor-echoed sequence number with an underscore. The vendor issues
// no single opaque order id at submission time.
func FormatOrderID(tradeDate time.Time, sequence string) string {
	return tradeDate.Format("20060102") + "_" + sequence
}

// apiResponse is the vendor's standard JSON envelope.
type apiResponse struct {
	Status  int             `json:"Status"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

// submitConfirmation is one confirmed leg of an accepted submission.
type submitConfirmation struct {
	Sequence json.Number `json:"Wtbh"`
}

// assetEntry is one element of the asset/position query's Data array:
// an account overview with its nested positions.
type assetEntry struct {
	AccountOverview
	Positions []Position `json:"positions"`
}

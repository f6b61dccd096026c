package eastmoney

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFlexibleDecimal_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"quoted number", `"123.45"`, "123.45"},
		{"plain number", `123.45`, "123.45"},
		{"integer string", `"200"`, "200"},
		{"negative", `"-0.5"`, "-0.5"},
		{"empty string", `""`, "0"},
		{"null", `null`, "0"},
		{"dash placeholder", `"-"`, "0"},
		{"garbage", `"abc"`, "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d FlexibleDecimal
			if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tc.in, err)
			}
			if !d.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("Unmarshal(%s) = %s, want %s", tc.in, d, tc.want)
			}
		})
	}
}

func TestFlexibleDecimal_DoesNotAbortStruct(t *testing.T) {
	// A broken field must not poison its siblings.
	var pos Position
	err := json.Unmarshal([]byte(`{"Zqdm":"600519","Zqsl":"oops","Cbjg":"1500.5"}`), &pos)
	if err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if pos.Symbol != "600519" {
		t.Errorf("Symbol = %q", pos.Symbol)
	}
	if !pos.Quantity.IsZero() {
		t.Errorf("Quantity = %s, want 0", pos.Quantity)
	}
	if !pos.CostPrice.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("CostPrice = %s, want 1500.5", pos.CostPrice)
	}
}

func TestFormatOrderID(t *testing.T) {
	date := time.Date(2024, 5, 20, 14, 30, 0, 0, time.Local)
	if got := FormatOrderID(date, "130662"); got != "20240520_130662" {
		t.Errorf("FormatOrderID() = %q, want 20240520_130662", got)
	}
}

func TestSession_Clear(t *testing.T) {
	s := Session{Nonce: 0.5, CaptchaText: "abcd", ValidateKey: "key"}
	s.Clear()
	if s.Nonce != 0 || s.CaptchaText != "" || s.ValidateKey != "" {
		t.Errorf("Clear() left state behind: %+v", s)
	}
}

func TestPortfolio(t *testing.T) {
	p := &Portfolio{}
	if p.Len() != 0 {
		t.Errorf("empty portfolio Len() = %d", p.Len())
	}

	mv := func(s string) FlexibleDecimal {
		return FlexibleDecimal{Decimal: decimal.RequireFromString(s)}
	}
	p.Add(Position{Symbol: "600519", MarketValue: mv("168899")})
	p.Add(Position{Symbol: "000001", MarketValue: mv("2100.50")})

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	// Insertion order is preserved.
	if p.Positions()[0].Symbol != "600519" || p.Positions()[1].Symbol != "000001" {
		t.Error("positions not in insertion order")
	}
	if !p.TotalMarketValue().Equal(decimal.RequireFromString("170999.50")) {
		t.Errorf("TotalMarketValue() = %s, want 170999.50", p.TotalMarketValue())
	}
}

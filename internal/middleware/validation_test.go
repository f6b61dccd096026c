package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestValidateSymbol(t *testing.T) {
	testCases := []struct {
		symbol string
		valid  bool
	}{
		{"600519", true},
		{"000001", true},
		{"83003", true},
		{"AAPL", true},
		{"brk", true},
		{"", false},
		{"6005190", false},
		{"600 519", false},
		{"600519;", false},
	}

	for _, tc := range testCases {
		if got := ValidateSymbol(tc.symbol); got != tc.valid {
			t.Errorf("ValidateSymbol(%q) = %v, want %v", tc.symbol, got, tc.valid)
		}
	}
}

func TestValidateSide(t *testing.T) {
	for _, side := range []string{"B", "S"} {
		if !ValidateSide(side) {
			t.Errorf("ValidateSide(%q) = false, want true", side)
		}
	}
	for _, side := range []string{"", "b", "buy", "X"} {
		if ValidateSide(side) {
			t.Errorf("ValidateSide(%q) = true, want false", side)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	testCases := []struct {
		price string
		valid bool
	}{
		{"10", true},
		{"10.50", true},
		{"1688.000", true},
		{"0.01", true},
		{"0", false},
		{"0.00", false},
		{"", false},
		{"-5", false},
		{"10.1234", false},
		{"ten", false},
	}

	for _, tc := range testCases {
		if got := ValidatePrice(tc.price); got != tc.valid {
			t.Errorf("ValidatePrice(%q) = %v, want %v", tc.price, got, tc.valid)
		}
	}
}

func TestValidateQuantity(t *testing.T) {
	if !ValidateQuantity(100) {
		t.Error("ValidateQuantity(100) = false, want true")
	}
	if ValidateQuantity(0) || ValidateQuantity(-100) {
		t.Error("non-positive quantities should be invalid")
	}
}

func TestValidateOrderID(t *testing.T) {
	testCases := []struct {
		id    string
		valid bool
	}{
		{"20240520_130662", true},
		{"20240520_1", true},
		{"130662", false},
		{"20240520_", false},
		{"2024-05-20_130662", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := ValidateOrderID(tc.id); got != tc.valid {
			t.Errorf("ValidateOrderID(%q) = %v, want %v", tc.id, got, tc.valid)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() {
		t.Error("empty ValidationErrors should have no errors")
	}

	errs.Add("symbol", "is required")
	errs.Add("price", "must be positive")

	if !errs.HasErrors() {
		t.Error("HasErrors() = false after Add")
	}
	if errs.Error() != "symbol: is required; price: must be positive" {
		t.Errorf("Error() = %q", errs.Error())
	}

	rec := httptest.NewRecorder()
	errs.WriteJSON(rec)
	if rec.Code != 400 {
		t.Errorf("WriteJSON status = %d, want 400", rec.Code)
	}
	var decoded ValidationErrors
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(decoded.Errors) != 2 {
		t.Errorf("decoded %d errors, want 2", len(decoded.Errors))
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("  600519\x00\x07  ")
	if got != "600519" {
		t.Errorf("SanitizeString() = %q, want %q", got, "600519")
	}
}

// Package middleware provides HTTP middleware for the trading service.
package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	var msgs []string
	for _, e := range v.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors.
func (v ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// WriteJSON writes the validation errors as JSON response.
func (v ValidationErrors) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(v)
}

// Common validation patterns.
var (
	// Mainland A-share and Beijing codes are digits; Hong Kong symbols
	// up to five digits; US symbols letters.
	symbolRegex  = regexp.MustCompile(`^[A-Za-z0-9]{1,6}$`)
	priceRegex   = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,3})?$`)
	orderIDRegex = regexp.MustCompile(`^[0-9]{8}_[0-9]+$`)
)

// ValidateSymbol validates a security symbol.
func ValidateSymbol(symbol string) bool {
	return symbolRegex.MatchString(symbol)
}

// ValidateSide validates an order side ("B" or "S").
func ValidateSide(side string) bool {
	return side == "B" || side == "S"
}

// ValidatePrice validates an order price string. Zero prices are
// rejected; the gateway only accepts limit orders.
func ValidatePrice(price string) bool {
	if !priceRegex.MatchString(price) {
		return false
	}
	return strings.Trim(price, "0.") != ""
}

// ValidateQuantity validates an order quantity.
func ValidateQuantity(quantity int) bool {
	return quantity > 0
}

// ValidateOrderID validates a synthesized order identifier
// (trade date + sequence number).
func ValidateOrderID(id string) bool {
	return orderIDRegex.MatchString(id)
}

// ValidateRequired checks if a string is non-empty.
func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// SanitizeString trims whitespace and removes control characters.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return s
}

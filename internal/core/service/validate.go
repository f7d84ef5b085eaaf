package service

import (
	"regexp"

	"github.com/dmoraru/floraria/internal/core/domain"
)

var (
	phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

type ValidationResult struct {
	Valid   bool
	Message string
}

// ValidateOrder checks a candidate order's contact fields before
// submission. Rules run in a fixed sequence and the first failure
// wins. Pure: no storage or network access.
func ValidateOrder(order domain.Order) ValidationResult {
	if !phoneRe.MatchString(order.ClientPhone) {
		return ValidationResult{Message: "invalid phone number"}
	}
	if len(order.ClientAddress) < 8 {
		return ValidationResult{Message: "address is too short"}
	}
	if len(order.ClientName) < 2 {
		return ValidationResult{Message: "name is too short"}
	}
	if !emailRe.MatchString(order.ClientEmail) {
		return ValidationResult{Message: "invalid email address"}
	}
	if len(order.Products) == 0 {
		return ValidationResult{Message: "order has no products"}
	}
	if len(order.Info) > domain.MaxOrderInfoLen {
		return ValidationResult{Message: "delivery notes are too long"}
	}
	return ValidationResult{Valid: true}
}

package validation

import (
	"strings"

	"github.com/cryptoinsight/backend/internal/api/request"
)

func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	// Required field
	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	} else if len(req.Name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func ValidateUpdatePortfolio(req request.UpdatePortfolioRequest) error {
	errors := make(map[string]string)

	// Only validate provided fields
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			errors["name"] = "name cannot be empty"
		} else if len(*req.Name) > 100 {
			errors["name"] = "name must be 100 characters or less"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateRebalance validates the target allocation map. Percentages must be
// non-negative and sum to 100 within a small tolerance.
func ValidateRebalance(req request.RebalanceRequest) error {
	errors := make(map[string]string)

	if len(req.TargetAllocation) == 0 {
		errors["targetAllocation"] = "targetAllocation is required"
	}

	total := 0.0
	for coinID, pct := range req.TargetAllocation {
		if pct < 0 {
			errors["targetAllocation"] = "percentage for " + coinID + " must not be negative"
		}
		total += pct
	}
	if len(req.TargetAllocation) > 0 && (total < 99.99 || total > 100.01) {
		errors["targetAllocation"] = "percentages must sum to 100"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

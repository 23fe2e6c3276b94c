package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Validation bounds. Percentage uses the canonical [0.01, 100] range.
const (
	MinTransactionCents = int64(1)
	MaxTransactionCents = int64(99_999_999) // 999999.99
	MaxConceptLength    = 255
	MaxGroupNameLength  = 100
	MinPercentage       = 0.01
	MaxPercentage       = 100.0
	MaxFullNameLength   = 100
	MinPasswordLength   = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps a field name to a human-readable message. An absent key
// means the field is valid.
type FieldErrors map[string]string

// HasErrors reports whether any field carries a non-empty message.
func (e FieldErrors) HasErrors() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

// ValidateTransaction checks a transaction's user-supplied fields and
// returns a field-keyed error map. Inputs are not mutated.
func ValidateTransaction(tx Transaction) FieldErrors {
	errs := FieldErrors{}

	if tx.Amount.Cents == 0 {
		errs["amount"] = "amount is required"
	} else if tx.Amount.Cents < MinTransactionCents {
		errs["amount"] = "amount must be at least 0.01"
	} else if tx.Amount.Cents > MaxTransactionCents {
		errs["amount"] = "amount must not exceed 999999.99"
	}

	concept := strings.TrimSpace(tx.Concept)
	if concept == "" {
		errs["concept"] = "concept is required"
	} else if len(concept) > MaxConceptLength {
		errs["concept"] = "concept must be at most " + strconv.Itoa(MaxConceptLength) + " characters"
	}

	if tx.Type == "" {
		errs["type"] = "type is required"
	} else if !tx.Type.Valid() {
		errs["type"] = "type must be income or expense"
	}

	return errs
}

// ValidateGroup checks a group's user-supplied fields.
func ValidateGroup(g Group) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(g.Name)
	if name == "" {
		errs["name"] = "name is required"
	} else if len(name) > MaxGroupNameLength {
		errs["name"] = "name must be at most " + strconv.Itoa(MaxGroupNameLength) + " characters"
	}

	if g.Percentage == 0 {
		errs["percentage"] = "percentage is required"
	} else if g.Percentage < MinPercentage || g.Percentage > MaxPercentage {
		errs["percentage"] = "percentage must be between 0.01 and 100"
	}

	return errs
}

// ValidateProfile checks profile update input.
func ValidateProfile(fullName, email string) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(fullName)
	if name == "" {
		errs["full_name"] = "name is required"
	} else if len(name) > MaxFullNameLength {
		errs["full_name"] = "name must be at most " + strconv.Itoa(MaxFullNameLength) + " characters"
	}

	if strings.TrimSpace(email) == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "invalid email format"
	}

	return errs
}

// ValidateCredentials checks sign-up / sign-in input.
func ValidateCredentials(email, password string) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(email) == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "invalid email format"
	}

	if strings.TrimSpace(password) == "" {
		errs["password"] = "password is required"
	} else if len(password) < MinPasswordLength {
		errs["password"] = "password must be at least " + strconv.Itoa(MinPasswordLength) + " characters"
	}

	return errs
}

// Package classifier validates counter transaction requests and turns them into
// domain transactions.
//
// Validation is an ordered rule list. Rules run in a fixed order and the first
// failing rule decides the reported reason: field presence, then value checks,
// then the type-specific sub-type, then the amount range. Each rule is a
// validator tag check on the trimmed field.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chris/teller-queue/pkg/models"
	"github.com/go-playground/validator/v10"
)

// MaxAmount is the largest amount the storage column can hold.
const MaxAmount = math.MaxInt32

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		return isInteger(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("classifier: failed to register 'integer': %v", err))
	}
	return v
}

// check reports whether v satisfies the validator tag.
func check(v any, tag string) bool {
	return validate.Var(v, tag) == nil
}

var (
	transactionTypeTag = "oneof=" + joinTypes(models.AllTransactionTypes)
	accountTypeTag     = "oneof=" + string(models.Savings) + " " + string(models.Checking)
	accountNumberTag   = "gt=0,lte=" + strconv.Itoa(math.MaxInt32)
	amountRangeTag     = "lte=" + strconv.Itoa(MaxAmount)
)

func joinTypes(types []models.TransactionType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, " ")
}

// Reason is the operator-facing text of a validation failure.
type Reason string

const (
	ReasonMissingFields       Reason = "Missing required fields"
	ReasonInvalidType         Reason = "Invalid transaction type"
	ReasonInvalidAccountType  Reason = "Account type must be Savings or Checking"
	ReasonNumericName         Reason = "Name must not be a number"
	ReasonAccountNumber       Reason = "Account number must be a positive integer"
	ReasonMissingDepositType  Reason = "Deposit type is required for deposit transactions"
	ReasonMissingPaymentType  Reason = "Payment type is required for payment transactions"
	ReasonMissingDisbursement Reason = "Disbursement type is required for disbursement transactions"
	ReasonAmountNotNumber     Reason = "Amount must be a valid number"
	ReasonAmountNotPositive   Reason = "Amount must be greater than 0"
	ReasonAmountOutOfRange    Reason = "Amount must not exceed 2147483647"
)

// ValidationFailure carries the first rule a request failed.
type ValidationFailure struct {
	Reason Reason
}

func (v *ValidationFailure) Error() string {
	return string(v.Reason)
}

// AsValidationFailure extracts a ValidationFailure from err.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}

// Fields is a raw creation request as typed by the computer operator.
type Fields struct {
	AccountNumber    string
	Name             string
	TransactionType  string
	Amount           string
	AccountType      string
	DepositType      string
	PaymentType      string
	DisbursementType string
}

// Rule is one entry of the ordered rule list.
type Rule struct {
	Reason Reason
	Passes func(f Fields) bool
}

// Rules returns the creation rule list in evaluation order.
func Rules() []Rule {
	rules := []Rule{{ReasonMissingFields, hasRequiredFields}}
	rules = append(rules, valueRules()...)
	return append(rules, amountRules()...)
}

// DetailRules returns the rules for a details correction. Amount is not
// correctable, so its rules are left out.
func DetailRules() []Rule {
	rules := []Rule{{ReasonMissingFields, hasRequiredDetails}}
	return append(rules, valueRules()...)
}

func valueRules() []Rule {
	return []Rule{
		{ReasonInvalidType, func(f Fields) bool {
			return check(strings.TrimSpace(f.TransactionType), transactionTypeTag)
		}},
		{ReasonInvalidAccountType, func(f Fields) bool {
			return check(strings.TrimSpace(f.AccountType), accountTypeTag)
		}},
		{ReasonNumericName, func(f Fields) bool { return !check(strings.TrimSpace(f.Name), "integer") }},
		{ReasonAccountNumber, func(f Fields) bool {
			_, ok := parseAccountNumber(f.AccountNumber)
			return ok
		}},
		{ReasonMissingDepositType, subTypeRule(models.DepositSubType, func(f Fields) string { return f.DepositType })},
		{ReasonMissingPaymentType, subTypeRule(models.PaymentSubType, func(f Fields) string { return f.PaymentType })},
		{ReasonMissingDisbursement, subTypeRule(models.DisbursementSubType, func(f Fields) string { return f.DisbursementType })},
	}
}

func amountRules() []Rule {
	return []Rule{
		{ReasonAmountNotNumber, func(f Fields) bool {
			return check(strings.TrimSpace(f.Amount), "integer")
		}},
		{ReasonAmountNotPositive, func(f Fields) bool {
			n, err := strconv.ParseInt(strings.TrimSpace(f.Amount), 10, 64)
			if errors.Is(err, strconv.ErrRange) {
				return !strings.HasPrefix(strings.TrimSpace(f.Amount), "-")
			}
			return check(n, "gt=0")
		}},
		{ReasonAmountOutOfRange, func(f Fields) bool {
			n, err := strconv.ParseInt(strings.TrimSpace(f.Amount), 10, 64)
			return err == nil && check(n, amountRangeTag)
		}},
	}
}

// Validate runs the creation rules and reports the first failure, or nil.
func Validate(f Fields) *ValidationFailure {
	return firstFailure(Rules(), f)
}

func firstFailure(rules []Rule, f Fields) *ValidationFailure {
	for _, rule := range rules {
		if !rule.Passes(f) {
			return &ValidationFailure{Reason: rule.Reason}
		}
	}
	return nil
}

// Classify validates f and builds an Open transaction to persist. Sub-type fields
// that the primary type does not use are dropped. The account number is kept as
// typed, leading zeros included. ID and creation time are assigned by the store.
func Classify(f Fields) (*models.Transaction, error) {
	if vf := Validate(f); vf != nil {
		return nil, vf
	}

	txType, _ := models.ParseTransactionType(strings.TrimSpace(f.TransactionType))
	accountType, _ := models.ParseAccountType(strings.TrimSpace(f.AccountType))
	amount, _ := strconv.ParseInt(strings.TrimSpace(f.Amount), 10, 32)

	tx := &models.Transaction{
		AccountNumber:   strings.TrimSpace(f.AccountNumber),
		Name:            strings.TrimSpace(f.Name),
		TransactionType: txType,
		Amount:          int32(amount),
		AccountType:     accountType,
		DeleteStatus:    models.Live,
		Status:          models.StatusOpen,
	}
	tx.DepositType, tx.PaymentType, tx.DisbursementType = subTypes(txType, f)
	return tx, nil
}

// ClassifyDetails validates a correction of an existing transaction and builds
// the replacement details.
func ClassifyDetails(f Fields) (*models.Details, error) {
	if vf := firstFailure(DetailRules(), f); vf != nil {
		return nil, vf
	}

	txType, _ := models.ParseTransactionType(strings.TrimSpace(f.TransactionType))
	accountType, _ := models.ParseAccountType(strings.TrimSpace(f.AccountType))

	d := &models.Details{
		AccountNumber:   strings.TrimSpace(f.AccountNumber),
		Name:            strings.TrimSpace(f.Name),
		TransactionType: txType,
		AccountType:     accountType,
	}
	d.DepositType, d.PaymentType, d.DisbursementType = subTypes(txType, f)
	return d, nil
}

// subTypes keeps only the sub-type field that t demands.
func subTypes(t models.TransactionType, f Fields) (deposit, payment, disbursement *string) {
	switch t.SubType() {
	case models.DepositSubType:
		deposit = trimmed(f.DepositType)
	case models.PaymentSubType:
		payment = trimmed(f.PaymentType)
	case models.DisbursementSubType:
		disbursement = trimmed(f.DisbursementType)
	case models.NoSubType:
	}
	return deposit, payment, disbursement
}

func hasRequiredFields(f Fields) bool {
	return allPresent(f.AccountNumber, f.Name, f.TransactionType, f.Amount, f.AccountType)
}

func hasRequiredDetails(f Fields) bool {
	return allPresent(f.AccountNumber, f.Name, f.TransactionType, f.AccountType)
}

func allPresent(values ...string) bool {
	for _, v := range values {
		if !check(strings.TrimSpace(v), "required") {
			return false
		}
	}
	return true
}

func subTypeRule(kind models.SubTypeKind, field func(Fields) string) func(Fields) bool {
	return func(f Fields) bool {
		t, err := models.ParseTransactionType(strings.TrimSpace(f.TransactionType))
		if err != nil || t.SubType() != kind {
			return true
		}
		return check(strings.TrimSpace(field(f)), "required")
	}
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

// parseAccountNumber accepts digits only, with a value in (0, MaxInt32].
func parseAccountNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !check(s, "number") {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || !check(n, accountNumberTag) {
		return 0, false
	}
	return n, true
}

func trimmed(s string) *string {
	v := strings.TrimSpace(s)
	return &v
}

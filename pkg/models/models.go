package models

import (
	"errors"
	"fmt"
	"time"
)

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	StatusOpen       TransactionStatus = "Open"
	StatusInProgress TransactionStatus = "In Progress"
	StatusClosed     TransactionStatus = "Closed"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the enumeration.
var ErrUnknownStatus = errors.New("unknown transaction status")

// ParseStatus converts a raw value into a TransactionStatus. Matching is exact.
func ParseStatus(s string) (TransactionStatus, error) {
	switch TransactionStatus(s) {
	case StatusOpen, StatusInProgress, StatusClosed:
		return TransactionStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Normalize maps a status that was never set to Open.
func (s TransactionStatus) Normalize() TransactionStatus {
	if s == "" {
		return StatusOpen
	}
	return s
}

// TransactionType is the primary category of a transaction.
type TransactionType string

const (
	Withdrawal     TransactionType = "Withdrawal"
	Deposit        TransactionType = "Deposit"
	Payment        TransactionType = "Payment"
	Disbursement   TransactionType = "Disbursement"
	Collection     TransactionType = "Collection"
	AccountClose   TransactionType = "AccountClose"
	Voucher        TransactionType = "Voucher"
	Dismember      TransactionType = "Dismember"
	LoanRelease    TransactionType = "LoanRelease"
	ATMCashDeposit TransactionType = "ATMCashDeposit"
)

// AllTransactionTypes lists every valid primary type.
var AllTransactionTypes = []TransactionType{
	Withdrawal, Deposit, Payment, Disbursement, Collection,
	AccountClose, Voucher, Dismember, LoanRelease, ATMCashDeposit,
}

// ErrUnknownTransactionType is returned by ParseTransactionType for unknown values.
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// ParseTransactionType converts a raw value into a TransactionType. Matching is
// case-sensitive.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range AllTransactionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
}

// SubTypeKind identifies which sub-type field a primary type demands.
type SubTypeKind int

const (
	NoSubType SubTypeKind = iota
	DepositSubType
	PaymentSubType
	DisbursementSubType
)

// SubType reports the sub-type field required by t.
func (t TransactionType) SubType() SubTypeKind {
	switch t {
	case Deposit:
		return DepositSubType
	case Payment:
		return PaymentSubType
	case Disbursement:
		return DisbursementSubType
	case Withdrawal, Collection, AccountClose, Voucher, Dismember, LoanRelease, ATMCashDeposit:
		return NoSubType
	}
	panic(fmt.Sprintf("models: unhandled transaction type %q", string(t)))
}

// AccountType is the account category of the holder.
type AccountType string

const (
	Savings  AccountType = "Savings"
	Checking AccountType = "Checking"
)

// ParseAccountType converts a raw value into an AccountType.
func ParseAccountType(s string) (AccountType, bool) {
	switch AccountType(s) {
	case Savings, Checking:
		return AccountType(s), true
	}
	return "", false
}

const (
	// Live marks a row that has not been soft-deleted.
	Live = 0
	// Deleted marks a soft-deleted row. Rows never go back to Live.
	Deleted = 1
)

// Transaction represents the internal domain model for a counter transaction.
// It includes dynamodbav tags for marshalling.
type Transaction struct {
	ID               int64             `json:"ID" dynamodbav:"id"`
	AccountNumber    string            `json:"AccountNumber" dynamodbav:"account_number"`
	Name             string            `json:"Name" dynamodbav:"name"`
	TransactionType  TransactionType   `json:"TransactionType" dynamodbav:"transaction_type"`
	DeleteStatus     int               `json:"DeleteStatus" dynamodbav:"delete_status"`
	Amount           int32             `json:"Amount" dynamodbav:"amount"`
	AccountType      AccountType       `json:"AccountType" dynamodbav:"account_type"`
	DepositType      *string           `json:"DepositType,omitempty" dynamodbav:"deposit_type,omitempty"`
	PaymentType      *string           `json:"PaymentType,omitempty" dynamodbav:"payment_type,omitempty"`
	DisbursementType *string           `json:"DisbursementType,omitempty" dynamodbav:"disbursement_type,omitempty"`
	Status           TransactionStatus `json:"Status" dynamodbav:"status,omitempty"`
	Created          time.Time         `json:"created" dynamodbav:"created"`
}

// Details holds the fields a computer operator may correct before a transaction
// is picked up by a teller.
type Details struct {
	AccountNumber    string
	Name             string
	TransactionType  TransactionType
	AccountType      AccountType
	DepositType      *string
	PaymentType      *string
	DisbursementType *string
}

// Role is the authorization role carried by a principal.
type Role string

const (
	RoleTeller           Role = "teller"
	RoleComputerOperator Role = "computer_operator"
	RoleAdmin            Role = "admin"
)

// Principal is the verified identity attached to a request.
type Principal struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Station   int       `json:"tellerNumber"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// User represents a station or administrator account.
type User struct {
	ID           int64  `json:"ID" dynamodbav:"id"`
	Name         string `json:"Name" dynamodbav:"name"`
	LastName     string `json:"LastName" dynamodbav:"last_name"`
	Username     string `json:"Username" dynamodbav:"username"`
	PasswordHash string `json:"-" dynamodbav:"password"`
	TellerNumber int    `json:"TellerNumber" dynamodbav:"teller_number"`
}

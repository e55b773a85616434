package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// flexString accepts a JSON string or number. Operators' forms send account
// numbers and amounts either way. Numbers keep their literal text so that
// validation sees exactly what was typed.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// transactionBody is the creation and correction payload.
type transactionBody struct {
	AccountNumber    flexString `json:"AccountNumber"`
	Name             flexString `json:"Name"`
	TransactionType  flexString `json:"TransactionType"`
	Amount           flexString `json:"Amount"`
	AccountType      flexString `json:"AccountType"`
	DepositType      flexString `json:"DepositType"`
	PaymentType      flexString `json:"PaymentType"`
	DisbursementType flexString `json:"DisbursementType"`
}

type credentialsBody struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type statusBody struct {
	Status string `json:"Status"`
}

type userBody struct {
	Name         string     `json:"Name"`
	LastName     string     `json:"LastName"`
	Username     string     `json:"Username"`
	Password     string     `json:"Password"`
	TellerNumber flexString `json:"TellerNumber"`
}

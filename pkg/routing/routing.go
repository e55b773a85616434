// Package routing holds the static table that decides which teller queues a
// transaction type is visible in.
package routing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chris/teller-queue/pkg/models"
)

// OperatorStation is the station number of the computer operator window.
const OperatorStation = 5

// ErrUnknownQueue is returned by Lookup for names that are not in the table.
var ErrUnknownQueue = errors.New("unknown queue")

// Queue is a named view over transactions, owned by one station.
type Queue struct {
	Name    string                   `json:"name"`
	Slug    string                   `json:"slug"`
	Station int                      `json:"station"`
	Types   []models.TransactionType `json:"types"`
}

// Contains reports whether t is routed to q.
func (q Queue) Contains(t models.TransactionType) bool {
	return slices.Contains(q.Types, t)
}

var table = []Queue{
	{Name: "Teller-1", Slug: "teller-1", Station: 1, Types: []models.TransactionType{
		models.Withdrawal,
	}},
	{Name: "Teller-2", Slug: "teller-2", Station: 2, Types: []models.TransactionType{
		models.Collection, models.AccountClose, models.Voucher, models.Dismember, models.LoanRelease,
	}},
	{Name: "Teller-3", Slug: "teller-3", Station: 3, Types: []models.TransactionType{
		models.Payment, models.Deposit, models.Disbursement,
	}},
	{Name: "Teller-4", Slug: "teller-4", Station: 4, Types: []models.TransactionType{
		models.Voucher, models.ATMCashDeposit, models.Deposit,
	}},
	{Name: "My Queue", Slug: "my-queue", Station: OperatorStation, Types: []models.TransactionType{
		models.Voucher,
	}},
}

// Queues returns a copy of the routing table.
func Queues() []Queue {
	out := make([]Queue, len(table))
	for i, q := range table {
		q.Types = slices.Clone(q.Types)
		out[i] = q
	}
	return out
}

// QueuesFor returns the names of every queue that t is visible in.
func QueuesFor(t models.TransactionType) []string {
	var names []string
	for _, q := range table {
		if q.Contains(t) {
			names = append(names, q.Name)
		}
	}
	return names
}

// MembersOf returns the membership predicate of the named queue.
func MembersOf(name string) (func(models.TransactionType) bool, error) {
	q, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return q.Contains, nil
}

// Lookup finds a queue by display name or URL slug. Matching is case-insensitive.
func Lookup(name string) (Queue, error) {
	key := strings.TrimSpace(name)
	for _, q := range table {
		if strings.EqualFold(q.Name, key) || strings.EqualFold(q.Slug, key) {
			q.Types = slices.Clone(q.Types)
			return q, nil
		}
	}
	return Queue{}, fmt.Errorf("%w: %q", ErrUnknownQueue, name)
}

// ForStation returns the queue owned by a station. Stations without a queue,
// including the unassigned station 0, return false.
func ForStation(station int) (Queue, bool) {
	for _, q := range table {
		if q.Station == station {
			q.Types = slices.Clone(q.Types)
			return q, true
		}
	}
	return Queue{}, false
}

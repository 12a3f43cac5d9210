package banking

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrKimHH/kledex-go/dispatch"
)

const (
	// AccountAggregateType is the aggregate type every account command and event belongs to.
	AccountAggregateType = "Account"

	AccountOpenedEventType   = "AccountOpened"
	MoneyDepositedEventType  = "MoneyDeposited"
	DepositRecordedEventType = "DepositRecorded"
)

// AccountOpened is the fact that an account was opened for a holder.
type AccountOpened struct {
	dispatch.DomainEventBase

	AccountID  string    `json:"accountId"`
	Holder     string    `json:"holder"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BuildAccountOpened creates an AccountOpened event.
func BuildAccountOpened(accountID uuid.UUID, holder string, occurredAt time.Time) *AccountOpened {
	return &AccountOpened{
		AccountID:  accountID.String(),
		Holder:     holder,
		OccurredAt: occurredAt.UTC(),
	}
}

func (e *AccountOpened) EventType() dispatch.EventTypeString {
	return AccountOpenedEventType
}

// HasOccurredAt returns when the account was opened.
func (e *AccountOpened) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// MoneyDeposited is the fact that money was deposited into an account.
// It is the persisted form; subscribers receive the DepositRecorded
// notification it materializes into.
type MoneyDeposited struct {
	dispatch.DomainEventBase

	AccountID  string    `json:"accountId"`
	Amount     int64     `json:"amount"`
	Balance    int64     `json:"balance"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BuildMoneyDeposited creates a MoneyDeposited event.
func BuildMoneyDeposited(accountID uuid.UUID, amount int64, balance int64, occurredAt time.Time) *MoneyDeposited {
	return &MoneyDeposited{
		AccountID:  accountID.String(),
		Amount:     amount,
		Balance:    balance,
		OccurredAt: occurredAt.UTC(),
	}
}

func (e *MoneyDeposited) EventType() dispatch.EventTypeString {
	return MoneyDepositedEventType
}

// HasOccurredAt returns when the deposit happened.
func (e *MoneyDeposited) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// ToConcrete materializes the deposit into the notification subscribers expect.
func (e *MoneyDeposited) ToConcrete() dispatch.Event {
	return &DepositRecorded{
		AccountID:  e.AccountID,
		Amount:     e.Amount,
		OccurredAt: e.OccurredAt,
	}
}

// DepositRecorded is the published notification for a deposit. It carries no
// aggregate plumbing; external subscribers only see the account id and amount.
type DepositRecorded struct {
	AccountID  string    `json:"accountId"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (e *DepositRecorded) EventType() dispatch.EventTypeString {
	return DepositRecordedEventType
}

package banking

import (
	"github.com/google/uuid"

	"github.com/MrKimHH/kledex-go/dispatch"
)

const (
	OpenAccountCommandType      = "OpenAccount"
	DepositMoneyCommandType     = "DepositMoney"
	SendWelcomeEmailCommandType = "SendWelcomeEmail"
)

// OpenAccount represents the intent to open a new account for a holder.
type OpenAccount struct {
	dispatch.DomainCommandBase

	Holder string
}

// BuildOpenAccount creates an OpenAccount command targeting a new account.
func BuildOpenAccount(accountID uuid.UUID, holder string, options ...dispatch.CommandOption) *OpenAccount {
	return &OpenAccount{
		DomainCommandBase: dispatch.BuildDomainCommandBase(accountID, 0, options...),
		Holder:            holder,
	}
}

func (c *OpenAccount) CommandType() dispatch.CommandTypeString {
	return OpenAccountCommandType
}

func (c *OpenAccount) AggregateType() dispatch.AggregateTypeString {
	return AccountAggregateType
}

// DepositMoney represents the intent to deposit an amount into an account.
type DepositMoney struct {
	dispatch.DomainCommandBase

	Amount  int64
	Balance int64
}

// BuildDepositMoney creates a DepositMoney command against the account
// version the caller observed.
func BuildDepositMoney(
	accountID uuid.UUID,
	observedVersion dispatch.AggregateVersionUint,
	amount int64,
	balance int64,
	options ...dispatch.CommandOption,
) *DepositMoney {

	return &DepositMoney{
		DomainCommandBase: dispatch.BuildDomainCommandBase(accountID, observedVersion, options...),
		Amount:            amount,
		Balance:           balance,
	}
}

func (c *DepositMoney) CommandType() dispatch.CommandTypeString {
	return DepositMoneyCommandType
}

func (c *DepositMoney) AggregateType() dispatch.AggregateTypeString {
	return AccountAggregateType
}

// SendWelcomeEmail represents the intent to send the welcome email for a
// freshly opened account. It is a plain command: nothing is persisted, the
// handler returns a receipt as its result.
type SendWelcomeEmail struct {
	dispatch.CommandBase

	AccountID    string
	EmailAddress string
}

// BuildSendWelcomeEmail creates a SendWelcomeEmail command.
func BuildSendWelcomeEmail(accountID uuid.UUID, emailAddress string, options ...dispatch.CommandOption) *SendWelcomeEmail {
	return &SendWelcomeEmail{
		CommandBase:  dispatch.BuildCommandBase(options...),
		AccountID:    accountID.String(),
		EmailAddress: emailAddress,
	}
}

func (c *SendWelcomeEmail) CommandType() dispatch.CommandTypeString {
	return SendWelcomeEmailCommandType
}

// WelcomeEmailReceipt is the result of a SendWelcomeEmail dispatch.
type WelcomeEmailReceipt struct {
	MessageID string
}

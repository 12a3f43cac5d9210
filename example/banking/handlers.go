package banking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrKimHH/kledex-go/dispatch"
)

// HandleOpenAccount executes the OpenAccount command and produces the
// AccountOpened event. The account aggregate is created implicitly when the
// store appends its first event.
func HandleOpenAccount(_ context.Context, command *OpenAccount) (*dispatch.CommandResponse, error) {
	event := BuildAccountOpened(command.AggregateRootID(), command.Holder, time.Now())

	return dispatch.BuildCommandResponse(event), nil
}

// HandleDepositMoney executes the DepositMoney command. A zero amount is a
// no-op: the handler returns nil and nothing is persisted or published.
func HandleDepositMoney(_ context.Context, command *DepositMoney) (*dispatch.CommandResponse, error) {
	if command.Amount == 0 {
		return nil, nil
	}

	event := BuildMoneyDeposited(
		command.AggregateRootID(),
		command.Amount,
		command.Balance+command.Amount,
		time.Now(),
	)

	return dispatch.BuildCommandResponseWithResult(event.Balance, event), nil
}

// HandleSendWelcomeEmail executes the SendWelcomeEmail command and returns
// the receipt of the (here: pretend) mail delivery as its result.
func HandleSendWelcomeEmail(_ context.Context, command *SendWelcomeEmail) (*dispatch.CommandResponse, error) {
	receipt := WelcomeEmailReceipt{MessageID: uuid.New().String()}

	return dispatch.BuildCommandResponseWithResult(receipt), nil
}

// RegisterHandlers wires all banking command handlers into the registry.
func RegisterHandlers(registry *dispatch.HandlerRegistry) error {
	if err := registry.RegisterDomainHandler(OpenAccountCommandType, dispatch.TypedDomainHandler(HandleOpenAccount)); err != nil {
		return err
	}

	if err := registry.RegisterDomainHandler(DepositMoneyCommandType, dispatch.TypedDomainHandler(HandleDepositMoney)); err != nil {
		return err
	}

	if err := registry.RegisterHandler(SendWelcomeEmailCommandType, dispatch.TypedHandler(HandleSendWelcomeEmail)); err != nil {
		return err
	}

	return nil
}

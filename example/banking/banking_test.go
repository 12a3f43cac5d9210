package banking_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrKimHH/kledex-go/dispatch"
	"github.com/MrKimHH/kledex-go/dispatch/memoryengine"
	"github.com/MrKimHH/kledex-go/example/banking"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []dispatch.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event dispatch.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) published() []dispatch.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := make([]dispatch.Event, len(p.events))
	copy(events, p.events)

	return events
}

type bankingFixture struct {
	dispatcher *dispatch.Dispatcher
	store      *memoryengine.Store
	publisher  *recordingPublisher
}

func newBankingFixture(t *testing.T) *bankingFixture {
	t.Helper()

	registry := dispatch.NewHandlerRegistry()
	require.NoError(t, banking.RegisterHandlers(registry))

	store := memoryengine.NewStore()
	publisher := &recordingPublisher{}

	dispatcher, err := dispatch.NewDispatcher(
		registry,
		dispatch.WithDomainStore(store),
		dispatch.WithPublisher(publisher),
		dispatch.WithValidator(banking.Validator()),
		dispatch.WithValidationByDefault(true),
	)
	require.NoError(t, err)

	return &bankingFixture{dispatcher: dispatcher, store: store, publisher: publisher}
}

func Test_OpenAccount_PersistsAndPublishesAccountOpened(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()

	err := fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace"))

	require.NoError(t, err)

	history, currentVersion, err := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.AggregateVersionUint(1), currentVersion)
	require.Len(t, history, 1)

	opened, ok := history[0].(*banking.AccountOpened)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", opened.Holder)
	assert.True(t, opened.Stamped())
	assert.Equal(t, accountID, opened.AggregateRootID())

	published := fixture.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, banking.AccountOpenedEventType, published[0].EventType())
}

func Test_OpenAccount_EmptyHolderIsRejected(t *testing.T) {
	fixture := newBankingFixture(t)

	err := fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(uuid.New(), ""))

	var validationErr *dispatch.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, banking.OpenAccountCommandType, validationErr.CommandType)

	assert.Empty(t, fixture.publisher.published(), "a rejected command must not publish anything")
}

func Test_DepositMoney_ReturnsNewBalanceAndPublishesDepositRecorded(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))

	balance, err := dispatch.SendAndReturn[int64](
		context.Background(),
		fixture.dispatcher,
		banking.BuildDepositMoney(accountID, 1, 150_00, 0),
	)

	require.NoError(t, err)
	assert.Equal(t, int64(150_00), balance)

	history, currentVersion, err := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.AggregateVersionUint(2), currentVersion)

	deposited, ok := history[1].(*banking.MoneyDeposited)
	require.True(t, ok)
	assert.Equal(t, int64(150_00), deposited.Amount)

	published := fixture.publisher.published()
	require.Len(t, published, 2)
	recorded, ok := published[1].(*banking.DepositRecorded)
	require.True(t, ok, "subscribers must receive the materialized notification, not the persisted event")
	assert.Equal(t, accountID.String(), recorded.AccountID)
	assert.Equal(t, int64(150_00), recorded.Amount)
}

func Test_DepositMoney_StaleObservedVersionConflicts(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildDepositMoney(accountID, 1, 100_00, 0)))

	err := fixture.dispatcher.Send(context.Background(), banking.BuildDepositMoney(accountID, 1, 50_00, 0))

	assert.ErrorIs(t, err, dispatch.ErrConcurrencyConflict)

	_, currentVersion, loadErr := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, loadErr)
	assert.Equal(t, dispatch.AggregateVersionUint(2), currentVersion, "the losing deposit must not change the history")
}

func Test_DepositMoney_ZeroAmountIsANoOp(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))

	balance, err := dispatch.SendAndReturn[int64](
		context.Background(),
		fixture.dispatcher,
		banking.BuildDepositMoney(accountID, 1, 0, 0),
	)

	require.NoError(t, err)
	assert.Zero(t, balance)

	_, currentVersion, loadErr := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, loadErr)
	assert.Equal(t, dispatch.AggregateVersionUint(1), currentVersion)
	assert.Len(t, fixture.publisher.published(), 1, "a no-op deposit must not publish anything")
}

func Test_DepositMoney_NegativeAmountIsRejected(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))

	err := fixture.dispatcher.Send(context.Background(), banking.BuildDepositMoney(accountID, 1, -5, 0))

	var validationErr *dispatch.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Violations, 1)
	assert.Equal(t, "Amount", validationErr.Violations[0].Field)
}

func Test_DepositMoney_PublishingDisabledStillPersists(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))

	err := fixture.dispatcher.Send(
		context.Background(),
		banking.BuildDepositMoney(accountID, 1, 25_00, 0, dispatch.WithEventPublishing(false)),
	)

	require.NoError(t, err)

	_, currentVersion, loadErr := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, loadErr)
	assert.Equal(t, dispatch.AggregateVersionUint(2), currentVersion)
	assert.Len(t, fixture.publisher.published(), 1, "only the AccountOpened event may have been published")
}

func Test_SendWelcomeEmail_ReturnsReceiptWithoutPersisting(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()

	receipt, err := dispatch.SendAndReturn[banking.WelcomeEmailReceipt](
		context.Background(),
		fixture.dispatcher,
		banking.BuildSendWelcomeEmail(accountID, "ada@example.com"),
	)

	require.NoError(t, err)
	assert.NotEmpty(t, receipt.MessageID)

	_, currentVersion, loadErr := fixture.store.Load(context.Background(), banking.AccountAggregateType, accountID)
	require.NoError(t, loadErr)
	assert.Zero(t, currentVersion, "a plain command must never touch the domain store")
}

func Test_SendWelcomeEmail_EmptyAddressIsRejected(t *testing.T) {
	fixture := newBankingFixture(t)

	_, err := dispatch.SendAndReturn[banking.WelcomeEmailReceipt](
		context.Background(),
		fixture.dispatcher,
		banking.BuildSendWelcomeEmail(uuid.New(), ""),
	)

	var validationErr *dispatch.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func Test_DepositMoney_AsyncDispatch(t *testing.T) {
	fixture := newBankingFixture(t)
	accountID := uuid.New()
	require.NoError(t, fixture.dispatcher.Send(context.Background(), banking.BuildOpenAccount(accountID, "Ada Lovelace")))

	outcome := <-dispatch.SendAndReturnAsync[int64](
		context.Background(),
		fixture.dispatcher,
		banking.BuildDepositMoney(accountID, 1, 75_00, 0),
	)

	require.NoError(t, outcome.Err)
	assert.Equal(t, int64(75_00), outcome.Result)
}

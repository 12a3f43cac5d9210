package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const (
	testPlainCommandType  = "TestPlainCommand"
	testDomainCommandType = "TestDomainCommand"
	testAggregateType     = "TestAggregate"
)

type testPlainCommand struct {
	CommandBase

	Name string
}

func buildTestPlainCommand(name string, options ...CommandOption) *testPlainCommand {
	return &testPlainCommand{
		CommandBase: BuildCommandBase(options...),
		Name:        name,
	}
}

func (c *testPlainCommand) CommandType() CommandTypeString {
	return testPlainCommandType
}

type testDomainCommand struct {
	DomainCommandBase

	Payload string
}

func buildTestDomainCommand(aggregateRootID uuid.UUID, expectedVersion AggregateVersionUint, options ...CommandOption) *testDomainCommand {
	return &testDomainCommand{
		DomainCommandBase: BuildDomainCommandBase(aggregateRootID, expectedVersion, options...),
	}
}

func (c *testDomainCommand) CommandType() CommandTypeString {
	return testDomainCommandType
}

func (c *testDomainCommand) AggregateType() AggregateTypeString {
	return testAggregateType
}

type testDomainEvent struct {
	DomainEventBase

	Detail string
}

func (e *testDomainEvent) EventType() EventTypeString {
	return "TestDomainEvent"
}

type testPlainEvent struct {
	Detail string
}

func (e *testPlainEvent) EventType() EventTypeString {
	return "TestPlainEvent"
}

// testBaseFormEvent materializes into a testConcreteEvent.
type testBaseFormEvent struct {
	DomainEventBase

	Detail string
}

func (e *testBaseFormEvent) EventType() EventTypeString {
	return "TestBaseFormEvent"
}

func (e *testBaseFormEvent) ToConcrete() Event {
	return &testConcreteEvent{Detail: e.Detail}
}

type testConcreteEvent struct {
	Detail string
}

func (e *testConcreteEvent) EventType() EventTypeString {
	return "TestConcreteEvent"
}

// callRecorder keeps the order in which collaborators were invoked, so tests
// can assert the happens-before relations of the pipeline.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
}

func (r *callRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]string, len(r.calls))
	copy(calls, r.calls)

	return calls
}

type appendCall struct {
	aggregateType   AggregateTypeString
	aggregateRootID uuid.UUID
	command         DomainCommand
	events          []DomainEvent
}

type fakeStore struct {
	recorder *callRecorder
	calls    []appendCall
	failWith error
}

func (s *fakeStore) Append(
	_ context.Context,
	aggregateType AggregateTypeString,
	aggregateRootID uuid.UUID,
	command DomainCommand,
	events []DomainEvent,
) error {

	if s.recorder != nil {
		s.recorder.record("append")
	}

	s.calls = append(s.calls, appendCall{
		aggregateType:   aggregateType,
		aggregateRootID: aggregateRootID,
		command:         command,
		events:          events,
	})

	return s.failWith
}

type fakePublisher struct {
	recorder  *callRecorder
	published []Event
	failOn    map[EventTypeString]error
}

func (p *fakePublisher) Publish(_ context.Context, event Event) error {
	if p.recorder != nil {
		p.recorder.record("publish:" + event.EventType())
	}

	p.published = append(p.published, event)

	if err, found := p.failOn[event.EventType()]; found {
		return err
	}

	return nil
}

type fakeValidator struct {
	recorder *callRecorder
	failWith error
}

func (v *fakeValidator) Validate(_ context.Context, _ Command) error {
	if v.recorder != nil {
		v.recorder.record("validate")
	}

	return v.failWith
}

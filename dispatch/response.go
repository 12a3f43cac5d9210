package dispatch

// CommandResponse is the output of a command handler: an optional result
// payload and the ordered sequence of events the command produced.
//
// A nil *CommandResponse is a valid outcome and short-circuits the remainder
// of the pipeline: nothing is persisted, nothing is published.
//
// A CommandResponse never escapes the dispatch that created it except as the
// projected Result.
type CommandResponse struct {
	Result any
	Events Events
}

// BuildCommandResponse creates a CommandResponse with the given events and no result.
func BuildCommandResponse(events ...Event) *CommandResponse {
	return &CommandResponse{Events: events}
}

// BuildCommandResponseWithResult creates a CommandResponse with a result and the given events.
func BuildCommandResponseWithResult(result any, events ...Event) *CommandResponse {
	return &CommandResponse{Result: result, Events: events}
}

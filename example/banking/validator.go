package banking

import (
	"context"

	"github.com/MrKimHH/kledex-go/dispatch"
)

// rulesChecker is the capability of a banking command to check its own rules.
type rulesChecker interface {
	checkRules() []dispatch.Violation
}

func (c *OpenAccount) checkRules() []dispatch.Violation {
	var violations []dispatch.Violation

	if c.Holder == "" {
		violations = append(violations, dispatch.Violation{Field: "Holder", Message: "must not be empty"})
	}

	return violations
}

func (c *DepositMoney) checkRules() []dispatch.Violation {
	var violations []dispatch.Violation

	if c.Amount < 0 {
		violations = append(violations, dispatch.Violation{Field: "Amount", Message: "must not be negative"})
	}

	return violations
}

func (c *SendWelcomeEmail) checkRules() []dispatch.Violation {
	var violations []dispatch.Violation

	if c.EmailAddress == "" {
		violations = append(violations, dispatch.Violation{Field: "EmailAddress", Message: "must not be empty"})
	}

	return violations
}

// Validator checks banking commands against their own rules. Commands without
// rules pass.
func Validator() dispatch.Validator {
	return dispatch.ValidatorFunc(func(_ context.Context, command dispatch.Command) error {
		checker, ok := command.(rulesChecker)
		if !ok {
			return nil
		}

		if violations := checker.checkRules(); len(violations) > 0 {
			return dispatch.BuildValidationError(command.CommandType(), violations...)
		}

		return nil
	})
}

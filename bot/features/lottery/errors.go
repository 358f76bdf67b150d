package lottery

import (
	"errors"
	"fmt"

	"lbclottery/domain/entities"
)

// userMessage returns the user-facing text for a rejected ledger operation
func userMessage(err error) string {
	var limitErr *entities.MaxBuyLimitError

	switch {
	case errors.Is(err, entities.ErrUnauthorized):
		return "Only the lottery administrator can do that."
	case errors.Is(err, entities.ErrUnauthorizedAction):
		return "Lottery settings can only be changed after the round has ended."
	case errors.Is(err, entities.ErrLotteryNotLive):
		return "The current round has ended. Wait for the administrator to start the next one."
	case errors.Is(err, entities.ErrLotteryStillLive):
		return "The current round is still running."
	case errors.Is(err, entities.ErrContractPaused):
		return "The lottery is paused."
	case errors.Is(err, entities.ErrNotPaused):
		return "The lottery is not paused."
	case errors.As(err, &limitErr):
		return fmt.Sprintf("You can buy at most %d tickets at once.", limitErr.Limit)
	case errors.Is(err, entities.ErrAmountOverflow):
		return "That purchase is too large."
	case errors.Is(err, entities.ErrInsufficientAllowance):
		return "The lottery is not allowed to spend that much of your tokens. Use `/lottery approve` first."
	case errors.Is(err, entities.ErrInsufficientFunds):
		return "You don't have enough tokens."
	case errors.Is(err, entities.ErrNothingToWithdraw):
		return "There are no tokens to withdraw."
	case errors.Is(err, entities.ErrInvalidTokenAddress):
		return "That token address is not valid."
	case errors.Is(err, entities.ErrInvalidAmount):
		return "Amounts must be positive numbers."
	case errors.Is(err, entities.ErrLedgerNotFound):
		return "This server has no lottery yet."
	default:
		return "That action is not allowed right now."
	}
}

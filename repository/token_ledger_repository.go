package repository

import (
	"context"
	"fmt"

	"lbclottery/domain/entities"
	"lbclottery/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TokenLedgerRepository stores token balances and allowances for a guild
type TokenLedgerRepository struct {
	q       Queryable
	guildID int64
}

// NewTokenLedgerRepositoryScoped creates a new token ledger repository with guild scope
func NewTokenLedgerRepositoryScoped(tx Queryable, guildID int64) interfaces.TokenAccountRepository {
	return &TokenLedgerRepository{
		q:       tx,
		guildID: guildID,
	}
}

// BalanceOf returns account's balance, zero for unknown accounts
func (r *TokenLedgerRepository) BalanceOf(ctx context.Context, token entities.TokenAddress, account int64) (int64, error) {
	query := `
		SELECT balance
		FROM token_balances
		WHERE guild_id = $1 AND token_address = $2 AND account_id = $3
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, r.guildID, token.Normalize(), account).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for account %d: %w", account, err)
	}

	return balance, nil
}

// Allowance returns the amount spender may pull from owner
func (r *TokenLedgerRepository) Allowance(ctx context.Context, token entities.TokenAddress, owner, spender int64) (int64, error) {
	query := `
		SELECT amount
		FROM token_allowances
		WHERE guild_id = $1 AND token_address = $2 AND owner_id = $3 AND spender_id = $4
	`

	var amount int64
	err := r.q.QueryRow(ctx, query, r.guildID, token.Normalize(), owner, spender).Scan(&amount)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get allowance: %w", err)
	}

	return amount, nil
}

// Approve replaces the allowance owner granted to spender
func (r *TokenLedgerRepository) Approve(ctx context.Context, token entities.TokenAddress, owner, spender int64, amount int64) error {
	if amount < 0 {
		return &entities.InvalidAmountError{Value: amount}
	}

	query := `
		INSERT INTO token_allowances (guild_id, token_address, owner_id, spender_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, token_address, owner_id, spender_id)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, token.Normalize(), owner, spender, amount); err != nil {
		return fmt.Errorf("failed to approve allowance: %w", err)
	}

	return nil
}

// Mint credits amount to account
func (r *TokenLedgerRepository) Mint(ctx context.Context, token entities.TokenAddress, account int64, amount int64) error {
	if amount <= 0 {
		return &entities.InvalidAmountError{Value: amount}
	}
	return r.credit(ctx, token.Normalize(), account, amount)
}

// PullTransfer moves amount from `from` to `to`, spending the allowance from granted to.
// The allowance is checked before the balance.
func (r *TokenLedgerRepository) PullTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	if amount <= 0 {
		return &entities.InvalidAmountError{Value: amount}
	}
	token = token.Normalize()

	allowanceQuery := `
		SELECT amount
		FROM token_allowances
		WHERE guild_id = $1 AND token_address = $2 AND owner_id = $3 AND spender_id = $4
		FOR UPDATE
	`

	var allowance int64
	err := r.q.QueryRow(ctx, allowanceQuery, r.guildID, token, from, to).Scan(&allowance)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("failed to get allowance: %w", err)
	}
	if allowance < amount {
		return entities.ErrInsufficientAllowance
	}

	if err := r.debit(ctx, token, from, amount); err != nil {
		return err
	}

	spendQuery := `
		UPDATE token_allowances
		SET amount = amount - $5, updated_at = NOW()
		WHERE guild_id = $1 AND token_address = $2 AND owner_id = $3 AND spender_id = $4
	`
	if _, err := r.q.Exec(ctx, spendQuery, r.guildID, token, from, to, amount); err != nil {
		return fmt.Errorf("failed to spend allowance: %w", err)
	}

	return r.credit(ctx, token, to, amount)
}

// PushTransfer moves amount out of `from` to `to`
func (r *TokenLedgerRepository) PushTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	if amount <= 0 {
		return &entities.InvalidAmountError{Value: amount}
	}
	token = token.Normalize()

	if err := r.debit(ctx, token, from, amount); err != nil {
		return err
	}
	return r.credit(ctx, token, to, amount)
}

func (r *TokenLedgerRepository) debit(ctx context.Context, token entities.TokenAddress, account, amount int64) error {
	query := `
		UPDATE token_balances
		SET balance = balance - $4, updated_at = NOW()
		WHERE guild_id = $1 AND token_address = $2 AND account_id = $3 AND balance >= $4
	`

	result, err := r.q.Exec(ctx, query, r.guildID, token, account, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", account, err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrInsufficientFunds
	}

	return nil
}

func (r *TokenLedgerRepository) credit(ctx context.Context, token entities.TokenAddress, account, amount int64) error {
	query := `
		INSERT INTO token_balances (guild_id, token_address, account_id, balance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, token_address, account_id)
		DO UPDATE SET balance = token_balances.balance + EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, r.guildID, token, account, amount); err != nil {
		return fmt.Errorf("failed to credit account %d: %w", account, err)
	}

	return nil
}

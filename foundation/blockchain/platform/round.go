package platform

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
)

// OpenRound starts collecting scores for the current step. The attention
// totals are reset so scores of prior rounds are never reused.
func (p *Platform) OpenRound(signers auth.Authority) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if p.state.Phase != PhaseIdle {
		return fmt.Errorf("%w: phase %s", ErrAlreadyUpdating, p.state.Phase)
	}

	p.state.Phase = PhaseCollectingScores
	p.state.TotalAttention = 0
	p.state.RegisteredAttention = 0
	p.state.RoundUpdatedCount = 0

	p.ev("platform: %s: openround: step[%d]", p.cfg.Account, p.state.StepNumber)

	return nil
}

// SubmitScore records the attention score of a single user.
func (p *Platform) SubmitScore(signers auth.Authority, score Score, createIfMissing bool) error {
	return p.SubmitScores(signers, []Score{score}, createIfMissing)
}

// SubmitScores records the attention scores of a batch of users. A user
// scored twice inside the same step only moves the totals by the
// difference between both scores.
func (p *Platform) SubmitScores(signers auth.Authority, scores []Score, createIfMissing bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if p.state.Phase != PhaseCollectingScores {
		return fmt.Errorf("%w: scores can only be submitted while collecting scores, phase %s", ErrWrongPhase, p.state.Phase)
	}

	// Validate the whole batch before touching any record.
	seen := make(map[string]uint64)
	for _, score := range scores {
		if score.AttentionRate < 0 || math.IsNaN(score.AttentionRate) || math.IsInf(score.AttentionRate, 0) {
			return fmt.Errorf("%w: user %d rate %g", ErrInvalidScore, score.ID, score.AttentionRate)
		}

		if _, exists := p.users[score.ID]; exists {
			continue
		}

		if !createIfMissing {
			return fmt.Errorf("%w: %d", ErrUserNotFound, score.ID)
		}

		if err := p.checkHandle(score.Handle, score.ID); err != nil {
			return err
		}
		if id, exists := seen[score.Handle]; exists && id != score.ID {
			return fmt.Errorf("%w: handle %q used by %d and %d", ErrUserExists, score.Handle, id, score.ID)
		}
		seen[score.Handle] = score.ID
	}

	for _, score := range scores {
		p.applyScore(score)
	}

	p.ev("platform: %s: submitscores: step[%d] count[%d] total[%g] registered[%g]", p.cfg.Account, p.state.StepNumber, len(scores), p.state.TotalAttention, p.state.RegisteredAttention)

	return nil
}

// RequestLock asks the emission authority to lock the round and stops
// the collection of scores.
func (p *Platform) RequestLock(signers auth.Authority) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if p.state.Phase != PhaseCollectingScores {
		return fmt.Errorf("%w: platform must be collecting scores to lock, phase %s", ErrWrongPhase, p.state.Phase)
	}

	if err := p.emission.Lock(p.cfg.Account); err != nil {
		return err
	}

	p.state.Phase = PhaseLocked

	p.ev("platform: %s: requestlock: step[%d] updated[%d]", p.cfg.Account, p.state.StepNumber, p.state.RoundUpdatedCount)

	return nil
}

// StartDistribution requests the round supply from the emission
// authority. The whole balance the platform holds after the emission is
// the pool distributed this round.
func (p *Platform) StartDistribution(signers auth.Authority) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if p.state.Phase != PhaseLocked {
		return fmt.Errorf("%w: platform must be locked to start distribution, phase %s", ErrWrongPhase, p.state.Phase)
	}

	emitted, err := p.emission.RequestEmission(p.cfg.Account)
	if err != nil {
		return err
	}

	symbol := p.state.RoundSupply.Symbol

	p.state.RoundSupply = p.ledger.Balance(p.cfg.Account, symbol)
	p.state.SentAmount = asset.Zero(symbol)
	p.state.RoundPaidCount = 0
	p.state.Phase = PhaseDistributing

	p.ev("platform: %s: startdistribution: step[%d] emitted[%s] supply[%s]", p.cfg.Account, p.state.StepNumber, emitted, p.state.RoundSupply)

	return nil
}

// PayBatch pays up to maxCount accounts starting at the account with the
// cursor id. Accounts already paid this step are skipped. Once every
// bound account has been processed the round is finalized and the rest
// of the round supply is swept to the treasury.
func (p *Platform) PayBatch(signers auth.Authority, cursor uint64, maxCount uint32) (BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return BatchResult{}, err
	}

	if p.state.Phase != PhaseDistributing {
		return BatchResult{}, fmt.Errorf("%w: distribution must be started before sending payments, phase %s", ErrWrongPhase, p.state.Phase)
	}

	if maxCount == 0 {
		return BatchResult{}, fmt.Errorf("%w: batch size must be positive", ErrInvalidArgument)
	}

	step := p.state.StepNumber
	symbol := p.state.RoundSupply.Symbol

	// Only the rest of the round supply is paid or swept. Funds received
	// during the distribution stay for the next round.
	available := p.state.RoundSupply.Amount - p.state.SentAmount.Amount
	if balance := p.ledger.Balance(p.cfg.Account, symbol).Amount; balance < available {
		available = balance
	}

	result := BatchResult{
		Sent:  asset.Zero(symbol),
		Swept: asset.Zero(symbol),
	}

	i := p.search(cursor)
	for visited := uint32(0); i < len(p.ids) && visited < maxCount; i, visited = i+1, visited+1 {
		id := p.ids[i]
		account := p.accounts[id]

		if !account.IsBound() || account.LastPaidStep == step {
			continue
		}

		result.Processed++

		if account.Active {
			payment := p.payment(p.users[id], available)
			if payment > 0 {
				if err := p.ledger.Transfer(p.cfg.Account, account.Name, asset.New(payment, symbol), "payment for activity"); err != nil {
					return BatchResult{}, err
				}
				available -= payment
				result.Sent.Amount += payment
				result.Paid++
			}
		}

		account.LastPaidStep = step
		p.accounts[id] = account
	}

	if i < len(p.ids) {
		result.NextCursor = p.ids[i]
		result.More = true
	}

	p.state.RoundPaidCount += result.Processed
	p.state.SentAmount.Amount += result.Sent.Amount

	p.ev("platform: %s: paybatch: step[%d] cursor[%d] processed[%d] paid[%d] sent[%s]", p.cfg.Account, step, cursor, result.Processed, result.Paid, result.Sent)

	if p.state.RoundPaidCount >= p.state.RegisteredUserCount {
		swept, err := p.finalize(available)
		if err != nil {
			return BatchResult{}, err
		}
		result.Finalized = true
		result.Swept = swept
	}

	return result, nil
}

// =============================================================================

// applyScore updates the user and the attention totals. The caller must
// hold the lock and have validated the score.
func (p *Platform) applyScore(score Score) {
	user, exists := p.users[score.ID]
	if !exists {
		user = User{ID: score.ID, Handle: score.Handle}
		p.addUser(user, Account{ID: score.ID, StatDiff: score.StatDiff})
	}

	increment := score.AttentionRate
	if p.counted(user) {
		increment = score.AttentionRate - user.AttentionRate
	} else {
		p.state.RoundUpdatedCount++
	}

	user.AttentionRate = score.AttentionRate
	user.RatingPosition = score.RatingPosition
	user.RateVersion = p.state.StepNumber
	user.PostsRanked = score.PostsRanked
	p.users[score.ID] = user

	account := p.accounts[score.ID]
	account.StatDiff = score.StatDiff
	p.accounts[score.ID] = account

	p.state.TotalAttention += increment
	if account.IsBound() {
		p.state.RegisteredAttention += increment
	}
}

// payment computes the share of the round supply owed to the user,
// floored to the raw unit and capped at the available balance. The caller
// must hold the lock.
func (p *Platform) payment(user User, available int64) int64 {
	if !p.counted(user) || user.AttentionRate <= p.cfg.MinAttention || p.state.TotalAttention <= 0 {
		return 0
	}

	share := new(big.Rat).SetFloat64(user.AttentionRate)
	total := new(big.Rat).SetFloat64(p.state.TotalAttention)
	if share == nil || total == nil {
		return 0
	}

	share.Mul(share, new(big.Rat).SetInt64(p.state.RoundSupply.Amount))
	share.Quo(share, total)

	amount := new(big.Int).Quo(share.Num(), share.Denom())
	if !amount.IsInt64() || amount.Int64() > available {
		return available
	}
	return amount.Int64()
}

// finalize archives the round, sweeps the rest of the round supply to
// the treasury and moves the platform to the next step. The caller must
// hold the lock.
func (p *Platform) finalize(remaining int64) (asset.Asset, error) {
	symbol := p.state.RoundSupply.Symbol
	swept := asset.New(remaining, symbol)

	if swept.IsPositive() {
		if err := p.ledger.Transfer(p.cfg.Account, p.state.Treasury, swept, "rest of round supply"); err != nil {
			return asset.Asset{}, err
		}
	}

	p.history = append(p.history, HistoryRecord{
		StepNumber:          p.state.StepNumber,
		RegisteredUserCount: p.state.RegisteredUserCount,
		TotalUserCount:      p.state.TotalUserCount,
		TotalAttention:      p.state.TotalAttention,
		RegisteredAttention: p.state.RegisteredAttention,
		RoundSupply:         p.state.RoundSupply,
		SentAmount:          p.state.SentAmount,
		Swept:               swept,
		RoundPaidCount:      p.state.RoundPaidCount,
		RoundUpdatedCount:   p.state.RoundUpdatedCount,
		Finalized:           p.cfg.Now(),
	})

	p.ev("platform: %s: finalize: step[%d] supply[%s] sent[%s] swept[%s]", p.cfg.Account, p.state.StepNumber, p.state.RoundSupply, p.state.SentAmount, swept)

	p.state.Phase = PhaseIdle
	p.state.RoundPaidCount = 0
	p.state.RoundUpdatedCount = 0
	p.state.TotalAttention = 0
	p.state.RegisteredAttention = 0
	p.state.RoundSupply = asset.Zero(symbol)
	p.state.SentAmount = asset.Zero(symbol)
	p.state.StepNumber++

	return swept, nil
}

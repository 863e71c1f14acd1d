package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
)

// TransferEvent is an xACE Transfer log. The zero address as sender means a
// mint (enter), as recipient a burn (leave); any other combination moves
// shares between two positions.
type TransferEvent struct {
	Event
	From  string
	To    string
	Value *big.Int
}

// Transfer settles an xACE transfer against the bar ledger.
func (l *Ledger) Transfer(ctx context.Context, ev TransferEvent) (Outcome, error) {
	value := tokenAmount(ev.Value)
	if value.IsZero() {
		l.logger.Warn().Str("tx", ev.TxHash).Msg("Skipping zero-value bar transfer")
		return skipped("zero-value transfer"), nil
	}

	bar, err := l.getBar(ctx, ev.Event)
	if err != nil {
		return failed("bar load"), err
	}

	// Refresh supply, staked balance, and the xACE/ACE ratio from chain state
	// at the event block. A zero supply keeps the previous ratio.
	totalSupply, err := l.chain.TotalSupply(ctx, l.cfg.BarAddress, ev.Block)
	if err != nil {
		return failed("total supply read"), err
	}
	staked, err := l.chain.BalanceOf(ctx, l.cfg.TokenAddress, l.cfg.BarAddress, ev.Block)
	if err != nil {
		return failed("staked balance read"), err
	}
	bar.TotalSupply = tokenAmount(totalSupply)
	bar.AceStaked = tokenAmount(staked)
	if !bar.TotalSupply.IsZero() {
		bar.Ratio = bar.AceStaked.Div(bar.TotalSupply)
	}

	// what is the ACE value of the transferred shares at the current ratio.
	what := value.Mul(bar.Ratio)

	acePrice, err := l.prices.AcePrice(ctx, ev.Block)
	if err != nil {
		return failed("ace price read"), err
	}
	usd := what.Mul(acePrice)

	from := normalizeAddress(ev.From)
	to := normalizeAddress(ev.To)

	switch {
	case from == ZeroAddress:
		err = l.applyBarMint(ctx, bar, to, value, what, usd, ev.Event)
	case to == ZeroAddress:
		err = l.applyBarBurn(ctx, bar, from, value, what, usd, ev.Event)
	default:
		err = l.applyBarMove(ctx, bar, from, to, value, what, usd, ev.Event)
	}
	if err != nil {
		return failed("apply"), err
	}

	if err := l.store.PutBar(ctx, bar); err != nil {
		return failed("bar save"), fmt.Errorf("failed to save bar: %w", err)
	}
	return applied(), nil
}

// applyBarMint credits freshly minted shares to the recipient and records the
// staked cost basis on user, bar, and the day bucket.
func (l *Ledger) applyBarMint(ctx context.Context, bar *entities.Bar, to string, value, what, usd decimal.Decimal, ev Event) error {
	user, err := l.getBarUser(ctx, to, ev)
	if err != nil {
		return err
	}

	if user.XAce.IsZero() {
		user.InBar = true
	}

	// Age accrues on the balance held before this event.
	user.XAceAge = ElapsedAge(user.XAceAge, user.XAce, user.UpdatedAt, ev.Timestamp)
	user.XAce = user.XAce.Add(value)
	user.XAceMinted = user.XAceMinted.Add(value)
	user.AceStaked = user.AceStaked.Add(what)
	user.AceStakedUSD = user.AceStakedUSD.Add(usd)
	user.UpdatedAt = ev.Timestamp

	if err := l.store.PutBarUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save bar user %s: %w", user.Address, err)
	}

	// The bar's own age runs on net minted supply, which transfers never move.
	bar.XAceAge = ElapsedAge(bar.XAceAge, bar.Supply(), bar.UpdatedAt, ev.Timestamp)
	bar.XAceMinted = bar.XAceMinted.Add(value)
	bar.AceStaked = bar.AceStaked.Add(what)
	bar.AceStakedUSD = bar.AceStakedUSD.Add(usd)
	bar.UpdatedAt = ev.Timestamp

	history, err := l.getBarHistory(ctx, ev)
	if err != nil {
		return err
	}
	history.XAceAge = bar.XAceAge
	history.XAceMinted = history.XAceMinted.Add(value)
	history.XAceSupply = bar.TotalSupply
	history.Ratio = bar.Ratio
	history.AceStaked = history.AceStaked.Add(what)
	history.AceStakedUSD = history.AceStakedUSD.Add(usd)

	if err := l.store.PutBarHistory(ctx, history); err != nil {
		return fmt.Errorf("failed to save bar history: %w", err)
	}
	return nil
}

// applyBarBurn debits burned shares from the sender, destroying age in
// proportion and recording the harvested ACE value.
func (l *Ledger) applyBarBurn(ctx context.Context, bar *entities.Bar, from string, value, what, usd decimal.Decimal, ev Event) error {
	user, err := l.getBarUser(ctx, from, ev)
	if err != nil {
		return err
	}

	user.XAceAge = ElapsedAge(user.XAceAge, user.XAce, user.UpdatedAt, ev.Timestamp)

	ageDestroyed, remaining := RemoveAge(user.XAceAge, user.XAce, value)
	user.XAceAge = remaining
	user.XAceAgeDestroyed = user.XAceAgeDestroyed.Add(ageDestroyed)
	user.XAce = user.XAce.Sub(value)
	user.XAceBurned = user.XAceBurned.Add(value)
	user.AceHarvested = user.AceHarvested.Add(what)
	user.AceHarvestedUSD = user.AceHarvestedUSD.Add(usd)
	if user.XAce.IsZero() {
		user.InBar = false
	}
	user.UpdatedAt = ev.Timestamp

	if err := l.store.PutBarUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save bar user %s: %w", user.Address, err)
	}

	bar.XAceAge = ElapsedAge(bar.XAceAge, bar.Supply(), bar.UpdatedAt, ev.Timestamp).Sub(ageDestroyed)
	bar.XAceAgeDestroyed = bar.XAceAgeDestroyed.Add(ageDestroyed)
	bar.XAceBurned = bar.XAceBurned.Add(value)
	bar.AceHarvested = bar.AceHarvested.Add(what)
	bar.AceHarvestedUSD = bar.AceHarvestedUSD.Add(usd)
	bar.UpdatedAt = ev.Timestamp

	history, err := l.getBarHistory(ctx, ev)
	if err != nil {
		return err
	}
	history.XAceAge = bar.XAceAge
	history.XAceAgeDestroyed = history.XAceAgeDestroyed.Add(ageDestroyed)
	history.XAceBurned = history.XAceBurned.Add(value)
	history.XAceSupply = bar.TotalSupply
	history.Ratio = bar.Ratio
	history.AceHarvested = history.AceHarvested.Add(what)
	history.AceHarvestedUSD = history.AceHarvestedUSD.Add(usd)

	if err := l.store.PutBarHistory(ctx, history); err != nil {
		return fmt.Errorf("failed to save bar history: %w", err)
	}
	return nil
}

// applyBarMove settles a wallet-to-wallet share transfer. The sender's age
// travels with the shares; the recipient's staked cost basis only advances by
// the positive net inflow beyond what previous transfers already settled, so
// shuttling shares back and forth cannot inflate it.
func (l *Ledger) applyBarMove(ctx context.Context, bar *entities.Bar, from, to string, value, what, usd decimal.Decimal, ev Event) error {
	sender, err := l.getBarUser(ctx, from, ev)
	if err != nil {
		return err
	}

	sender.XAceAge = ElapsedAge(sender.XAceAge, sender.XAce, sender.UpdatedAt, ev.Timestamp)

	ageTransferred, remaining := RemoveAge(sender.XAceAge, sender.XAce, value)
	sender.XAceAge = remaining
	sender.XAce = sender.XAce.Sub(value)
	sender.XAceOut = sender.XAceOut.Add(value)
	sender.AceOut = sender.AceOut.Add(what)
	sender.UsdOut = sender.UsdOut.Add(usd)
	if sender.XAce.IsZero() {
		sender.InBar = false
	}
	sender.UpdatedAt = ev.Timestamp

	if err := l.store.PutBarUser(ctx, sender); err != nil {
		return fmt.Errorf("failed to save bar user %s: %w", sender.Address, err)
	}

	recipient, err := l.getBarUser(ctx, to, ev)
	if err != nil {
		return err
	}

	if recipient.XAce.IsZero() {
		recipient.InBar = true
	}

	recipient.XAceAge = ElapsedAge(recipient.XAceAge, recipient.XAce, recipient.UpdatedAt, ev.Timestamp)
	recipient.XAceAge = recipient.XAceAge.Add(ageTransferred)
	recipient.XAce = recipient.XAce.Add(value)
	recipient.XAceIn = recipient.XAceIn.Add(value)
	recipient.AceIn = recipient.AceIn.Add(what)
	recipient.UsdIn = recipient.UsdIn.Add(usd)

	// Net inflow beyond the already-settled offset is new cost basis.
	difference := recipient.XAceIn.Sub(recipient.XAceOut).Sub(recipient.XAceOffset)
	if difference.IsPositive() {
		ace := recipient.AceIn.Sub(recipient.AceOut).Sub(recipient.AceOffset)
		usdNet := recipient.UsdIn.Sub(recipient.UsdOut).Sub(recipient.UsdOffset)

		recipient.AceStaked = recipient.AceStaked.Add(ace)
		recipient.AceStakedUSD = recipient.AceStakedUSD.Add(usdNet)

		recipient.XAceOffset = recipient.XAceOffset.Add(difference)
		recipient.AceOffset = recipient.AceOffset.Add(ace)
		recipient.UsdOffset = recipient.UsdOffset.Add(usdNet)
	}
	recipient.UpdatedAt = ev.Timestamp

	if err := l.store.PutBarUser(ctx, recipient); err != nil {
		return fmt.Errorf("failed to save bar user %s: %w", recipient.Address, err)
	}
	return nil
}

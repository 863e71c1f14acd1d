package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
)

// Postgres persists the entity graph through upserts keyed by entity identity.
// Amounts are numeric columns; raw on-chain integers travel as their decimal
// string form.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func scanBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

func (p *Postgres) GetBar(ctx context.Context, address string) (*entities.Bar, error) {
	var bar entities.Bar
	err := p.pool.QueryRow(ctx, `
		SELECT address, name, symbol, decimals, ace, total_supply, ace_staked,
		       ace_staked_usd, ace_harvested, ace_harvested_usd, xace_minted,
		       xace_burned, xace_age, xace_age_destroyed, ratio, updated_at
		FROM bar WHERE address = $1`, address,
	).Scan(
		&bar.Address, &bar.Name, &bar.Symbol, &bar.Decimals, &bar.Ace,
		&bar.TotalSupply, &bar.AceStaked, &bar.AceStakedUSD, &bar.AceHarvested,
		&bar.AceHarvestedUSD, &bar.XAceMinted, &bar.XAceBurned, &bar.XAceAge,
		&bar.XAceAgeDestroyed, &bar.Ratio, &bar.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bar: %w", err)
	}
	return &bar, nil
}

func (p *Postgres) PutBar(ctx context.Context, bar *entities.Bar) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO bar (
			address, name, symbol, decimals, ace, total_supply, ace_staked,
			ace_staked_usd, ace_harvested, ace_harvested_usd, xace_minted,
			xace_burned, xace_age, xace_age_destroyed, ratio, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (address) DO UPDATE SET
			total_supply = EXCLUDED.total_supply,
			ace_staked = EXCLUDED.ace_staked,
			ace_staked_usd = EXCLUDED.ace_staked_usd,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			xace_minted = EXCLUDED.xace_minted,
			xace_burned = EXCLUDED.xace_burned,
			xace_age = EXCLUDED.xace_age,
			xace_age_destroyed = EXCLUDED.xace_age_destroyed,
			ratio = EXCLUDED.ratio,
			updated_at = EXCLUDED.updated_at`,
		bar.Address, bar.Name, bar.Symbol, bar.Decimals, bar.Ace,
		bar.TotalSupply, bar.AceStaked, bar.AceStakedUSD, bar.AceHarvested,
		bar.AceHarvestedUSD, bar.XAceMinted, bar.XAceBurned, bar.XAceAge,
		bar.XAceAgeDestroyed, bar.Ratio, bar.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put bar: %w", err)
	}
	return nil
}

func (p *Postgres) GetBarUser(ctx context.Context, address string) (*entities.BarUser, error) {
	var user entities.BarUser
	err := p.pool.QueryRow(ctx, `
		SELECT address, in_bar, xace, xace_minted, xace_burned, ace_staked,
		       ace_staked_usd, ace_harvested, ace_harvested_usd, xace_out,
		       ace_out, usd_out, xace_in, ace_in, usd_in, xace_age,
		       xace_age_destroyed, xace_offset, ace_offset, usd_offset, updated_at
		FROM bar_users WHERE address = $1`, address,
	).Scan(
		&user.Address, &user.InBar, &user.XAce, &user.XAceMinted, &user.XAceBurned,
		&user.AceStaked, &user.AceStakedUSD, &user.AceHarvested, &user.AceHarvestedUSD,
		&user.XAceOut, &user.AceOut, &user.UsdOut, &user.XAceIn, &user.AceIn,
		&user.UsdIn, &user.XAceAge, &user.XAceAgeDestroyed, &user.XAceOffset,
		&user.AceOffset, &user.UsdOffset, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bar user: %w", err)
	}
	return &user, nil
}

func (p *Postgres) PutBarUser(ctx context.Context, user *entities.BarUser) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO bar_users (
			address, in_bar, xace, xace_minted, xace_burned, ace_staked,
			ace_staked_usd, ace_harvested, ace_harvested_usd, xace_out, ace_out,
			usd_out, xace_in, ace_in, usd_in, xace_age, xace_age_destroyed,
			xace_offset, ace_offset, usd_offset, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (address) DO UPDATE SET
			in_bar = EXCLUDED.in_bar,
			xace = EXCLUDED.xace,
			xace_minted = EXCLUDED.xace_minted,
			xace_burned = EXCLUDED.xace_burned,
			ace_staked = EXCLUDED.ace_staked,
			ace_staked_usd = EXCLUDED.ace_staked_usd,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			xace_out = EXCLUDED.xace_out,
			ace_out = EXCLUDED.ace_out,
			usd_out = EXCLUDED.usd_out,
			xace_in = EXCLUDED.xace_in,
			ace_in = EXCLUDED.ace_in,
			usd_in = EXCLUDED.usd_in,
			xace_age = EXCLUDED.xace_age,
			xace_age_destroyed = EXCLUDED.xace_age_destroyed,
			xace_offset = EXCLUDED.xace_offset,
			ace_offset = EXCLUDED.ace_offset,
			usd_offset = EXCLUDED.usd_offset,
			updated_at = EXCLUDED.updated_at`,
		user.Address, user.InBar, user.XAce, user.XAceMinted, user.XAceBurned,
		user.AceStaked, user.AceStakedUSD, user.AceHarvested, user.AceHarvestedUSD,
		user.XAceOut, user.AceOut, user.UsdOut, user.XAceIn, user.AceIn,
		user.UsdIn, user.XAceAge, user.XAceAgeDestroyed, user.XAceOffset,
		user.AceOffset, user.UsdOffset, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put bar user: %w", err)
	}
	return nil
}

func (p *Postgres) GetChef(ctx context.Context, address string) (*entities.MasterChef, error) {
	var chef entities.MasterChef
	var bonusMultiplier, bonusEndBlock, startBlock, acePerBlock, totalAllocPoint string
	err := p.pool.QueryRow(ctx, `
		SELECT address, COALESCE(bonus_multiplier::text, '0'), COALESCE(bonus_end_block::text, '0'),
		       devaddr, migrator, owner, COALESCE(start_block::text, '0'),
		       COALESCE(ace_per_block::text, '0'), COALESCE(total_alloc_point::text, '0'),
		       pool_count, alp_balance, alp_age, alp_age_removed, alp_deposited,
		       alp_withdrawn, updated_at
		FROM master_chef WHERE address = $1`, address,
	).Scan(
		&chef.Address, &bonusMultiplier, &bonusEndBlock, &chef.Devaddr,
		&chef.Migrator, &chef.Owner, &startBlock, &acePerBlock, &totalAllocPoint,
		&chef.PoolCount, &chef.AlpBalance, &chef.AlpAge, &chef.AlpAgeRemoved,
		&chef.AlpDeposited, &chef.AlpWithdrawn, &chef.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chef: %w", err)
	}

	for _, field := range []struct {
		raw  string
		dest **big.Int
	}{
		{bonusMultiplier, &chef.BonusMultiplier},
		{bonusEndBlock, &chef.BonusEndBlock},
		{startBlock, &chef.StartBlock},
		{acePerBlock, &chef.AcePerBlock},
		{totalAllocPoint, &chef.TotalAllocPoint},
	} {
		v, err := scanBig(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chef: %w", err)
		}
		*field.dest = v
	}
	return &chef, nil
}

func (p *Postgres) PutChef(ctx context.Context, chef *entities.MasterChef) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO master_chef (
			address, bonus_multiplier, bonus_end_block, devaddr, migrator, owner,
			start_block, ace_per_block, total_alloc_point, pool_count,
			alp_balance, alp_age, alp_age_removed, alp_deposited, alp_withdrawn, updated_at
		) VALUES ($1,$2::numeric,$3::numeric,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (address) DO UPDATE SET
			bonus_multiplier = EXCLUDED.bonus_multiplier,
			bonus_end_block = EXCLUDED.bonus_end_block,
			devaddr = EXCLUDED.devaddr,
			migrator = EXCLUDED.migrator,
			owner = EXCLUDED.owner,
			start_block = EXCLUDED.start_block,
			ace_per_block = EXCLUDED.ace_per_block,
			total_alloc_point = EXCLUDED.total_alloc_point,
			pool_count = EXCLUDED.pool_count,
			alp_balance = EXCLUDED.alp_balance,
			alp_age = EXCLUDED.alp_age,
			alp_age_removed = EXCLUDED.alp_age_removed,
			alp_deposited = EXCLUDED.alp_deposited,
			alp_withdrawn = EXCLUDED.alp_withdrawn,
			updated_at = EXCLUDED.updated_at`,
		chef.Address, bigString(chef.BonusMultiplier), bigString(chef.BonusEndBlock),
		chef.Devaddr, chef.Migrator, chef.Owner, bigString(chef.StartBlock),
		bigString(chef.AcePerBlock), bigString(chef.TotalAllocPoint), chef.PoolCount,
		chef.AlpBalance, chef.AlpAge, chef.AlpAgeRemoved, chef.AlpDeposited,
		chef.AlpWithdrawn, chef.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put chef: %w", err)
	}
	return nil
}

func (p *Postgres) GetPool(ctx context.Context, id uint64) (*entities.Pool, error) {
	pool, err := p.scanPool(p.pool.QueryRow(ctx, poolSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return pool, err
}

const poolSelect = `
	SELECT id, owner, pair, COALESCE(alloc_point::text, '0'),
	       COALESCE(last_reward_block::text, '0'), COALESCE(acc_ace_per_share::text, '0'),
	       balance::text, user_count, alp_balance, alp_age, alp_age_removed,
	       alp_deposited, alp_withdrawn, entry_usd, exit_usd, ace_harvested,
	       ace_harvested_usd, tvl_usd, timestamp, block, updated_at
	FROM pools`

func (p *Postgres) scanPool(row pgx.Row) (*entities.Pool, error) {
	var pool entities.Pool
	var allocPoint, lastRewardBlock, accAcePerShare, balance string
	err := row.Scan(
		&pool.ID, &pool.Owner, &pool.Pair, &allocPoint, &lastRewardBlock,
		&accAcePerShare, &balance, &pool.UserCount, &pool.AlpBalance, &pool.AlpAge,
		&pool.AlpAgeRemoved, &pool.AlpDeposited, &pool.AlpWithdrawn, &pool.EntryUSD,
		&pool.ExitUSD, &pool.AceHarvested, &pool.AceHarvestedUSD, &pool.TvlUSD,
		&pool.Timestamp, &pool.Block, &pool.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pool: %w", err)
	}

	for _, field := range []struct {
		raw  string
		dest **big.Int
	}{
		{allocPoint, &pool.AllocPoint},
		{lastRewardBlock, &pool.LastRewardBlock},
		{accAcePerShare, &pool.AccAcePerShare},
		{balance, &pool.Balance},
	} {
		v, err := scanBig(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool: %w", err)
		}
		*field.dest = v
	}
	return &pool, nil
}

func (p *Postgres) PutPool(ctx context.Context, pool *entities.Pool) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO pools (
			id, owner, pair, alloc_point, last_reward_block, acc_ace_per_share,
			balance, user_count, alp_balance, alp_age, alp_age_removed,
			alp_deposited, alp_withdrawn, entry_usd, exit_usd, ace_harvested,
			ace_harvested_usd, tvl_usd, timestamp, block, updated_at
		) VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (id) DO UPDATE SET
			pair = EXCLUDED.pair,
			alloc_point = EXCLUDED.alloc_point,
			last_reward_block = EXCLUDED.last_reward_block,
			acc_ace_per_share = EXCLUDED.acc_ace_per_share,
			balance = EXCLUDED.balance,
			user_count = EXCLUDED.user_count,
			alp_balance = EXCLUDED.alp_balance,
			alp_age = EXCLUDED.alp_age,
			alp_age_removed = EXCLUDED.alp_age_removed,
			alp_deposited = EXCLUDED.alp_deposited,
			alp_withdrawn = EXCLUDED.alp_withdrawn,
			entry_usd = EXCLUDED.entry_usd,
			exit_usd = EXCLUDED.exit_usd,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			tvl_usd = EXCLUDED.tvl_usd,
			updated_at = EXCLUDED.updated_at`,
		pool.ID, pool.Owner, pool.Pair, bigString(pool.AllocPoint),
		bigString(pool.LastRewardBlock), bigString(pool.AccAcePerShare),
		bigString(pool.Balance), pool.UserCount, pool.AlpBalance, pool.AlpAge,
		pool.AlpAgeRemoved, pool.AlpDeposited, pool.AlpWithdrawn, pool.EntryUSD,
		pool.ExitUSD, pool.AceHarvested, pool.AceHarvestedUSD, pool.TvlUSD,
		pool.Timestamp, pool.Block, pool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put pool: %w", err)
	}
	return nil
}

func (p *Postgres) Pools(ctx context.Context) ([]*entities.Pool, error) {
	rows, err := p.pool.Query(ctx, poolSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	var pools []*entities.Pool
	for rows.Next() {
		pool, err := p.scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pools: %w", err)
	}
	return pools, nil
}

func (p *Postgres) GetPoolUser(ctx context.Context, poolID uint64, address string) (*entities.PoolUser, error) {
	var user entities.PoolUser
	var amount, rewardDebt string
	err := p.pool.QueryRow(ctx, `
		SELECT pool_id, address, in_pool, amount::text, reward_debt::text,
		       ace_harvested, ace_harvested_usd, entry_usd, exit_usd, timestamp, block
		FROM pool_users WHERE pool_id = $1 AND address = $2`, poolID, address,
	).Scan(
		&user.PoolID, &user.Address, &user.InPool, &amount, &rewardDebt,
		&user.AceHarvested, &user.AceHarvestedUSD, &user.EntryUSD, &user.ExitUSD,
		&user.Timestamp, &user.Block,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool user: %w", err)
	}

	if user.Amount, err = scanBig(amount); err != nil {
		return nil, fmt.Errorf("failed to scan pool user: %w", err)
	}
	if user.RewardDebt, err = scanBig(rewardDebt); err != nil {
		return nil, fmt.Errorf("failed to scan pool user: %w", err)
	}
	return &user, nil
}

func (p *Postgres) PutPoolUser(ctx context.Context, user *entities.PoolUser) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO pool_users (
			pool_id, address, in_pool, amount, reward_debt, ace_harvested,
			ace_harvested_usd, entry_usd, exit_usd, timestamp, block
		) VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (pool_id, address) DO UPDATE SET
			in_pool = EXCLUDED.in_pool,
			amount = EXCLUDED.amount,
			reward_debt = EXCLUDED.reward_debt,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			entry_usd = EXCLUDED.entry_usd,
			exit_usd = EXCLUDED.exit_usd,
			timestamp = EXCLUDED.timestamp,
			block = EXCLUDED.block`,
		user.PoolID, user.Address, user.InPool, bigString(user.Amount),
		bigString(user.RewardDebt), user.AceHarvested, user.AceHarvestedUSD,
		user.EntryUSD, user.ExitUSD, user.Timestamp, user.Block,
	)
	if err != nil {
		return fmt.Errorf("failed to put pool user: %w", err)
	}
	return nil
}

func (p *Postgres) GetBarHistory(ctx context.Context, day int64) (*entities.BarHistory, error) {
	var history entities.BarHistory
	err := p.pool.QueryRow(ctx, `
		SELECT day, date, ace_staked, ace_staked_usd, ace_harvested,
		       ace_harvested_usd, xace_age, xace_age_destroyed, xace_minted,
		       xace_burned, xace_supply, ratio
		FROM bar_history WHERE day = $1`, day,
	).Scan(
		&history.Day, &history.Date, &history.AceStaked, &history.AceStakedUSD,
		&history.AceHarvested, &history.AceHarvestedUSD, &history.XAceAge,
		&history.XAceAgeDestroyed, &history.XAceMinted, &history.XAceBurned,
		&history.XAceSupply, &history.Ratio,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bar history: %w", err)
	}
	return &history, nil
}

func (p *Postgres) PutBarHistory(ctx context.Context, history *entities.BarHistory) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO bar_history (
			day, date, ace_staked, ace_staked_usd, ace_harvested,
			ace_harvested_usd, xace_age, xace_age_destroyed, xace_minted,
			xace_burned, xace_supply, ratio
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (day) DO UPDATE SET
			ace_staked = EXCLUDED.ace_staked,
			ace_staked_usd = EXCLUDED.ace_staked_usd,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			xace_age = EXCLUDED.xace_age,
			xace_age_destroyed = EXCLUDED.xace_age_destroyed,
			xace_minted = EXCLUDED.xace_minted,
			xace_burned = EXCLUDED.xace_burned,
			xace_supply = EXCLUDED.xace_supply,
			ratio = EXCLUDED.ratio`,
		history.Day, history.Date, history.AceStaked, history.AceStakedUSD,
		history.AceHarvested, history.AceHarvestedUSD, history.XAceAge,
		history.XAceAgeDestroyed, history.XAceMinted, history.XAceBurned,
		history.XAceSupply, history.Ratio,
	)
	if err != nil {
		return fmt.Errorf("failed to put bar history: %w", err)
	}
	return nil
}

func (p *Postgres) GetFarmHistory(ctx context.Context, scope string, day int64) (*entities.FarmHistory, error) {
	var history entities.FarmHistory
	err := p.pool.QueryRow(ctx, `
		SELECT scope, day, alp_balance, alp_age, alp_age_removed, alp_deposited,
		       alp_withdrawn, entry_usd, exit_usd, ace_harvested,
		       ace_harvested_usd, user_count, timestamp, block
		FROM farm_history WHERE scope = $1 AND day = $2`, scope, day,
	).Scan(
		&history.Scope, &history.Day, &history.AlpBalance, &history.AlpAge,
		&history.AlpAgeRemoved, &history.AlpDeposited, &history.AlpWithdrawn,
		&history.EntryUSD, &history.ExitUSD, &history.AceHarvested,
		&history.AceHarvestedUSD, &history.UserCount, &history.Timestamp, &history.Block,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get farm history: %w", err)
	}
	return &history, nil
}

func (p *Postgres) PutFarmHistory(ctx context.Context, history *entities.FarmHistory) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO farm_history (
			scope, day, alp_balance, alp_age, alp_age_removed, alp_deposited,
			alp_withdrawn, entry_usd, exit_usd, ace_harvested, ace_harvested_usd,
			user_count, timestamp, block
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (scope, day) DO UPDATE SET
			alp_balance = EXCLUDED.alp_balance,
			alp_age = EXCLUDED.alp_age,
			alp_age_removed = EXCLUDED.alp_age_removed,
			alp_deposited = EXCLUDED.alp_deposited,
			alp_withdrawn = EXCLUDED.alp_withdrawn,
			entry_usd = EXCLUDED.entry_usd,
			exit_usd = EXCLUDED.exit_usd,
			ace_harvested = EXCLUDED.ace_harvested,
			ace_harvested_usd = EXCLUDED.ace_harvested_usd,
			user_count = EXCLUDED.user_count,
			timestamp = EXCLUDED.timestamp,
			block = EXCLUDED.block`,
		history.Scope, history.Day, history.AlpBalance, history.AlpAge,
		history.AlpAgeRemoved, history.AlpDeposited, history.AlpWithdrawn,
		history.EntryUSD, history.ExitUSD, history.AceHarvested,
		history.AceHarvestedUSD, history.UserCount, history.Timestamp, history.Block,
	)
	if err != nil {
		return fmt.Errorf("failed to put farm history: %w", err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)

package postgres

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityBreakdown/internal/export"
	"liquidityBreakdown/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for breakdown artifacts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the breakdown tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Export stores the tree as one run row and one row per pool owner, replacing
// the owners of an earlier export of the same run.
func (s *Store) Export(ctx context.Context, tree *model.AttributionTree) (string, error) {
	artifact, err := json.Marshal(export.NewArtifact(tree))
	if err != nil {
		return "", fmt.Errorf("marshal breakdown: %w", err)
	}

	var runID int64
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO breakdown_runs (chain_id, input_token, generated_at, artifact)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chain_id, input_token, generated_at)
			DO UPDATE SET artifact = EXCLUDED.artifact
			RETURNING id
		`, int64(tree.ChainID), tree.InputTokenAddress.Hex(), tree.GeneratedAt, artifact)
		if err := row.Scan(&runID); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM breakdown_owners WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("clear owners: %w", err)
		}

		rows := ownerRows(tree)
		if len(rows) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(`
				INSERT INTO breakdown_owners (
					run_id, token, pool, wrapper, owner, share_amount, token_balance, equivalent_balance
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				runID,
				r.Token,
				r.Pool,
				r.Wrapper,
				r.Owner,
				numeric(r.ShareAmount),
				numeric(r.TokenBalance),
				numeric(r.EquivalentBalance),
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert owner: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgres:breakdown_runs/%d", runID), nil
}

type ownerRow struct {
	Token             string
	Pool              string
	Wrapper           string
	Owner             string
	ShareAmount       *big.Int
	TokenBalance      *big.Int
	EquivalentBalance *big.Int
}

// ownerRows flattens the tree in token, pool, owner address order.
func ownerRows(tree *model.AttributionTree) []ownerRow {
	var rows []ownerRow
	for _, token := range sorted(tree.Breakdown) {
		pools := tree.Breakdown[token]
		for _, pool := range sorted(pools) {
			p := pools[pool]
			for _, owner := range sorted(p.Owners) {
				share := p.Owners[owner]
				rows = append(rows, ownerRow{
					Token:             token.Hex(),
					Pool:              pool.Hex(),
					Wrapper:           string(p.WrapperKind),
					Owner:             owner.Hex(),
					ShareAmount:       share.ShareAmount,
					TokenBalance:      share.TokenBalance,
					EquivalentBalance: share.EquivalentInputTokenBalance,
				})
			}
		}
	}
	return rows
}

func numeric(v *big.Int) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Valid: true}
}

func sorted[V any](m map[common.Address]V) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const queryTimeout = 10 * time.Second

// PostgresStore 把规则保存在 postgres 表中，描述结构存为 bytea
type PostgresStore struct {
	db    *sql.DB
	table string
}

// OpenPostgres 连接数据库并确保表存在
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	s := NewPostgresStore(db, table)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore 使用已有连接创建存储
func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	rule_id    TEXT PRIMARY KEY,
	match_name TEXT NOT NULL,
	descriptor BYTEA NOT NULL,
	args       TEXT[] NOT NULL DEFAULT '{}'
)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "create rule table")
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	if err := ValidateRuleID(rec.RuleID); err != nil {
		return errors.Wrapf(err, "%q", rec.RuleID)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`INSERT INTO %s (rule_id, match_name, descriptor, args) VALUES ($1, $2, $3, $4)
ON CONFLICT (rule_id) DO NOTHING`, s.table)
	res, err := s.db.ExecContext(ctx, stmt, rec.RuleID, rec.Match, rec.Data, pq.Array(rec.Args))
	if err != nil {
		return errors.Wrapf(err, "create rule %s", rec.RuleID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "create rule %s", rec.RuleID)
	}
	if n == 0 {
		return errors.Wrapf(ErrExists, "rule %s", rec.RuleID)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateRuleID(rec.RuleID); err != nil {
		return errors.Wrapf(err, "%q", rec.RuleID)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`INSERT INTO %s (rule_id, match_name, descriptor, args) VALUES ($1, $2, $3, $4)
ON CONFLICT (rule_id) DO UPDATE SET match_name = EXCLUDED.match_name, descriptor = EXCLUDED.descriptor, args = EXCLUDED.args`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, rec.RuleID, rec.Match, rec.Data, pq.Array(rec.Args)); err != nil {
		return errors.Wrapf(err, "save rule %s", rec.RuleID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ruleID string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rec := &Record{RuleID: ruleID}
	query := fmt.Sprintf(`SELECT match_name, descriptor, args FROM %s WHERE rule_id = $1`, s.table)
	err := s.db.QueryRowContext(ctx, query, ruleID).Scan(&rec.Match, &rec.Data, pq.Array(&rec.Args))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "rule %s", ruleID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load rule %s", ruleID)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT rule_id, match_name, descriptor, args FROM %s ORDER BY rule_id`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list rules")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.RuleID, &rec.Match, &rec.Data, pq.Array(&rec.Args)); err != nil {
			return nil, errors.Wrap(err, "scan rule")
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "list rules")
}

func (s *PostgresStore) Delete(ctx context.Context, ruleID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE rule_id = $1`, s.table)
	res, err := s.db.ExecContext(ctx, stmt, ruleID)
	if err != nil {
		return errors.Wrapf(err, "delete rule %s", ruleID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete rule %s", ruleID)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "rule %s", ruleID)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

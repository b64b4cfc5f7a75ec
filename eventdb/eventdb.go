// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists ledger events in sqlite and serves filtered queries over them.
package eventdb

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger"
)

const insertEvent = "INSERT INTO event(kind, height, epoch, pool, account, peer, commitment, amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

type EventDB struct {
	path          string
	db            *sql.DB
	stmts         *stmtCache
	driverVersion string
}

var _ ledger.EventSink = (*EventDB)(nil)

// New creates or opens the event db at path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// a memory db lives as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		stmts:         newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() (err error) {
	db.stmts.Clear()
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the linked sqlite library.
func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Deliver stores the events of one ledger operation in a single transaction.
func (db *EventDB) Deliver(events []*ledger.Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := db.stmts.Prepare(insertEvent)
	if err != nil {
		return err
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	txStmt := tx.Stmt(stmt)
	for _, ev := range events {
		amount := ev.Amount
		if amount == nil {
			amount = new(uint256.Int)
		}
		if _, err := txStmt.Exec(
			string(ev.Kind),
			ev.Height,
			ev.Epoch,
			ev.Pool,
			ev.Account.Bytes(),
			ev.Peer.Bytes(),
			int64(ev.Commitment),
			amount.Bytes(),
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert %v event", ev.Kind)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, ev := range events {
		metricStoredCount().AddWithLabel(1, map[string]string{"kind": string(ev.Kind)})
	}
	return nil
}

// FilterEvents returns the events matching filter. A nil filter returns everything.
func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		condition := "height"
		if filter.Range.Unit == Epoch {
			condition = "epoch"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	for i, c := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if c.Kind != nil {
			args = append(args, string(*c.Kind))
			stmt += " AND kind = ?"
		}
		if c.Account != nil {
			args = append(args, c.Account.Bytes())
			stmt += " AND account = ?"
		}
		if c.Peer != nil {
			args = append(args, c.Peer.Bytes())
			stmt += " AND peer = ?"
		}
		if c.Pool != nil {
			args = append(args, *c.Pool)
			stmt += " AND pool = ?"
		}
		if c.Commitment != nil {
			args = append(args, int64(*c.Commitment))
			stmt += " AND commitment = ?"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

// Count returns the number of stored events.
func (db *EventDB) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := db.db.QueryRowContext(ctx, "SELECT count(*) FROM event").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq        int64
			kind       string
			height     uint32
			epoch      uint32
			pool       uint32
			account    []byte
			peer       []byte
			commitment int64
			amount     []byte
		)
		if err := rows.Scan(
			&seq,
			&kind,
			&height,
			&epoch,
			&pool,
			&account,
			&peer,
			&commitment,
			&amount,
		); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Seq: uint64(seq),
			Event: ledger.Event{
				Kind:       ledger.EventKind(kind),
				Height:     height,
				Epoch:      capstake.Epoch(epoch),
				Pool:       pool,
				Account:    capstake.BytesToAddress(account),
				Peer:       capstake.BytesToAddress(peer),
				Commitment: uint64(commitment),
				Amount:     new(uint256.Int).SetBytes(amount),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "scan events")
	}
	return events, nil
}

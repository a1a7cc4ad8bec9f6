package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS account_groups (
	id          TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	budget_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	owner          TEXT NOT NULL,
	group_id       TEXT NOT NULL REFERENCES account_groups(id),
	name           TEXT NOT NULL,
	amount         TEXT NOT NULL,
	periodicity    TEXT NOT NULL,
	due_day        INTEGER,
	tolerance      TEXT NOT NULL,
	from_period    TEXT,
	through_period TEXT,
	months         TEXT NOT NULL DEFAULT '',
	linked_account TEXT,
	UNIQUE(owner, name)
);

CREATE TABLE IF NOT EXISTS periods (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	status     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_periods_owner_start ON periods(owner, start_date);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id                  TEXT PRIMARY KEY,
	owner               TEXT NOT NULL,
	date                TEXT NOT NULL,
	amount              TEXT NOT NULL,
	source              TEXT NOT NULL,
	destination         TEXT NOT NULL,
	kind                TEXT NOT NULL,
	reservation_source  TEXT,
	reservation_dest    TEXT,
	reservation_horizon TEXT,
	description         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_entries_owner_date ON ledger_entries(owner, date);

CREATE TABLE IF NOT EXISTS balance_snapshots (
	id                TEXT PRIMARY KEY,
	period            TEXT NOT NULL REFERENCES periods(id),
	account           TEXT NOT NULL,
	opening_balance   TEXT NOT NULL,
	opening_reserved  TEXT NOT NULL,
	opening_withdrawn TEXT NOT NULL,
	opening_arrears   TEXT NOT NULL,
	payment           TEXT NOT NULL,
	reservation       TEXT NOT NULL,
	withdrawal        TEXT NOT NULL,
	arrears_accrued   TEXT NOT NULL,
	correction        TEXT NOT NULL,
	UNIQUE(period, account)
);
`

const dateLayout = "2006-01-02"

// SQLite is a Store backed by a SQLite database. Monetary amounts are stored
// as decimal TEXT so no float rounding ever touches them.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and initializes if needed) a SQLite store. Use
// ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing decimal %q: %w", raw, err)
	}
	return d, nil
}

func scanDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", raw, err)
	}
	return t, nil
}

func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// AccountsFor returns the owner's accounts.
func (s *SQLite) AccountsFor(owner uuid.UUID) ([]model.Account, error) {
	rows, err := s.db.Query(`
		SELECT id, group_id, name, amount, periodicity, due_day, tolerance,
		       from_period, through_period, months, linked_account
		FROM accounts WHERE owner = ? ORDER BY name`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		var id, groupID, amount, tol, months string
		var dueDay sql.NullInt64
		var fromP, throughP, linked sql.NullString
		if err := rows.Scan(&id, &groupID, &a.Name, &amount, &a.Rule.Periodicity,
			&dueDay, &tol, &fromP, &throughP, &months, &linked); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Owner = owner
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing account id: %w", err)
		}
		if a.GroupID, err = uuid.Parse(groupID); err != nil {
			return nil, fmt.Errorf("parsing group id: %w", err)
		}
		if a.Rule.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if a.Rule.Tolerance, err = scanDecimal(tol); err != nil {
			return nil, err
		}
		if dueDay.Valid {
			d := int(dueDay.Int64)
			a.Rule.DueDay = &d
		}
		if a.FromPeriod, err = parseNullUUID(fromP); err != nil {
			return nil, err
		}
		if a.ThroughPeriod, err = parseNullUUID(throughP); err != nil {
			return nil, err
		}
		if a.LinkedAccount, err = parseNullUUID(linked); err != nil {
			return nil, err
		}
		if a.Months, err = parseMonths(months); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAccount inserts or replaces an account.
func (s *SQLite) SaveAccount(a model.Account) error {
	months := formatMonths(a.Months)
	var dueDay any
	if a.Rule.DueDay != nil {
		dueDay = *a.Rule.DueDay
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO accounts
		(id, owner, group_id, name, amount, periodicity, due_day, tolerance,
		 from_period, through_period, months, linked_account)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Owner.String(), a.GroupID.String(), a.Name,
		a.Rule.Amount.String(), string(a.Rule.Periodicity), dueDay,
		a.Rule.Tolerance.String(), nullUUID(a.FromPeriod),
		nullUUID(a.ThroughPeriod), months, nullUUID(a.LinkedAccount))
	if err != nil {
		return fmt.Errorf("saving account %s: %w", a.Name, err)
	}
	return nil
}

// GroupsFor returns the owner's account groups.
func (s *SQLite) GroupsFor(owner uuid.UUID) ([]model.AccountGroup, error) {
	rows, err := s.db.Query(`
		SELECT id, name, kind, budget_type FROM account_groups
		WHERE owner = ? ORDER BY name`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("querying account groups: %w", err)
	}
	defer rows.Close()

	var out []model.AccountGroup
	for rows.Next() {
		var (
			g  model.AccountGroup
			id string
		)
		if err := rows.Scan(&id, &g.Name, &g.Kind, &g.BudgetType); err != nil {
			return nil, fmt.Errorf("scanning account group: %w", err)
		}
		g.Owner = owner
		if g.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing group id: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveGroup inserts or replaces an account group.
func (s *SQLite) SaveGroup(g model.AccountGroup) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO account_groups (id, owner, name, kind, budget_type)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID.String(), g.Owner.String(), g.Name, string(g.Kind), string(g.BudgetType))
	if err != nil {
		return fmt.Errorf("saving account group %s: %w", g.Name, err)
	}
	return nil
}

// SaveEntry inserts or replaces a ledger entry.
func (s *SQLite) SaveEntry(e model.LedgerEntry) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO ledger_entries
		(id, owner, date, amount, source, destination, kind,
		 reservation_source, reservation_dest, reservation_horizon, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Owner.String(), e.Date.Format(dateLayout),
		e.Amount.String(), e.Source.String(), e.Destination.String(),
		string(e.Kind), nullUUID(e.ReservationSource),
		nullUUID(e.ReservationDestination), nullDate(e.ReservationHorizon),
		e.Description)
	if err != nil {
		return fmt.Errorf("saving ledger entry: %w", err)
	}
	return nil
}

// EntriesBetween returns entries in [from, to] ordered by date.
func (s *SQLite) EntriesBetween(owner uuid.UUID, from, to time.Time) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, amount, source, destination, kind,
		       reservation_source, reservation_dest, reservation_horizon, description
		FROM ledger_entries
		WHERE owner = ? AND date >= ? AND date <= ?
		ORDER BY date`, owner.String(), from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	var out []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var id, date, amount, src, dst string
		var resSrc, resDst, resHz sql.NullString
		if err := rows.Scan(&id, &date, &amount, &src, &dst, &e.Kind,
			&resSrc, &resDst, &resHz, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		e.Owner = owner
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing entry id: %w", err)
		}
		if e.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		if e.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		if e.Source, err = uuid.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing source id: %w", err)
		}
		if e.Destination, err = uuid.Parse(dst); err != nil {
			return nil, fmt.Errorf("parsing destination id: %w", err)
		}
		if e.ReservationSource, err = parseNullUUID(resSrc); err != nil {
			return nil, err
		}
		if e.ReservationDestination, err = parseNullUUID(resDst); err != nil {
			return nil, err
		}
		if resHz.Valid {
			t, err := scanDate(resHz.String)
			if err != nil {
				return nil, err
			}
			e.ReservationHorizon = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastPaymentDate returns the owner's most recent entry date, nil if none.
func (s *SQLite) LastPaymentDate(owner uuid.UUID) (*time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM ledger_entries WHERE owner = ?`,
		owner.String()).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("querying last payment date: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}
	t, err := scanDate(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MaxReservationHorizon returns the furthest reservation horizon, nil if none.
func (s *SQLite) MaxReservationHorizon(owner uuid.UUID) (*time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`
		SELECT MAX(reservation_horizon) FROM ledger_entries
		WHERE owner = ? AND reservation_horizon IS NOT NULL`,
		owner.String()).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("querying reservation horizon: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}
	t, err := scanDate(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteEntriesThrough purges the owner's entries dated at or before cutoff.
func (s *SQLite) DeleteEntriesThrough(owner uuid.UUID, cutoff time.Time) error {
	_, err := s.db.Exec(`DELETE FROM ledger_entries WHERE owner = ? AND date <= ?`,
		owner.String(), cutoff.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("purging ledger entries: %w", err)
	}
	return nil
}

// PeriodsFor returns the owner's periods ordered by start date.
func (s *SQLite) PeriodsFor(owner uuid.UUID) ([]model.Period, error) {
	rows, err := s.db.Query(`
		SELECT id, start_date, end_date, status FROM periods
		WHERE owner = ? ORDER BY start_date`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("querying periods: %w", err)
	}
	defer rows.Close()

	var out []model.Period
	for rows.Next() {
		var p model.Period
		var id, start, end string
		if err := rows.Scan(&id, &start, &end, &p.Status); err != nil {
			return nil, fmt.Errorf("scanning period: %w", err)
		}
		p.Owner = owner
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing period id: %w", err)
		}
		if p.Start, err = scanDate(start); err != nil {
			return nil, err
		}
		if p.End, err = scanDate(end); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// execer is the writing surface shared by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func savePeriod(e execer, p model.Period) error {
	_, err := e.Exec(`
		INSERT OR REPLACE INTO periods (id, owner, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.Owner.String(), p.Start.Format(dateLayout),
		p.End.Format(dateLayout), string(p.Status))
	if err != nil {
		return fmt.Errorf("saving period: %w", err)
	}
	return nil
}

// SavePeriod inserts or updates a period. Runs as an immediate transaction so
// concurrent lifecycle changes for the same owner serialize at the database.
func (s *SQLite) SavePeriod(p model.Period) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := savePeriod(tx, p); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Owners returns every owner that has at least one account or period.
func (s *SQLite) Owners() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`
		SELECT owner FROM accounts
		UNION
		SELECT owner FROM periods
		ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("querying owners: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing owner id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SnapshotsFor returns the period's balance snapshots.
func (s *SQLite) SnapshotsFor(period uuid.UUID) ([]model.BalanceSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, account, opening_balance, opening_reserved, opening_withdrawn,
		       opening_arrears, payment, reservation, withdrawal, arrears_accrued,
		       correction
		FROM balance_snapshots WHERE period = ? ORDER BY account`, period.String())
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.BalanceSnapshot
	for rows.Next() {
		var snap model.BalanceSnapshot
		var id, account string
		var cols [9]string
		if err := rows.Scan(&id, &account, &cols[0], &cols[1], &cols[2], &cols[3],
			&cols[4], &cols[5], &cols[6], &cols[7], &cols[8]); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.Period = period
		if snap.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing snapshot id: %w", err)
		}
		if snap.Account, err = uuid.Parse(account); err != nil {
			return nil, fmt.Errorf("parsing snapshot account id: %w", err)
		}
		fields := []*decimal.Decimal{
			&snap.OpeningBalance, &snap.OpeningReserved, &snap.OpeningWithdrawn,
			&snap.OpeningArrears, &snap.Payment, &snap.Reservation,
			&snap.Withdrawal, &snap.ArrearsAccrued, &snap.Correction,
		}
		for i, f := range fields {
			if *f, err = scanDecimal(cols[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func saveSnapshot(e execer, snap model.BalanceSnapshot) error {
	_, err := e.Exec(`
		INSERT OR REPLACE INTO balance_snapshots
		(id, period, account, opening_balance, opening_reserved, opening_withdrawn,
		 opening_arrears, payment, reservation, withdrawal, arrears_accrued, correction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID.String(), snap.Period.String(), snap.Account.String(),
		snap.OpeningBalance.String(), snap.OpeningReserved.String(),
		snap.OpeningWithdrawn.String(), snap.OpeningArrears.String(),
		snap.Payment.String(), snap.Reservation.String(), snap.Withdrawal.String(),
		snap.ArrearsAccrued.String(), snap.Correction.String())
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot inserts or updates a snapshot.
func (s *SQLite) SaveSnapshot(snap model.BalanceSnapshot) error {
	return saveSnapshot(s.db, snap)
}

// ClosePeriod writes the period status and every snapshot in one immediate
// transaction. When any write fails the whole batch rolls back and the
// period keeps its previous status.
func (s *SQLite) ClosePeriod(p model.Period, snapshots []model.BalanceSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := savePeriod(tx, p); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, snap := range snapshots {
		if err := saveSnapshot(tx, snap); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReopenPeriod writes the period status and drops its snapshots in one
// immediate transaction.
func (s *SQLite) ReopenPeriod(p model.Period) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM balance_snapshots WHERE period = ?`, p.ID.String()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("deleting snapshots: %w", err)
	}
	if err := savePeriod(tx, p); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteSnapshotsFor removes every snapshot of the period.
func (s *SQLite) DeleteSnapshotsFor(period uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM balance_snapshots WHERE period = ?`, period.String()); err != nil {
		return fmt.Errorf("deleting snapshots: %w", err)
	}
	return nil
}

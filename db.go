package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS triage_history (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		complaint         TEXT NOT NULL,
		status            TEXT NOT NULL,
		priority          TEXT DEFAULT '',
		category          TEXT DEFAULT '',
		escalation_status TEXT DEFAULT '',
		model             TEXT DEFAULT '',
		created_at        DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_th_created_at ON triage_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_th_priority ON triage_history(priority);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func InsertTicket(db *sql.DB, title string) (Ticket, error) {
	now := time.Now()
	res, err := db.Exec(`INSERT INTO tickets (title, created_at) VALUES (?, ?)`, title, now)
	if err != nil {
		return Ticket{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Ticket{}, err
	}
	return Ticket{ID: id, Title: title, CreatedAt: now}, nil
}

func ListTickets(db *sql.DB) ([]Ticket, error) {
	rows, err := db.Query(`SELECT id, title, created_at FROM tickets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// RecordTriage appends one row to the audit trail. Every pipeline outcome is
// recorded, including duplicates and failed escalations.
func RecordTriage(db *sql.DB, rec TriageRecord) error {
	_, err := db.Exec(
		`INSERT INTO triage_history (complaint, status, priority, category, escalation_status, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Complaint, string(rec.Status), string(rec.Priority), string(rec.Category),
		rec.EscalationStatus, rec.Model, time.Now(),
	)
	return err
}

// CountEscalationsSince returns how many high-priority complaints were
// recorded after the cutoff, and how many of those failed to escalate.
func CountEscalationsSince(db *sql.DB, since time.Time) (total, failed int, err error) {
	err = db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN escalation_status = ? THEN 1 ELSE 0 END), 0)
		 FROM triage_history WHERE priority = ? AND created_at >= ?`,
		escalationFailed, string(PriorityHigh), since,
	).Scan(&total, &failed)
	return total, failed, err
}

package linkdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Endpoint is one end of a link.
type Endpoint struct {
	DocumentID string `json:"documentId"`
	NodeID     string `json:"nodeId"`
}

// Link is a recorded link between two nodes
type Link struct {
	ID        int64     `json:"id"`
	Source    Endpoint  `json:"source"`
	Target    Endpoint  `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddLink records a link. Adding an existing link is a no-op and reports
// false.
func (db *DB) AddLink(ctx context.Context, source, target Endpoint) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO links (source_document, source_node, target_document, target_node)
		VALUES (?, ?, ?, ?)
	`, source.DocumentID, source.NodeID, target.DocumentID, target.NodeID)
	if err != nil {
		return false, fmt.Errorf("inserting link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting link: %w", err)
	}
	return n > 0, nil
}

// HasLink reports whether a link from source to target exists.
func (db *DB) HasLink(ctx context.Context, source, target Endpoint) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `
		SELECT 1 FROM links
		WHERE source_document = ? AND source_node = ? AND target_document = ? AND target_node = ?
	`, source.DocumentID, source.NodeID, target.DocumentID, target.NodeID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying link: %w", err)
	}
	return true, nil
}

// LinksTo returns the links pointing at target, oldest first.
func (db *DB) LinksTo(ctx context.Context, target Endpoint) ([]Link, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source_document, source_node, target_document, target_node, created_at
		FROM links
		WHERE target_document = ? AND target_node = ?
		ORDER BY id
	`, target.DocumentID, target.NodeID)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	return scanLinks(rows)
}

// List returns every link, oldest first.
func (db *DB) List(ctx context.Context) ([]Link, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source_document, source_node, target_document, target_node, created_at
		FROM links
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	return scanLinks(rows)
}

func scanLinks(rows *sql.Rows) ([]Link, error) {
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(
			&l.ID,
			&l.Source.DocumentID, &l.Source.NodeID,
			&l.Target.DocumentID, &l.Target.NodeID,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

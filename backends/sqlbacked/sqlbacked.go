// Package sqlbacked is a SQL-backed recordcache.RecordAccessor
// reference implementation: records and inverse back-refs
// are persisted as JSON blobs in two generic tables, so the same schema
// works unmodified across sqlite, postgres, and mysql. It is meant as a
// durable alternative to backends/memory, not a query-pushdown layer —
// every recordcache read still goes through Go-side filtering.
package sqlbacked

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/satishbabariya/recordcache/internal/rlog"
	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

func driverFor(provider string) string {
	switch provider {
	case "postgres", "postgresql":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// Accessor is a recordcache.RecordAccessor backed by two tables:
// recordcache_records(model_type, id, data), whose data column holds the
// record's keys/attributes/relationships as JSON, and
// recordcache_backrefs(model_type, id, owner_type, owner_id,
// relationship).
type Accessor struct {
	db       *sql.DB
	provider string
}

// Open connects to provider/dsn and ensures the backing tables exist.
func Open(provider, dsn string) (*Accessor, error) {
	driver := driverFor(provider)
	if driver == "" {
		return nil, fmt.Errorf("sqlbacked: unsupported provider %q", provider)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlbacked: open: %w", err)
	}
	a := &Accessor{db: db, provider: provider}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Accessor) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recordcache_records (
			model_type TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (model_type, id)
		)`,
		`CREATE TABLE IF NOT EXISTS recordcache_backrefs (
			model_type TEXT NOT NULL,
			id TEXT NOT NULL,
			owner_type TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			relationship TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlbacked: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (a *Accessor) Close() error { return a.db.Close() }

// q rewrites a "?"-placeholder query into postgres's "$n" dialect when
// needed; sqlite3 and mysql both accept "?" directly.
func (a *Accessor) q(query string) string {
	if a.provider != "postgres" && a.provider != "postgresql" {
		return query
	}
	n := 0
	out := make([]byte, 0, len(query)+8)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, []byte(fmt.Sprintf("$%d", n))...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

type wireRecord struct {
	Keys          map[string]string                     `json:"keys,omitempty"`
	Attributes    map[string]any                         `json:"attributes,omitempty"`
	Relationships map[string]recordcache.RelationshipValue `json:"relationships,omitempty"`
}

func encodeRecord(r recordcache.Record) (string, error) {
	wr := wireRecord{Keys: r.Keys, Attributes: r.Attributes, Relationships: r.Relationships}
	data, err := json.Marshal(wr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRecord(id recordcache.Identity, data string) (recordcache.Record, error) {
	var wr wireRecord
	if err := json.Unmarshal([]byte(data), &wr); err != nil {
		return recordcache.Record{}, err
	}
	return recordcache.Record{
		Identity:      id,
		Keys:          wr.Keys,
		Attributes:    wr.Attributes,
		Relationships: wr.Relationships,
	}, nil
}

// GetRecord implements recordcache.RecordAccessor.
func (a *Accessor) GetRecord(id recordcache.Identity) (recordcache.Record, bool) {
	var data string
	err := a.db.QueryRow(
		a.q(`SELECT data FROM recordcache_records WHERE model_type = ? AND id = ?`),
		id.Type, id.ID,
	).Scan(&data)
	if err != nil {
		return recordcache.Record{}, false
	}
	r, err := decodeRecord(id, data)
	if err != nil {
		rlog.Error("sqlbacked: decode failed", "type", id.Type, "id", id.ID, "err", err)
		return recordcache.Record{}, false
	}
	return r, true
}

// GetRecords implements recordcache.RecordAccessor.
func (a *Accessor) GetRecords(modelType string) []recordcache.Record {
	rows, err := a.db.Query(a.q(`SELECT id, data FROM recordcache_records WHERE model_type = ?`), modelType)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []recordcache.Record
	for rows.Next() {
		var rid, data string
		if err := rows.Scan(&rid, &data); err != nil {
			continue
		}
		r, err := decodeRecord(recordcache.Identity{Type: modelType, ID: rid}, data)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SetRecord implements recordcache.RecordAccessor.
func (a *Accessor) SetRecord(r recordcache.Record) {
	data, err := encodeRecord(r)
	if err != nil {
		rlog.Error("sqlbacked: encode failed", "type", r.Type, "id", r.ID, "err", err)
		return
	}
	_, err = a.db.Exec(
		upsertSQL(a.provider),
		r.Type, r.ID, data,
	)
	if err != nil {
		rlog.Error("sqlbacked: upsert failed", "type", r.Type, "id", r.ID, "err", err)
	}
}

func upsertSQL(provider string) string {
	switch provider {
	case "postgres", "postgresql":
		return `INSERT INTO recordcache_records (model_type, id, data) VALUES ($1, $2, $3)
			ON CONFLICT (model_type, id) DO UPDATE SET data = EXCLUDED.data`
	default:
		return `INSERT INTO recordcache_records (model_type, id, data) VALUES (?, ?, ?)
			ON CONFLICT (model_type, id) DO UPDATE SET data = excluded.data`
	}
}

// SetRecords implements recordcache.RecordAccessor.
func (a *Accessor) SetRecords(modelType string, records []recordcache.Record) {
	for _, r := range records {
		a.SetRecord(r)
	}
}

// RemoveRecord implements recordcache.RecordAccessor.
func (a *Accessor) RemoveRecord(id recordcache.Identity) (recordcache.Record, bool) {
	r, ok := a.GetRecord(id)
	if !ok {
		return recordcache.Record{}, false
	}
	a.db.Exec(a.q(`DELETE FROM recordcache_records WHERE model_type = ? AND id = ?`), id.Type, id.ID)
	return r, true
}

// RemoveRecords implements recordcache.RecordAccessor.
func (a *Accessor) RemoveRecords(modelType string, ids []string) []recordcache.Record {
	var out []recordcache.Record
	for _, rid := range ids {
		if r, ok := a.RemoveRecord(recordcache.Identity{Type: modelType, ID: rid}); ok {
			out = append(out, r)
		}
	}
	return out
}

// GetInverselyRelatedRecords implements recordcache.RecordAccessor.
func (a *Accessor) GetInverselyRelatedRecords(id recordcache.Identity) []recordcache.BackRef {
	rows, err := a.db.Query(
		a.q(`SELECT owner_type, owner_id, relationship FROM recordcache_backrefs WHERE model_type = ? AND id = ?`),
		id.Type, id.ID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []recordcache.BackRef
	for rows.Next() {
		var ownerType, ownerID, rel string
		if err := rows.Scan(&ownerType, &ownerID, &rel); err != nil {
			continue
		}
		out = append(out, recordcache.BackRef{
			Owner:        recordcache.Identity{Type: ownerType, ID: ownerID},
			Relationship: rel,
		})
	}
	return out
}

// AddInverselyRelatedRecord implements recordcache.RecordAccessor.
func (a *Accessor) AddInverselyRelatedRecord(id recordcache.Identity, ref recordcache.BackRef) {
	a.db.Exec(
		a.q(`INSERT INTO recordcache_backrefs (model_type, id, owner_type, owner_id, relationship) VALUES (?, ?, ?, ?, ?)`),
		id.Type, id.ID, ref.Owner.Type, ref.Owner.ID, ref.Relationship,
	)
}

// RemoveInverselyRelatedRecord implements recordcache.RecordAccessor.
func (a *Accessor) RemoveInverselyRelatedRecord(id recordcache.Identity, ref recordcache.BackRef) {
	a.db.Exec(
		a.q(`DELETE FROM recordcache_backrefs WHERE model_type = ? AND id = ? AND owner_type = ? AND owner_id = ? AND relationship = ?`),
		id.Type, id.ID, ref.Owner.Type, ref.Owner.ID, ref.Relationship,
	)
}

// RemoveInverseRelationships implements recordcache.RecordAccessor.
func (a *Accessor) RemoveInverseRelationships(id recordcache.Identity) {
	a.db.Exec(a.q(`DELETE FROM recordcache_backrefs WHERE model_type = ? AND id = ?`), id.Type, id.ID)
}

// Package opindex is the operational index sidecar: a small,
// rebuildable SQLite row store used by the driver layer for incremental
// sync bookkeeping and attachment download tracking. It is never consulted
// by the query engine, only by the pipeline driver, and holds no
// information that cannot be recomputed by rescanning the columnar store.
package opindex

import (
	"database/sql"
	"path/filepath"

	_ "modernc.org/sqlite"

	archerrors "github.com/Aman-CERP/archive/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	provider_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	last_seen_updated_at_ms INTEGER NOT NULL,
	synced_at_ms INTEGER NOT NULL,
	PRIMARY KEY (provider_id, conversation_id)
);

CREATE TABLE IF NOT EXISTS attachment_state (
	attachment_id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	downloaded INTEGER NOT NULL DEFAULT 0,
	local_path TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT ''
);
`

// Index wraps the sidecar database connection.
type Index struct {
	db *sql.DB
}

// Open opens (creating if absent) the sidecar database at path and applies
// its schema. The caller owns the returned Index and must call Close.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, archerrors.PersistError("opindex_open_failed", err.Error(), err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, archerrors.PersistError("opindex_schema_failed", err.Error(), err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// SyncState is one row of incremental-sync bookkeeping for a conversation.
type SyncState struct {
	ProviderID          string
	ConversationID      string
	LastSeenUpdatedAtMs int64
	SyncedAtMs          int64
}

// UpsertSyncState records that a conversation was synced, for "new-only"
// incremental sync.
func (idx *Index) UpsertSyncState(s SyncState) error {
	_, err := idx.db.Exec(`
		INSERT INTO sync_state (provider_id, conversation_id, last_seen_updated_at_ms, synced_at_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(provider_id, conversation_id) DO UPDATE SET
			last_seen_updated_at_ms = excluded.last_seen_updated_at_ms,
			synced_at_ms = excluded.synced_at_ms
	`, s.ProviderID, s.ConversationID, s.LastSeenUpdatedAtMs, s.SyncedAtMs)
	if err != nil {
		return archerrors.PersistError("opindex_upsert_sync_state_failed", err.Error(), err)
	}
	return nil
}

// GetSyncState returns the bookkeeping row for one conversation, or
// (SyncState{}, false, nil) if there is none yet.
func (idx *Index) GetSyncState(providerID, conversationID string) (SyncState, bool, error) {
	row := idx.db.QueryRow(`
		SELECT provider_id, conversation_id, last_seen_updated_at_ms, synced_at_ms
		FROM sync_state WHERE provider_id = ? AND conversation_id = ?
	`, providerID, conversationID)

	var s SyncState
	if err := row.Scan(&s.ProviderID, &s.ConversationID, &s.LastSeenUpdatedAtMs, &s.SyncedAtMs); err != nil {
		if err == sql.ErrNoRows {
			return SyncState{}, false, nil
		}
		return SyncState{}, false, archerrors.PersistError("opindex_get_sync_state_failed", err.Error(), err)
	}
	return s, true, nil
}

// NeedsSync reports whether a conversation with the given provider-reported
// updated_at (ms) has not yet been synced, or has changed since its last sync.
func (idx *Index) NeedsSync(providerID, conversationID string, updatedAtMs int64) (bool, error) {
	state, found, err := idx.GetSyncState(providerID, conversationID)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return updatedAtMs > state.LastSeenUpdatedAtMs, nil
}

// AttachmentState is one row of per-attachment download progress.
type AttachmentState struct {
	AttachmentID string
	MessageID    string
	Downloaded   bool
	LocalPath    string
	Error        string
}

// UpsertAttachmentState records the outcome of one attachment download
// attempt, so stage 2 can be safely re-run.
func (idx *Index) UpsertAttachmentState(s AttachmentState) error {
	downloaded := 0
	if s.Downloaded {
		downloaded = 1
	}
	_, err := idx.db.Exec(`
		INSERT INTO attachment_state (attachment_id, message_id, downloaded, local_path, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(attachment_id) DO UPDATE SET
			message_id = excluded.message_id,
			downloaded = excluded.downloaded,
			local_path = excluded.local_path,
			error = excluded.error
	`, s.AttachmentID, s.MessageID, downloaded, s.LocalPath, s.Error)
	if err != nil {
		return archerrors.PersistError("opindex_upsert_attachment_state_failed", err.Error(), err)
	}
	return nil
}

// GetAttachmentState returns the progress row for one attachment, or
// (AttachmentState{}, false, nil) if there is none yet.
func (idx *Index) GetAttachmentState(attachmentID string) (AttachmentState, bool, error) {
	row := idx.db.QueryRow(`
		SELECT attachment_id, message_id, downloaded, local_path, error
		FROM attachment_state WHERE attachment_id = ?
	`, attachmentID)

	var s AttachmentState
	var downloaded int
	if err := row.Scan(&s.AttachmentID, &s.MessageID, &downloaded, &s.LocalPath, &s.Error); err != nil {
		if err == sql.ErrNoRows {
			return AttachmentState{}, false, nil
		}
		return AttachmentState{}, false, archerrors.PersistError("opindex_get_attachment_state_failed", err.Error(), err)
	}
	s.Downloaded = downloaded != 0
	return s, true, nil
}

// Reset drops and recreates the schema, discarding all rows. Used before a
// full rebuild from the columnar store.
func (idx *Index) Reset() error {
	if _, err := idx.db.Exec(`DROP TABLE IF EXISTS sync_state; DROP TABLE IF EXISTS attachment_state;`); err != nil {
		return archerrors.PersistError("opindex_reset_failed", err.Error(), err)
	}
	if _, err := idx.db.Exec(schema); err != nil {
		return archerrors.PersistError("opindex_reset_schema_failed", err.Error(), err)
	}
	return nil
}

// Path mirrors the on-disk layout: <data_dir>/index.db.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "index.db")
}

//go:build !wasm

package store

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/praetorian-inc/scanforge/pkg/types"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO blobs (id, size) VALUES (?, ?)", id.Hex(), size)
	return err
}

func (s *SQLiteStore) AddRule(r *types.Rule) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO rules (id, name, pattern, structural_id) VALUES (?, ?, ?, ?)",
		r.ID, r.Name, r.Pattern, r.StructuralID)
	return err
}

func (s *SQLiteStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM blobs WHERE id = ?", id.Hex()).Scan(&count)
	return count > 0, err
}

// AddMatch persists one Match row. A Match is already expanded to one row
// per participating capture group (group_index, match_content), so unlike
// the raw hyperscan/regexp hit it represents, no further fan-out happens here.
func (s *SQLiteStore) AddMatch(m *types.Match) error {
	groupsJSON, err := serializeGroups(m.Groups)
	if err != nil {
		return fmt.Errorf("serializing groups: %w", err)
	}

	var namedGroupsJSON sql.NullString
	if len(m.NamedGroups) > 0 {
		encoded := make(map[string]string, len(m.NamedGroups))
		for k, v := range m.NamedGroups {
			encoded[k] = base64.StdEncoding.EncodeToString(v)
		}
		data, err := json.Marshal(encoded)
		if err != nil {
			return fmt.Errorf("serializing named groups: %w", err)
		}
		namedGroupsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var matchContent []byte
	if m.MatchContent != nil {
		matchContent = m.MatchContent
	}

	var startLine, startColumn, endLine, endColumn sql.NullInt64
	if m.Location.Source.Start.Line != 0 {
		startLine = sql.NullInt64{Int64: int64(m.Location.Source.Start.Line), Valid: true}
	}
	if m.Location.Source.Start.Column != 0 {
		startColumn = sql.NullInt64{Int64: int64(m.Location.Source.Start.Column), Valid: true}
	}
	if m.Location.Source.End.Line != 0 {
		endLine = sql.NullInt64{Int64: int64(m.Location.Source.End.Line), Valid: true}
	}
	if m.Location.Source.End.Column != 0 {
		endColumn = sql.NullInt64{Int64: int64(m.Location.Source.End.Column), Valid: true}
	}

	var findingID sql.NullString
	if m.FindingID != "" {
		findingID = sql.NullString{String: m.FindingID, Valid: true}
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO matches (
		blob_id, rule_id, structural_id, finding_id, offset_start, offset_end,
		group_index, match_content, named_groups_json,
		snippet_before, snippet_matching, snippet_after, groups_json,
		start_line, start_column, end_line, end_column
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.BlobID.Hex(), m.RuleID, m.StructuralID, findingID, m.Location.Offset.Start, m.Location.Offset.End,
		m.GroupIndex, matchContent, namedGroupsJSON,
		m.Snippet.Before, m.Snippet.Matching, m.Snippet.After, groupsJSON,
		startLine, startColumn, endLine, endColumn)
	return err
}

func (s *SQLiteStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	rows, err := s.db.Query(matchColumns+" FROM matches WHERE blob_id = ?", blobID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *SQLiteStore) GetAllMatches() ([]*types.Match, error) {
	rows, err := s.db.Query(matchColumns + " FROM matches")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

const matchColumns = `SELECT blob_id, rule_id, structural_id, finding_id, offset_start, offset_end,
	group_index, match_content, named_groups_json,
	snippet_before, snippet_matching, snippet_after, groups_json,
	start_line, start_column, end_line, end_column`

func (s *SQLiteStore) AddFinding(f *types.Finding) error {
	groupsJSON, err := serializeGroups(f.Groups)
	if err != nil {
		return fmt.Errorf("serializing groups: %w", err)
	}
	_, err = s.db.Exec("INSERT OR IGNORE INTO findings (structural_id, rule_id, groups_json) VALUES (?, ?, ?)", f.ID, f.RuleID, groupsJSON)
	return err
}

func (s *SQLiteStore) GetFindings() ([]*types.Finding, error) {
	rows, err := s.db.Query("SELECT structural_id, rule_id, groups_json FROM findings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*types.Finding
	for rows.Next() {
		var f types.Finding
		var groupsJSON sql.NullString
		if err := rows.Scan(&f.ID, &f.RuleID, &groupsJSON); err != nil {
			return nil, err
		}
		if groupsJSON.Valid {
			f.Groups, _ = deserializeGroups(groupsJSON.String)
		}
		result = append(result, &f)
	}
	if result == nil {
		return []*types.Finding{}, nil
	}
	return result, rows.Err()
}

func (s *SQLiteStore) FindingExists(structuralID string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM findings WHERE structural_id = ?", structuralID).Scan(&count)
	return count > 0, err
}

// AddProvenance records one provenance entry for a blob. Git provenance is
// always first-seen: the enumerator only calls this for a (blob, commit)
// pair discovered via pkg/gitgraph's first-introduction computation, never
// for later sightings of an already-introduced blob.
func (s *SQLiteStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	var provType, path, repoPath, commitHash, commitAuthor, commitDate string
	var firstSeen bool
	switch p := prov.(type) {
	case types.FileProvenance:
		provType, path = "file", p.FilePath
	case types.GitProvenance:
		provType, path, repoPath = "git", p.BlobPath, p.RepoPath
		if p.Commit != nil {
			commitHash = p.Commit.CommitID
			commitAuthor = p.Commit.AuthorName
			if !p.Commit.AuthorTimestamp.IsZero() {
				commitDate = p.Commit.AuthorTimestamp.Format(time.RFC3339)
			}
			firstSeen = true
		}
	case types.ExtendedProvenance:
		provType = "extended"
		payloadJSON, _ := json.Marshal(p.Payload)
		path = string(payloadJSON)
	default:
		return fmt.Errorf("unknown provenance type: %T", prov)
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO provenance
		(blob_id, type, path, repo_path, commit_hash, commit_author, commit_date, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		blobID.Hex(), provType, path, repoPath, commitHash, commitAuthor, commitDate, firstSeen)
	return err
}

func (s *SQLiteStore) GetAllProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	rows, err := s.db.Query("SELECT type, path, repo_path, commit_hash, commit_author, commit_date FROM provenance WHERE blob_id = ?", blobID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []types.Provenance
	for rows.Next() {
		var provType string
		var path, repoPath, commitHash, commitAuthor, commitDate sql.NullString
		if err := rows.Scan(&provType, &path, &repoPath, &commitHash, &commitAuthor, &commitDate); err != nil {
			return nil, err
		}
		switch provType {
		case "file":
			result = append(result, types.FileProvenance{FilePath: path.String})
		case "git":
			prov := types.GitProvenance{RepoPath: repoPath.String, BlobPath: path.String}
			if commitHash.Valid && commitHash.String != "" {
				meta := &types.CommitMetadata{CommitID: commitHash.String, AuthorName: commitAuthor.String}
				if commitDate.Valid && commitDate.String != "" {
					meta.AuthorTimestamp, _ = time.Parse(time.RFC3339, commitDate.String)
				}
				prov.Commit = meta
			}
			result = append(result, prov)
		case "extended":
			var payload map[string]interface{}
			if path.Valid {
				json.Unmarshal([]byte(path.String), &payload)
			}
			result = append(result, types.ExtendedProvenance{Payload: payload})
		}
	}
	if result == nil {
		return []types.Provenance{}, nil
	}
	return result, rows.Err()
}

func (s *SQLiteStore) GetProvenance(blobID types.BlobID) (types.Provenance, error) {
	provs, err := s.GetAllProvenance(blobID)
	if err != nil {
		return nil, err
	}
	if len(provs) == 0 {
		return nil, fmt.Errorf("no provenance found for blob %s", blobID.Hex())
	}
	return provs[0], nil
}

// SetAnnotation upserts the triage status and comment for a finding or match.
func (s *SQLiteStore) SetAnnotation(kind, subjectID, status, comment string) error {
	_, err := s.db.Exec(`
		INSERT INTO annotations (kind, subject_id, status, comment) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, subject_id) DO UPDATE SET status = excluded.status, comment = excluded.comment
	`, kind, subjectID, status, comment)
	return err
}

// GetAnnotation returns the stored status and comment for a finding or
// match, or two empty strings if none has been recorded.
func (s *SQLiteStore) GetAnnotation(kind, subjectID string) (status, comment string, err error) {
	err = s.db.QueryRow("SELECT status, comment FROM annotations WHERE kind = ? AND subject_id = ?", kind, subjectID).Scan(&status, &comment)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	return status, comment, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMatches(rows *sql.Rows) ([]*types.Match, error) {
	var result []*types.Match
	for rows.Next() {
		var m types.Match
		var blobIDHex string
		var findingID sql.NullString
		var groupsJSON, namedGroupsJSON sql.NullString
		var matchContent, snippetBefore, snippetMatching, snippetAfter []byte
		var startLine, startColumn, endLine, endColumn sql.NullInt64
		err := rows.Scan(&blobIDHex, &m.RuleID, &m.StructuralID, &findingID, &m.Location.Offset.Start, &m.Location.Offset.End,
			&m.GroupIndex, &matchContent, &namedGroupsJSON,
			&snippetBefore, &snippetMatching, &snippetAfter, &groupsJSON,
			&startLine, &startColumn, &endLine, &endColumn)
		if err != nil {
			return nil, err
		}
		m.BlobID, _ = types.ParseBlobID(blobIDHex)
		m.FindingID = findingID.String
		m.MatchContent = matchContent
		m.Snippet = types.Snippet{Before: snippetBefore, Matching: snippetMatching, After: snippetAfter}
		if groupsJSON.Valid {
			m.Groups, _ = deserializeGroups(groupsJSON.String)
		}
		if namedGroupsJSON.Valid {
			var encoded map[string]string
			if err := json.Unmarshal([]byte(namedGroupsJSON.String), &encoded); err == nil {
				m.NamedGroups = make(map[string][]byte, len(encoded))
				for k, v := range encoded {
					m.NamedGroups[k], _ = base64.StdEncoding.DecodeString(v)
				}
			}
		}
		if startLine.Valid {
			m.Location.Source.Start.Line = int(startLine.Int64)
		}
		if startColumn.Valid {
			m.Location.Source.Start.Column = int(startColumn.Int64)
		}
		if endLine.Valid {
			m.Location.Source.End.Line = int(endLine.Int64)
		}
		if endColumn.Valid {
			m.Location.Source.End.Column = int(endColumn.Int64)
		}
		result = append(result, &m)
	}
	if result == nil {
		return []*types.Match{}, nil
	}
	return result, rows.Err()
}

func serializeGroups(groups [][]byte) (string, error) {
	if groups == nil {
		return "null", nil
	}
	encoded := make([]string, len(groups))
	for i, g := range groups {
		encoded[i] = base64.StdEncoding.EncodeToString(g)
	}
	data, _ := json.Marshal(encoded)
	return string(data), nil
}

func deserializeGroups(data string) ([][]byte, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var encoded []string
	if err := json.Unmarshal([]byte(data), &encoded); err != nil {
		return nil, err
	}
	result := make([][]byte, len(encoded))
	for i, e := range encoded {
		result[i], _ = base64.StdEncoding.DecodeString(e)
	}
	return result, nil
}

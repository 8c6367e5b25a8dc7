//go:build !wasm

package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// PostgresStore implements Store over a shared Postgres database, for
// report/serve read paths against a datastore too large or too
// concurrently-read for a single SQLite file. Schema mirrors
// CreateSchema's SQLite tables column-for-column; pgx is pure Go, so this
// backend is available on both CGO and non-CGO builds, unlike SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn (a postgres:// connection string) and ensures
// the schema exists.
func NewPostgres(dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := createPostgresSchema(context.Background(), pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func createPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blobs (
			id TEXT PRIMARY KEY,
			size BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			structural_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			rule_id TEXT NOT NULL REFERENCES rules(id),
			structural_id TEXT NOT NULL UNIQUE,
			finding_id TEXT,
			offset_start BIGINT NOT NULL,
			offset_end BIGINT NOT NULL,
			group_index INTEGER NOT NULL DEFAULT 0,
			match_content BYTEA,
			named_groups_json TEXT,
			snippet_before BYTEA,
			snippet_matching BYTEA,
			snippet_after BYTEA,
			groups_json TEXT,
			start_line INTEGER,
			start_column INTEGER,
			end_line INTEGER,
			end_column INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_finding_id ON matches(finding_id)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id BIGSERIAL PRIMARY KEY,
			structural_id TEXT NOT NULL UNIQUE,
			rule_id TEXT NOT NULL,
			groups_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS provenance (
			id BIGSERIAL PRIMARY KEY,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			type TEXT NOT NULL,
			path TEXT,
			repo_path TEXT,
			commit_hash TEXT,
			commit_author TEXT,
			commit_date TEXT,
			first_seen BOOLEAN NOT NULL DEFAULT false,
			UNIQUE(blob_id, type, path, repo_path, commit_hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provenance_blob_id ON provenance(blob_id)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			kind TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (kind, subject_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.pool.Exec(context.Background(),
		"INSERT INTO blobs (id, size) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", id.Hex(), size)
	return err
}

func (s *PostgresStore) AddRule(r *types.Rule) error {
	_, err := s.pool.Exec(context.Background(),
		"INSERT INTO rules (id, name, pattern, structural_id) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING",
		r.ID, r.Name, r.Pattern, r.StructuralID)
	return err
}

func (s *PostgresStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM blobs WHERE id = $1", id.Hex()).Scan(&count)
	return count > 0, err
}

func (s *PostgresStore) AddMatch(m *types.Match) error {
	groupsJSON, err := serializeGroups(m.Groups)
	if err != nil {
		return fmt.Errorf("serializing groups: %w", err)
	}

	var namedGroupsJSON *string
	if len(m.NamedGroups) > 0 {
		encoded := make(map[string]string, len(m.NamedGroups))
		for k, v := range m.NamedGroups {
			encoded[k] = base64.StdEncoding.EncodeToString(v)
		}
		data, err := json.Marshal(encoded)
		if err != nil {
			return fmt.Errorf("serializing named groups: %w", err)
		}
		s := string(data)
		namedGroupsJSON = &s
	}

	var findingID *string
	if m.FindingID != "" {
		findingID = &m.FindingID
	}

	var startLine, startColumn, endLine, endColumn *int
	if m.Location.Source.Start.Line != 0 {
		startLine = &m.Location.Source.Start.Line
	}
	if m.Location.Source.Start.Column != 0 {
		startColumn = &m.Location.Source.Start.Column
	}
	if m.Location.Source.End.Line != 0 {
		endLine = &m.Location.Source.End.Line
	}
	if m.Location.Source.End.Column != 0 {
		endColumn = &m.Location.Source.End.Column
	}

	_, err = s.pool.Exec(context.Background(), `INSERT INTO matches (
		blob_id, rule_id, structural_id, finding_id, offset_start, offset_end,
		group_index, match_content, named_groups_json,
		snippet_before, snippet_matching, snippet_after, groups_json,
		start_line, start_column, end_line, end_column
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (structural_id) DO NOTHING`,
		m.BlobID.Hex(), m.RuleID, m.StructuralID, findingID, m.Location.Offset.Start, m.Location.Offset.End,
		m.GroupIndex, m.MatchContent, namedGroupsJSON,
		m.Snippet.Before, m.Snippet.Matching, m.Snippet.After, groupsJSON,
		startLine, startColumn, endLine, endColumn)
	return err
}

func (s *PostgresStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	rows, err := s.pool.Query(context.Background(), postgresMatchColumns+" FROM matches WHERE blob_id = $1", blobID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostgresMatches(rows)
}

func (s *PostgresStore) GetAllMatches() ([]*types.Match, error) {
	rows, err := s.pool.Query(context.Background(), postgresMatchColumns+" FROM matches")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostgresMatches(rows)
}

const postgresMatchColumns = `SELECT blob_id, rule_id, structural_id, finding_id, offset_start, offset_end,
	group_index, match_content, named_groups_json,
	snippet_before, snippet_matching, snippet_after, groups_json,
	start_line, start_column, end_line, end_column`

func (s *PostgresStore) AddFinding(f *types.Finding) error {
	groupsJSON, err := serializeGroups(f.Groups)
	if err != nil {
		return fmt.Errorf("serializing groups: %w", err)
	}
	_, err = s.pool.Exec(context.Background(),
		"INSERT INTO findings (structural_id, rule_id, groups_json) VALUES ($1, $2, $3) ON CONFLICT (structural_id) DO NOTHING",
		f.ID, f.RuleID, groupsJSON)
	return err
}

func (s *PostgresStore) GetFindings() ([]*types.Finding, error) {
	rows, err := s.pool.Query(context.Background(), "SELECT structural_id, rule_id, groups_json FROM findings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*types.Finding
	for rows.Next() {
		var f types.Finding
		var groupsJSON *string
		if err := rows.Scan(&f.ID, &f.RuleID, &groupsJSON); err != nil {
			return nil, err
		}
		if groupsJSON != nil {
			f.Groups, _ = deserializeGroups(*groupsJSON)
		}
		result = append(result, &f)
	}
	if result == nil {
		return []*types.Finding{}, nil
	}
	return result, rows.Err()
}

func (s *PostgresStore) FindingExists(structuralID string) (bool, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM findings WHERE structural_id = $1", structuralID).Scan(&count)
	return count > 0, err
}

func (s *PostgresStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
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
	_, err := s.pool.Exec(context.Background(), `INSERT INTO provenance
		(blob_id, type, path, repo_path, commit_hash, commit_author, commit_date, first_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (blob_id, type, path, repo_path, commit_hash) DO NOTHING`,
		blobID.Hex(), provType, path, repoPath, commitHash, commitAuthor, commitDate, firstSeen)
	return err
}

func (s *PostgresStore) GetAllProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	rows, err := s.pool.Query(context.Background(),
		"SELECT type, path, repo_path, commit_hash, commit_author, commit_date FROM provenance WHERE blob_id = $1", blobID.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []types.Provenance
	for rows.Next() {
		var provType string
		var path, repoPath, commitHash, commitAuthor, commitDate *string
		if err := rows.Scan(&provType, &path, &repoPath, &commitHash, &commitAuthor, &commitDate); err != nil {
			return nil, err
		}
		switch provType {
		case "file":
			result = append(result, types.FileProvenance{FilePath: deref(path)})
		case "git":
			prov := types.GitProvenance{RepoPath: deref(repoPath), BlobPath: deref(path)}
			if commitHash != nil && *commitHash != "" {
				meta := &types.CommitMetadata{CommitID: *commitHash, AuthorName: deref(commitAuthor)}
				if commitDate != nil && *commitDate != "" {
					meta.AuthorTimestamp, _ = time.Parse(time.RFC3339, *commitDate)
				}
				prov.Commit = meta
			}
			result = append(result, prov)
		case "extended":
			var payload map[string]interface{}
			if path != nil {
				json.Unmarshal([]byte(*path), &payload)
			}
			result = append(result, types.ExtendedProvenance{Payload: payload})
		}
	}
	if result == nil {
		return []types.Provenance{}, nil
	}
	return result, rows.Err()
}

func (s *PostgresStore) GetProvenance(blobID types.BlobID) (types.Provenance, error) {
	provs, err := s.GetAllProvenance(blobID)
	if err != nil {
		return nil, err
	}
	if len(provs) == 0 {
		return nil, fmt.Errorf("no provenance found for blob %s", blobID.Hex())
	}
	return provs[0], nil
}

func (s *PostgresStore) SetAnnotation(kind, subjectID, status, comment string) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO annotations (kind, subject_id, status, comment) VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, subject_id) DO UPDATE SET status = excluded.status, comment = excluded.comment
	`, kind, subjectID, status, comment)
	return err
}

func (s *PostgresStore) GetAnnotation(kind, subjectID string) (status, comment string, err error) {
	err = s.pool.QueryRow(context.Background(),
		"SELECT status, comment FROM annotations WHERE kind = $1 AND subject_id = $2", kind, subjectID).Scan(&status, &comment)
	if err == pgx.ErrNoRows {
		return "", "", nil
	}
	return status, comment, err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanPostgresMatches(rows pgx.Rows) ([]*types.Match, error) {
	var result []*types.Match
	for rows.Next() {
		var m types.Match
		var blobIDHex string
		var findingID *string
		var groupsJSON, namedGroupsJSON *string
		var matchContent, snippetBefore, snippetMatching, snippetAfter []byte
		var startLine, startColumn, endLine, endColumn *int
		err := rows.Scan(&blobIDHex, &m.RuleID, &m.StructuralID, &findingID, &m.Location.Offset.Start, &m.Location.Offset.End,
			&m.GroupIndex, &matchContent, &namedGroupsJSON,
			&snippetBefore, &snippetMatching, &snippetAfter, &groupsJSON,
			&startLine, &startColumn, &endLine, &endColumn)
		if err != nil {
			return nil, err
		}
		m.BlobID, _ = types.ParseBlobID(blobIDHex)
		m.FindingID = deref(findingID)
		m.MatchContent = matchContent
		m.Snippet = types.Snippet{Before: snippetBefore, Matching: snippetMatching, After: snippetAfter}
		if groupsJSON != nil {
			m.Groups, _ = deserializeGroups(*groupsJSON)
		}
		if namedGroupsJSON != nil {
			var encoded map[string]string
			if err := json.Unmarshal([]byte(*namedGroupsJSON), &encoded); err == nil {
				m.NamedGroups = make(map[string][]byte, len(encoded))
				for k, v := range encoded {
					m.NamedGroups[k], _ = base64.StdEncoding.DecodeString(v)
				}
			}
		}
		if startLine != nil {
			m.Location.Source.Start.Line = *startLine
		}
		if startColumn != nil {
			m.Location.Source.Start.Column = *startColumn
		}
		if endLine != nil {
			m.Location.Source.End.Line = *endLine
		}
		if endColumn != nil {
			m.Location.Source.End.Column = *endColumn
		}
		result = append(result, &m)
	}
	if result == nil {
		return []*types.Match{}, nil
	}
	return result, rows.Err()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bank persists parsed and generated questions in a SQLite
// database and exposes the queries the pipeline stages need: resumable
// generation, review, duplicate flagging, search, and export.
package bank

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// DBFile is the database filename under the data directory.
const DBFile = "question_bank.db"

// Store manages the question bank SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the question bank at dataDir/question_bank.db
// and bootstraps the schema.
func NewStore(cfg types.BankConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=15000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS source_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_text TEXT NOT NULL,
			options TEXT,
			answer TEXT,
			subject TEXT,
			topic TEXT,
			source_file TEXT,
			source_page INTEGER,
			raw_text_chunk TEXT,
			status TEXT DEFAULT 'unprocessed'
		)`,
		`CREATE TABLE IF NOT EXISTS generated_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER REFERENCES source_questions(id),
			target_exam TEXT,
			question_text TEXT NOT NULL,
			options TEXT,
			correct_answer TEXT,
			explanation TEXT,
			validation_status TEXT DEFAULT 'pending',
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_file_page ON source_questions(source_file, source_page)`,
		`CREATE INDEX IF NOT EXISTS idx_generated_status ON generated_questions(validation_status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='generated_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE generated_fts USING fts5(question_text, explanation, content=generated_questions, content_rowid=id)`,
			`CREATE TRIGGER generated_ai AFTER INSERT ON generated_questions BEGIN
				INSERT INTO generated_fts(rowid, question_text, explanation) VALUES (new.id, new.question_text, new.explanation);
			END`,
			`CREATE TRIGGER generated_ad AFTER DELETE ON generated_questions BEGIN
				INSERT INTO generated_fts(generated_fts, rowid, question_text, explanation) VALUES('delete', old.id, old.question_text, old.explanation);
			END`,
			`CREATE TRIGGER generated_au AFTER UPDATE ON generated_questions BEGIN
				INSERT INTO generated_fts(generated_fts, rowid, question_text, explanation) VALUES('delete', old.id, old.question_text, old.explanation);
				INSERT INTO generated_fts(rowid, question_text, explanation) VALUES (new.id, new.question_text, new.explanation);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Reset drops and recreates the schema, discarding all stored questions.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS generated_fts`,
		`DROP TABLE IF EXISTS generated_questions`,
		`DROP TABLE IF EXISTS source_questions`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping tables: %w", err)
		}
	}
	return s.createSchema()
}

// InsertPair stores a parsed source question and its generated variant in
// one transaction. The source is marked transformed; the variant starts
// pending validation.
func (s *Store) InsertPair(ctx context.Context, src *types.SourceQuestion, gen *types.GeneratedQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	srcOptions, _ := json.Marshal(src.Options)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO source_questions (question_text, options, answer, subject, topic, source_file, source_page, raw_text_chunk, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.QuestionText, string(srcOptions), src.Answer, src.Subject, src.Topic,
		src.SourceFile, src.SourcePage, src.RawTextChunk, string(types.SourceTransformed),
	)
	if err != nil {
		return fmt.Errorf("inserting source question: %w", err)
	}

	srcID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading source question id: %w", err)
	}
	src.ID = srcID
	gen.SourceID = srcID

	genOptions, _ := json.Marshal(gen.Options)
	res, err = tx.ExecContext(ctx,
		`INSERT INTO generated_questions (source_id, target_exam, question_text, options, correct_answer, explanation, validation_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gen.SourceID, gen.TargetExam, gen.QuestionText, string(genOptions),
		gen.CorrectAnswer, gen.Explanation, string(types.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("inserting generated question: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		gen.ID = id
	}

	return tx.Commit()
}

// LastProcessedPage returns the highest source page recorded for a material
// file, or 0 when the file has not been processed. The pipeline resumes
// from the next page.
func (s *Store) LastProcessedPage(ctx context.Context, sourceFile string) (int, error) {
	var page sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(source_page) FROM source_questions WHERE source_file = ?`, sourceFile,
	).Scan(&page)
	if err != nil {
		return 0, fmt.Errorf("querying last processed page: %w", err)
	}
	if !page.Valid {
		return 0, nil
	}
	return int(page.Int64), nil
}

// NextPending returns the oldest generated question still pending
// validation, together with its source question, skipping any IDs in
// exclude. Both results are nil when nothing is pending.
func (s *Store) NextPending(ctx context.Context, exclude []int64) (*types.GeneratedQuestion, *types.SourceQuestion, error) {
	query := `SELECT ` + generatedColumns + ` FROM generated_questions
		WHERE validation_status = ?`
	args := []any{string(types.StatusPending)}
	for _, id := range exclude {
		query += ` AND id != ?`
		args = append(args, id)
	}
	query += ` ORDER BY id LIMIT 1`

	gen, err := s.scanGenerated(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("querying pending question: %w", err)
	}

	src, err := s.sourceByID(ctx, gen.SourceID)
	if err != nil {
		return nil, nil, err
	}
	return gen, src, nil
}

// SetValidationStatus records a review decision for one generated question.
func (s *Store) SetValidationStatus(ctx context.Context, id int64, status types.ValidationStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_questions SET validation_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating validation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %d not found", id)
	}
	return nil
}

// ApproveAllPending bulk-approves every pending generated question and
// returns how many were updated.
func (s *Store) ApproveAllPending(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_questions SET validation_status = ? WHERE validation_status = ?`,
		string(types.StatusApproved), string(types.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("approving pending questions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats summarizes the bank for dashboards and status output.
func (s *Store) Stats(ctx context.Context) (types.BankStats, error) {
	var stats types.BankStats
	queries := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&stats.TotalSource, `SELECT COUNT(*) FROM source_questions`, nil},
		{&stats.TotalGenerated, `SELECT COUNT(*) FROM generated_questions`, nil},
		{&stats.Pending, `SELECT COUNT(*) FROM generated_questions WHERE validation_status = ?`, []any{string(types.StatusPending)}},
		{&stats.Approved, `SELECT COUNT(*) FROM generated_questions WHERE validation_status = ?`, []any{string(types.StatusApproved)}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return types.BankStats{}, fmt.Errorf("querying stats: %w", err)
		}
	}
	return stats, nil
}

// Reviewable returns pending and approved generated questions with their
// cached embeddings, for duplicate detection.
func (s *Store) Reviewable(ctx context.Context) ([]types.GeneratedQuestion, error) {
	return s.generatedWhere(ctx,
		`validation_status IN (?, ?) ORDER BY id`,
		string(types.StatusPending), string(types.StatusApproved))
}

// Approved returns approved generated questions in ID order, for export.
func (s *Store) Approved(ctx context.Context) ([]types.GeneratedQuestion, error) {
	return s.generatedWhere(ctx, `validation_status = ? ORDER BY id`, string(types.StatusApproved))
}

// GeneratedQuestions returns every generated question in ID order.
func (s *Store) GeneratedQuestions(ctx context.Context) ([]types.GeneratedQuestion, error) {
	return s.generatedWhere(ctx, `1=1 ORDER BY id`)
}

// SourceQuestions returns every source question in ID order.
func (s *Store) SourceQuestions(ctx context.Context) ([]types.SourceQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_text, options, answer, subject, topic, source_file, source_page, raw_text_chunk, status
		 FROM source_questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying source questions: %w", err)
	}
	defer rows.Close()

	var out []types.SourceQuestion
	for rows.Next() {
		var (
			q       types.SourceQuestion
			options sql.NullString
			answer  sql.NullString
			status  string
		)
		if err := rows.Scan(&q.ID, &q.QuestionText, &options, &answer, &q.Subject,
			&q.Topic, &q.SourceFile, &q.SourcePage, &q.RawTextChunk, &status); err != nil {
			return nil, fmt.Errorf("scanning source question: %w", err)
		}
		if options.Valid {
			json.Unmarshal([]byte(options.String), &q.Options)
		}
		if answer.Valid {
			q.Answer = answer.String
		}
		q.Status = types.SourceStatus(status)
		out = append(out, q)
	}
	return out, rows.Err()
}

// SaveEmbedding caches the embedding vector for a generated question.
func (s *Store) SaveEmbedding(ctx context.Context, id int64, vec []float32) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generated_questions SET embedding = ? WHERE id = ?`, encodeEmbedding(vec), id)
	if err != nil {
		return fmt.Errorf("saving embedding for %d: %w", id, err)
	}
	return nil
}

// FlagDuplicates marks the given generated questions rejected_duplicate and
// returns how many rows changed.
func (s *Store) FlagDuplicates(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE generated_questions SET validation_status = ? WHERE id = ?`,
			string(types.StatusRejectedDuplicate), id)
		if err != nil {
			return 0, fmt.Errorf("flagging duplicate %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, tx.Commit()
}

// --- row scanning helpers ---

const generatedColumns = `id, source_id, target_exam, question_text, options, correct_answer, explanation, validation_status, embedding`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanGenerated(row rowScanner) (*types.GeneratedQuestion, error) {
	var (
		q          types.GeneratedQuestion
		sourceID   sql.NullInt64
		targetExam sql.NullString
		options    sql.NullString
		answer     sql.NullString
		expl       sql.NullString
		status     string
		embedding  []byte
	)
	if err := row.Scan(&q.ID, &sourceID, &targetExam, &q.QuestionText, &options,
		&answer, &expl, &status, &embedding); err != nil {
		return nil, err
	}
	q.SourceID = sourceID.Int64
	q.TargetExam = targetExam.String
	if options.Valid {
		json.Unmarshal([]byte(options.String), &q.Options)
	}
	q.CorrectAnswer = answer.String
	q.Explanation = expl.String
	q.ValidationStatus = types.ValidationStatus(status)
	q.Embedding = decodeEmbedding(embedding)
	return &q, nil
}

func (s *Store) generatedWhere(ctx context.Context, where string, args ...any) ([]types.GeneratedQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+generatedColumns+` FROM generated_questions WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generated questions: %w", err)
	}
	defer rows.Close()

	var out []types.GeneratedQuestion
	for rows.Next() {
		q, err := s.scanGenerated(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generated question: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (s *Store) sourceByID(ctx context.Context, id int64) (*types.SourceQuestion, error) {
	var (
		q       types.SourceQuestion
		options sql.NullString
		answer  sql.NullString
		status  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_text, options, answer, subject, topic, source_file, source_page, raw_text_chunk, status
		 FROM source_questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.QuestionText, &options, &answer, &q.Subject,
		&q.Topic, &q.SourceFile, &q.SourcePage, &q.RawTextChunk, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying source question %d: %w", id, err)
	}
	if options.Valid {
		json.Unmarshal([]byte(options.String), &q.Options)
	}
	if answer.Valid {
		q.Answer = answer.String
	}
	q.Status = types.SourceStatus(status)
	return &q, nil
}

// --- embedding codec ---

// Embeddings are stored as little-endian IEEE-754 float32 blobs.

func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

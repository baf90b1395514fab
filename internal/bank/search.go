// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// SearchOptions holds parameters for full-text queries over the generated
// questions.
type SearchOptions struct {
	// Query is the FTS5 match expression.
	Query string

	// Status filters by validation status. Empty matches all.
	Status types.ValidationStatus

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// SearchResult is a generated question with its FTS rank and the topic of
// its source question.
type SearchResult struct {
	types.GeneratedQuestion
	Topic      string `json:"topic" yaml:"topic"`
	SourceFile string `json:"source_file" yaml:"source_file"`
}

// Search runs an FTS5 query over generated question text and explanations,
// ranked by relevance.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("search query required")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	query := `SELECT g.id, g.source_id, g.target_exam, g.question_text, g.options,
			g.correct_answer, g.explanation, g.validation_status,
			sq.topic, sq.source_file
		FROM generated_fts
		JOIN generated_questions g ON g.id = generated_fts.rowid
		LEFT JOIN source_questions sq ON sq.id = g.source_id
		WHERE generated_fts MATCH ?`
	args := []any{opts.Query}

	if opts.Status != "" {
		query += ` AND g.validation_status = ?`
		args = append(args, string(opts.Status))
	}

	query += ` ORDER BY generated_fts.rank LIMIT ?`
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching question bank: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r          SearchResult
			sourceID   sql.NullInt64
			targetExam sql.NullString
			options    sql.NullString
			answer     sql.NullString
			expl       sql.NullString
			status     string
			topic      sql.NullString
			sourceFile sql.NullString
		)
		if err := rows.Scan(&r.ID, &sourceID, &targetExam, &r.QuestionText, &options,
			&answer, &expl, &status, &topic, &sourceFile); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.SourceID = sourceID.Int64
		r.TargetExam = targetExam.String
		if options.Valid {
			json.Unmarshal([]byte(options.String), &r.Options)
		}
		r.CorrectAnswer = answer.String
		r.Explanation = expl.String
		r.ValidationStatus = types.ValidationStatus(status)
		r.Topic = topic.String
		r.SourceFile = sourceFile.String
		results = append(results, r)
	}

	return results, rows.Err()
}

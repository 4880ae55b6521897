package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/campusqa/courseqa/internal/model"
)

// ChunkMatch is one similarity-ranked chunk hit, carrying the owning
// document's file name and kind so callers can build citations without a
// second lookup.
type ChunkMatch struct {
	Chunk      model.Chunk
	FileName   string
	Kind       string
	Similarity float64
}

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertForDocument writes all chunks of one document in a single
// transaction. Either every chunk becomes visible or none does, so a reader
// never sees a half-ingested document.
func (r *ChunkRepo) InsertForDocument(ctx context.Context, docID string, chunks []model.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
		return err
	}
	const insert = `
		INSERT INTO document_chunks (id, document_id, content, page, start_time, end_time, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, chunk := range chunks {
		_, err := tx.ExecContext(ctx, insert,
			chunk.ID, docID, chunk.Content, chunk.Page, chunk.StartTime, chunk.EndTime,
			pgvector.NewVector(chunk.Embedding), chunk.Ctime)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search returns the top-k chunks of completed documents in the course,
// ranked by cosine similarity to the query vector. Ties break on chunk id
// so results are stable across runs.
func (r *ChunkRepo) Search(ctx context.Context, courseID string, query []float32, k int) ([]ChunkMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	const search = `
		SELECT c.id, c.document_id, c.content, c.page, c.start_time, c.end_time, c.ctime,
		       d.file_name, d.kind,
		       1 - (c.embedding <=> $1) AS similarity
		FROM document_chunks c
		JOIN course_documents d ON d.id = c.document_id
		WHERE d.course_id = $2
		  AND d.status = $3
		  AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $1, c.id
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, search, pgvector.NewVector(query), courseID, model.DocumentStatusCompleted, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.Chunk.ID, &m.Chunk.DocumentID, &m.Chunk.Content,
			&m.Chunk.Page, &m.Chunk.StartTime, &m.Chunk.EndTime, &m.Chunk.Ctime,
			&m.FileName, &m.Kind, &m.Similarity); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// CountByDocument reports how many chunks a document produced.
func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, docID).Scan(&count)
	return count, err
}

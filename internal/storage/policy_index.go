package storage

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ppiankov/claimlens/internal/model"
)

// PolicyIndex provides exact nearest-neighbour search over policy embeddings
// backed by SQLite BLOBs. Vectors are normalized and held in memory.
type PolicyIndex struct {
	db *sql.DB

	mu      sync.RWMutex
	vectors map[string][]float32 // policy id -> normalized embedding
}

// OpenPolicyIndex opens the policy index database at path
func OpenPolicyIndex(path string) (*PolicyIndex, error) {
	dbPath, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	idx, err := NewPolicyIndex(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// NewPolicyIndex creates the policies table if needed and loads existing vectors
func NewPolicyIndex(db *sql.DB) (*PolicyIndex, error) {
	idx := &PolicyIndex{
		db:      db,
		vectors: make(map[string][]float32),
	}

	if err := idx.migrate(); err != nil {
		return nil, fmt.Errorf("policy index migrate: %w", err)
	}
	if err := idx.loadAll(); err != nil {
		return nil, fmt.Errorf("policy index load: %w", err)
	}
	return idx, nil
}

func (idx *PolicyIndex) migrate() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS policies (
			id         TEXT PRIMARY KEY,
			metadata   TEXT NOT NULL,
			embedding  BLOB NOT NULL,
			dimensions INTEGER NOT NULL
		)
	`)
	return err
}

func (idx *PolicyIndex) loadAll() error {
	rows, err := idx.db.Query("SELECT id, embedding, dimensions FROM policies")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var blob []byte
		var dims int
		if err := rows.Scan(&id, &blob, &dims); err != nil {
			return err
		}
		idx.vectors[id] = blobToFloat32(blob, dims)
	}
	return rows.Err()
}

// Upsert stores a policy record and its embedding
func (idx *PolicyIndex) Upsert(ctx context.Context, record model.PolicyRecord, vector []float32) error {
	if record.ID == "" {
		return fmt.Errorf("policy id is required")
	}
	meta, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	normalized := normalize(vector)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err = idx.db.ExecContext(ctx, `
		INSERT INTO policies (id, metadata, embedding, dimensions)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			metadata=excluded.metadata, embedding=excluded.embedding, dimensions=excluded.dimensions
	`, record.ID, string(meta), float32ToBlob(normalized), len(normalized))
	if err != nil {
		return fmt.Errorf("upsert policy %s: %w", record.ID, err)
	}

	idx.vectors[record.ID] = normalized
	return nil
}

// FetchByID returns a stored policy or ErrNotFound
func (idx *PolicyIndex) FetchByID(ctx context.Context, id string) (*model.PolicyRecord, error) {
	var raw string
	err := idx.db.QueryRowContext(ctx, "SELECT metadata FROM policies WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch policy %s: %w", id, err)
	}

	record := &model.PolicyRecord{ID: id}
	if err := json.Unmarshal([]byte(raw), &record.Metadata); err != nil {
		return nil, fmt.Errorf("decode policy %s metadata: %w", id, err)
	}
	return record, nil
}

// Nearest returns the k closest policies by cosine distance, closest first
func (idx *PolicyIndex) Nearest(ctx context.Context, vector []float32, k int) ([]model.PolicyMatch, error) {
	if k <= 0 {
		k = 1
	}
	query := normalize(vector)

	idx.mu.RLock()
	h := &minHeap{}
	heap.Init(h)
	for id, vec := range idx.vectors {
		if len(vec) != len(query) {
			continue
		}
		score := dotProduct(query, vec)
		if h.Len() < k {
			heap.Push(h, scored{id: id, score: score})
		} else if score > (*h)[0].score {
			(*h)[0] = scored{id: id, score: score}
			heap.Fix(h, 0)
		}
	}
	idx.mu.RUnlock()

	// Extract in descending similarity order
	top := make([]scored, h.Len())
	for i := len(top) - 1; i >= 0; i-- {
		top[i] = heap.Pop(h).(scored)
	}

	matches := make([]model.PolicyMatch, 0, len(top))
	for _, s := range top {
		record, err := idx.FetchByID(ctx, s.id)
		if errors.Is(err, ErrNotFound) {
			continue // Deleted concurrently
		}
		if err != nil {
			return nil, err
		}
		matches = append(matches, model.PolicyMatch{
			ID:       s.id,
			Distance: 1 - s.score,
			Metadata: record.Metadata,
		})
	}
	return matches, nil
}

// Delete removes a policy
func (idx *PolicyIndex) Delete(ctx context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.ExecContext(ctx, "DELETE FROM policies WHERE id = ?", id); err != nil {
		return err
	}
	delete(idx.vectors, id)
	return nil
}

// Count returns the number of indexed policies
func (idx *PolicyIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close closes the database
func (idx *PolicyIndex) Close() error {
	return idx.db.Close()
}

type scored struct {
	id    string
	score float64
}

// minHeap implements heap.Interface for top-K selection (min at root)
type minHeap []scored

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// --- math helpers ---

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	if len(b) < dims*4 {
		dims = len(b) / 4
	}
	out := make([]float32, dims)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

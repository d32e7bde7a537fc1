//go:build !without_sqlite

package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/prashantdagar001/automation-api/embedding"
	"github.com/prashantdagar001/automation-api/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteIndex persists embeddings in SQLite with the sqlite-vec extension.
// It survives restarts of the process when pointed at a file path, which the
// in-memory index does not.
type SqliteIndex struct {
	db       *gorm.DB
	provider embedding.Provider
}

// FunctionVectorRecord mirrors one indexed description alongside the vector
// stored in the vec0 virtual table.
type FunctionVectorRecord struct {
	QualifiedName string `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Description string
}

func (FunctionVectorRecord) TableName() string {
	return "function_descriptions"
}

var (
	_ Index = (*SqliteIndex)(nil)
)

func NewSqliteIndex(dbPath string, provider embedding.Provider) (*SqliteIndex, error) {
	sqlite_vec.Auto()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database")
	}

	idx := &SqliteIndex{db: db, provider: provider}

	if err := db.AutoMigrate(&FunctionVectorRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate function description table")
	}

	if err := idx.createVectorTable(); err != nil {
		return nil, err
	}

	return idx, nil
}

func (s *SqliteIndex) createVectorTable() error {
	var sqliteVersion, vecVersion string
	if err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion); err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS function_vectors USING vec0(
			qualified_name TEXT PRIMARY KEY,
			embedding float[%d]
		);
	`, s.provider.Dimension())

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create function_vectors table")
	}

	return nil
}

func (s *SqliteIndex) Upsert(ctx context.Context, qualifiedName, description string) error {
	embeddings, err := s.provider.Embed(ctx, description)
	if err != nil {
		return err
	}
	if len(embeddings) != 1 {
		return errors.Wrapf(errors.ErrProviderUnavailable, "expected 1 embedding, got %d", len(embeddings))
	}

	serialized, err := sqlite_vec.SerializeFloat32(unitVector(embeddings[0]))
	if err != nil {
		return errors.Wrapf(err, "failed to serialize embedding")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := FunctionVectorRecord{
			QualifiedName: qualifiedName,
			Description:   description,
		}
		if err := tx.Save(&record).Error; err != nil {
			return errors.Wrapf(err, "failed to save description record")
		}

		if err := tx.Exec("DELETE FROM function_vectors WHERE qualified_name = ?", qualifiedName).Error; err != nil {
			return errors.Wrapf(err, "failed to delete existing vector")
		}
		if err := tx.Exec(
			"INSERT INTO function_vectors (qualified_name, embedding) VALUES (?, ?)",
			qualifiedName, serialized,
		).Error; err != nil {
			return errors.Wrapf(err, "failed to insert function vector")
		}

		return nil
	})
}

func (s *SqliteIndex) Query(ctx context.Context, prompt string, topK int) ([]Match, error) {
	embeddings, err := s.provider.Embed(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "expected 1 embedding, got %d", len(embeddings))
	}

	serializedQuery, err := sqlite_vec.SerializeFloat32(unitVector(embeddings[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	var rows []struct {
		QualifiedName string  `gorm:"column:qualified_name"`
		Distance      float64 `gorm:"column:distance"`
	}
	if err := s.db.WithContext(ctx).Raw(`
		SELECT qualified_name, distance
		FROM function_vectors
		WHERE embedding MATCH ?
		ORDER BY distance
		LIMIT ?
	`, serializedQuery, topK).Scan(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to search function vectors")
	}

	matches := make([]Match, len(rows))
	for i, row := range rows {
		// L2 distance between unit vectors: d^2 = 2 - 2*cos, so the
		// [0, 1] relevance score is 1 - d^2/4.
		score := 1.0 - (row.Distance*row.Distance)/4.0
		if score < 0 {
			score = 0
		}
		matches[i] = Match{QualifiedName: row.QualifiedName, Score: score}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].QualifiedName < matches[b].QualifiedName
	})

	return matches, nil
}

func (s *SqliteIndex) Remove(ctx context.Context, qualifiedName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&FunctionVectorRecord{}, "qualified_name = ?", qualifiedName).Error; err != nil {
			return errors.Wrapf(err, "failed to delete description record")
		}
		if err := tx.Exec("DELETE FROM function_vectors WHERE qualified_name = ?", qualifiedName).Error; err != nil {
			return errors.Wrapf(err, "failed to delete function vector")
		}
		return nil
	})
}

func (s *SqliteIndex) Len() int {
	var count int64
	if err := s.db.Model(&FunctionVectorRecord{}).Count(&count).Error; err != nil {
		return 0
	}
	return int(count)
}

// unitVector scales v to unit length so the L2-based score mapping in
// Query holds regardless of the provider's own normalization.
func unitVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func (s *SqliteIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	return sqlDB.Close()
}

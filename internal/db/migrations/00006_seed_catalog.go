package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upSeedCatalog, downSeedCatalog)
}

type seedItem struct {
	code, title, author, description string
	stock                            int
}

var starterCatalog = []seedItem{
	{"fisika-dasar-1", "Fisika Dasar Jilid 1", "Halliday & Resnick", "Mekanika, gerak, dan energi untuk kelas X-XII.", 4},
	{"laskar-pelangi", "Laskar Pelangi", "Andrea Hirata", "Novel tentang sepuluh anak Belitung dan sekolah mereka.", 3},
	{"kamus-inggris", "Kamus Inggris-Indonesia", "John M. Echols", "Kamus dwibahasa untuk referensi kelas.", 2},
	{"proyektor-a", "Proyektor Ruang Kelas A", "", "Proyektor portabel untuk presentasi; kabel HDMI disertakan.", 1},
}

func upSeedCatalog(ctx context.Context, tx *sql.Tx) error {
	now := time.Now().UTC()
	q := rebind(`INSERT INTO items (id, code, title, author, description, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, it := range starterCatalog {
		if _, err := tx.ExecContext(ctx, q, uuid.New().String(), it.code, it.title, it.author, it.description, it.stock, now, now); err != nil {
			return fmt.Errorf("seed item %s: %w", it.code, err)
		}
	}
	return nil
}

func downSeedCatalog(ctx context.Context, tx *sql.Tx) error {
	q := rebind(`DELETE FROM items WHERE code = ?`)
	for _, it := range starterCatalog {
		if _, err := tx.ExecContext(ctx, q, it.code); err != nil {
			return err
		}
	}
	return nil
}

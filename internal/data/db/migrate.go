package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/chaptered/core/internal/domain"
)

// AutoMigrateAll creates/updates the tables for every GORM model this service owns, then
// layers on the raw SQL GORM's declarative tags can't express cleanly: the
// chunks→resources cascade, the removal of any notes→resources FK (orphaned notes are
// legal, so notes get none), and the updated_at trigger.
func (s *PostgresService) AutoMigrateAll() error {
	if err := s.db.AutoMigrate(
		&domain.Resource{},
		&domain.Chunk{},
		&domain.Note{},
		&domain.PromptSet{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := ensureConstraints(s.db); err != nil {
		return fmt.Errorf("ensure constraints: %w", err)
	}

	if err := seedPromptSets(s.db); err != nil {
		return fmt.Errorf("seed prompt sets: %w", err)
	}

	return nil
}

// ensureConstraints adds the foreign key and the updated_at trigger AutoMigrate doesn't
// know how to express: chunks cascade-delete with their resource (invariant "deleting R
// deletes all R-owned chunks"). notes deliberately get no database-enforced foreign key
// at all: resource_id is itself the notes primary key, so there is no separate column a
// "set null on delete" could target, and a real NO ACTION/RESTRICT constraint would block
// deleting a resource that still has a note — directly contradicting the "note retained"
// cascade-delete behavior the HTTP layer promises. The relationship stays logical only;
// a note whose resource_id no longer exists in resources is an expected, legal state.
func ensureConstraints(db *gorm.DB) error {
	stmts := []string{
		`ALTER TABLE chunks DROP CONSTRAINT IF EXISTS fk_chunks_resource`,
		`ALTER TABLE chunks ADD CONSTRAINT fk_chunks_resource
			FOREIGN KEY (resource_id) REFERENCES resources(id) ON DELETE CASCADE`,

		`ALTER TABLE notes DROP CONSTRAINT IF EXISTS fk_notes_resource`,

		`CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
		BEGIN
			NEW.updated_at = now();
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS trg_resources_updated_at ON resources`,
		`CREATE TRIGGER trg_resources_updated_at BEFORE UPDATE ON resources
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`DROP TRIGGER IF EXISTS trg_chunks_updated_at ON chunks`,
		`CREATE TRIGGER trg_chunks_updated_at BEFORE UPDATE ON chunks
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`DROP TRIGGER IF EXISTS trg_notes_updated_at ON notes`,
		`CREATE TRIGGER trg_notes_updated_at BEFORE UPDATE ON notes
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`CREATE INDEX IF NOT EXISTS idx_resources_channel_id ON resources(channel_id)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// seedPromptSets upserts the fixed video/book prompt templates. Idempotent: safe to run on
// every startup. Nothing else in the service writes to this table afterward.
func seedPromptSets(db *gorm.DB) error {
	for _, ps := range domain.SeedPromptSets() {
		row := ps
		if err := db.Where(domain.PromptSet{ContentKind: row.ContentKind, FieldName: row.FieldName}).
			Assign(domain.PromptSet{Template: row.Template, Description: row.Description}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

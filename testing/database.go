// Package testing provides test utilities and database setup for testing the voting system
package testing

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/mizeapp/mize-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB represents an in-memory test database instance
type TestDB struct {
	DB *gorm.DB
}

// SetupTestDB opens a private in-memory SQLite database and runs migrations.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey,
// matching the production PostgreSQL connection.
func SetupTestDB() (*TestDB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Contender{},
		&models.VoteCycle{},
		&models.Vote{},
		&models.VoteSelection{},
		&models.Love{},
		&models.Guess{},
		&models.AppConfig{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return &TestDB{DB: db}, nil
}

// TeardownTestDB closes the underlying connection
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB == nil {
		return nil
	}

	sqlDB, err := tdb.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CleanupTables truncates all tables between test cases
func (tdb *TestDB) CleanupTables() error {
	tables := []string{
		"vote_selections",
		"votes",
		"loves",
		"guesses",
		"vote_cycles",
		"contenders",
		"app_configs",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean table %s: %w", table, err)
		}
	}

	return nil
}

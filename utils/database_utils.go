// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/Luismorlan/microblog/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// DatabaseSetupAndMigration wires the explicit join tables and migrates all
// entities. Must run before any store is used.
func DatabaseSetupAndMigration(db *gorm.DB) {
	var err error

	err = db.SetupJoinTable(&model.UserFeed{}, "Feed", &model.UserFeedPost{})
	if err != nil {
		panic("failed to set up user_feed_posts join table")
	}

	err = db.SetupJoinTable(&model.UserFeed{}, "Read", &model.UserFeedRead{})
	if err != nil {
		panic("failed to set up user_feed_reads join table")
	}

	err = db.AutoMigrate(&model.User{}, &model.Post{}, &model.UserFollow{}, &model.UserFeed{})
	if err != nil {
		panic("failed to migrate database")
	}
}

// CreateTestDB opens a fresh in-memory sqlite database, runs the migration
// and registers a cleanup that closes it. Each test gets an isolated
// database; the named shared-cache DSN keeps the schema visible across the
// connections gorm pools.
func CreateTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s%s?mode=memory&cache=shared", TestDBPrefix, RandomAlphabetString(TestDBNameCharLength))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalln("cannot open test DB: ", err)
	}

	// The pool keeps idle connections around, which is what keeps the named
	// in-memory database alive between queries.
	conn, err := db.DB()
	if err != nil {
		log.Fatalln("cannot get underlying test DB connection: ", err)
	}

	DatabaseSetupAndMigration(db)

	t.Cleanup(func() {
		conn.Close()
	})

	return db
}

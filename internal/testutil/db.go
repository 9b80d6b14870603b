package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := OpenTestDB(t)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// OpenTestDB opens a private, empty in-memory SQLite database.
// A single connection is used so transactions run one after another.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	cfg := config.GormConfig(false)
	cfg.Logger = gormlogger.Discard
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with a throwaway password hash
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreatePost(t *testing.T, db *gorm.DB, author *models.User, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Content: content}
	require.NoError(t, db.Omit("User").Create(post).Error)
	return post
}

// LikeCount reads the stored counter of a post
func LikeCount(t *testing.T, db *gorm.DB, postID uint) int64 {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.LikeCount
}

// CountRows counts the rows of model matching query
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// OpenExternalTestDB connects to the database named by TEST_DATABASE_URL
// (driver from TEST_DB_DRIVER, postgres by default) and empties it. The test is
// skipped when TEST_DATABASE_URL is unset. Unlike SQLite, these databases
// honour row locks and run transactions concurrently.
func OpenExternalTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	dialector, err := config.Dialector(driver, dsn)
	require.NoError(t, err)
	cfg := config.GormConfig(false)
	cfg.Logger = gormlogger.Discard
	db, err := gorm.Open(dialector, cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	truncate(t, db, driver)
	return db
}

var testTables = []string{"likes", "follows", "comments", "password_resets", "posts", "users"}

func truncate(t *testing.T, db *gorm.DB, driver string) {
	t.Helper()
	if driver == "postgres" {
		require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(testTables, ", ")+" RESTART IDENTITY CASCADE").Error)
		return
	}
	err := db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
			return err
		}
		for _, table := range testTables {
			if err := conn.Exec("TRUNCATE TABLE " + table).Error; err != nil {
				return err
			}
		}
		return conn.Exec("SET FOREIGN_KEY_CHECKS = 1").Error
	})
	require.NoError(t, err)
}

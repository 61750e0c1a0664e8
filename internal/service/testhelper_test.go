package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pesona-id/pesona-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newActor(role domain.Role) Actor {
	return Actor{ID: domain.NewID(), Name: "tester", Role: role}
}

func seedUser(t *testing.T, db *gorm.DB, name string, role domain.Role) domain.User {
	t.Helper()
	user := domain.User{Name: name, Password: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedTaxonomy(t *testing.T, db *gorm.DB) (domain.Category, domain.District) {
	t.Helper()
	cat := domain.Category{Name: "Beach", Slug: "beach"}
	require.NoError(t, db.Create(&cat).Error)
	dist := domain.District{Name: "North Coast", Slug: "north-coast"}
	require.NoError(t, db.Create(&dist).Error)
	return cat, dist
}

package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/xxxsen/plotline/internal/config"
	"github.com/xxxsen/plotline/internal/db"
	"github.com/xxxsen/plotline/internal/model"
	"github.com/xxxsen/plotline/internal/pkg/timeutil"
	"github.com/xxxsen/plotline/internal/repo"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "plotline",
		Password: "plotline_pass",
		DBName:   "plotline_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func NewID() string {
	return uuid.NewString()
}

// SeedPlot creates a user, a plot owned by them, and one section, returning
// the three ids. Every call uses fresh ids so tests stay independent.
func SeedPlot(t *testing.T, conn *sql.DB) (userID, plotID, sectionID string) {
	t.Helper()
	ctx := context.Background()
	now := timeutil.NowUnix()

	userID = NewID()
	plotID = NewID()
	sectionID = NewID()

	users := repo.NewUserRepo(conn)
	if err := users.Create(ctx, &model.User{
		ID:          userID,
		Email:       userID + "@example.com",
		DisplayName: "Test Author",
		Ctime:       now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	plots := repo.NewPlotRepo(conn)
	if err := plots.Create(ctx, &model.Plot{
		ID:          plotID,
		OwnerID:     userID,
		Title:       "seed plot",
		Description: "seed description",
		Tags:        []string{"test"},
		Ctime:       now,
		Mtime:       now,
	}); err != nil {
		t.Fatalf("seed plot: %v", err)
	}

	sections := repo.NewSectionRepo(conn)
	if err := sections.Create(ctx, &model.Section{
		ID:         sectionID,
		PlotID:     plotID,
		Title:      "seed section",
		Content:    `{"type":"doc","content":[{"type":"text","text":"initial"}]}`,
		OrderIndex: 0,
		Version:    1,
		Ctime:      now,
		Mtime:      now,
	}); err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return userID, plotID, sectionID
}

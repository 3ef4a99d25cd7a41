package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var epoch = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func steppingClock() func() time.Time {
	current := epoch
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t).DB()
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: repo, Logger: logger.Nop(), Now: steppingClock()})
	require.NoError(t, err)
	return svc, repo, conn
}

// insertLegacyProduct writes a row the way the previous store left them: no slug.
func insertLegacyProduct(t *testing.T, conn *gorm.DB, name string, createdAt time.Time, mutate ...func(*models.Product)) models.Product {
	t.Helper()
	row := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString("49.00"),
		Sizes:     []string{"M"},
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	for _, m := range mutate {
		m(&row)
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}

func baseInput(name string) CreateInput {
	return CreateInput{
		Name:     name,
		Price:    decimal.RequireFromString("39.99"),
		Colors:   []string{"#000000", "bone"},
		Sizes:    []string{"S", "M", "L"},
		IsActive: true,
	}
}

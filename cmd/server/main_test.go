package main

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-management-system/pkg/borrowing"
	"library-management-system/pkg/export"
	"library-management-system/pkg/models"
)

func setupTest(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := testDB.AutoMigrate(&models.User{}, &models.Book{}, &models.Borrowing{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db = testDB
	ledger = borrowing.NewService(testDB)
	csvWriter = export.NewWriter(t.TempDir())
	return testDB
}

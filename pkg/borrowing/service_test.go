package borrowing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"library-management-system/pkg/apperrors"
	"library-management-system/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	// An in-memory sqlite database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Borrowing{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed-password",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedBook(t *testing.T, db *gorm.DB, title, isbn string) models.Book {
	book := models.Book{
		Title:         title,
		Author:        "Test Author",
		ISBN:          isbn,
		Quantity:      1,
		ShelfLocation: "A1",
	}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
	return book
}

func outstandingCount(t *testing.T, db *gorm.DB, bookID uint) int64 {
	var count int64
	err := db.Model(&models.Borrowing{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count outstanding borrowings: %v", err)
	}
	return count
}

func TestCheckOutComputesDueDate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "The Go Programming Language", "9780134190440")

	record, err := svc.CheckOut(context.Background(), user.ID, book.ID, 0)
	assert.NoError(t, err)
	assert.Nil(t, record.ReturnDate)
	assert.Equal(t, record.BorrowDate.AddDate(0, 0, DefaultLoanDays), record.DueDate)
	assert.True(t, record.DueDate.After(record.BorrowDate))
}

func TestCheckOutCustomDuration(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Clean Code", "9780132350884")

	record, err := svc.CheckOut(context.Background(), user.ID, book.ID, 7)
	assert.NoError(t, err)
	assert.Equal(t, record.BorrowDate.AddDate(0, 0, 7), record.DueDate)
}

func TestCheckOutUnknownBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")

	_, err := svc.CheckOut(context.Background(), user.ID, 999, 0)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCheckAvailability(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Refactoring", "9780201485677")

	assert.NoError(t, svc.CheckAvailability(context.Background(), book.ID))

	_, err := svc.CheckOut(context.Background(), user.ID, book.ID, 0)
	assert.NoError(t, err)

	err = svc.CheckAvailability(context.Background(), book.ID)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
}

func TestCheckOutUnavailableBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "Domain-Driven Design", "9780321125217")

	_, err := svc.CheckOut(context.Background(), alice.ID, book.ID, 0)
	assert.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), bob.ID, book.ID, 0)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
	assert.Equal(t, int64(1), outstandingCount(t, db, book.ID))
}

func TestCheckoutReturnCheckoutScenario(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "The Mythical Man-Month", "9780201835953")

	record, err := svc.CheckOut(context.Background(), alice.ID, book.ID, 0)
	assert.NoError(t, err)
	assert.Nil(t, record.ReturnDate)

	_, err = svc.CheckOut(context.Background(), bob.ID, book.ID, 0)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))

	returned, err := svc.ReturnBook(context.Background(), record.ID, alice.ID)
	assert.NoError(t, err)
	assert.NotNil(t, returned.ReturnDate)

	_, err = svc.CheckOut(context.Background(), bob.ID, book.ID, 0)
	assert.NoError(t, err)
}

func TestReturnSetsReturnDate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Working Effectively with Legacy Code", "9780131177055")

	record, err := svc.CheckOut(context.Background(), user.ID, book.ID, 0)
	assert.NoError(t, err)

	returned, err := svc.Return(context.Background(), record.ID)
	assert.NoError(t, err)
	assert.NotNil(t, returned.ReturnDate)
	assert.False(t, returned.ReturnDate.Before(returned.BorrowDate))
}

func TestReturnNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Return(context.Background(), 999)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestReturnAlreadyReturned(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Code Complete", "9780735619678")

	record, err := svc.CheckOut(context.Background(), user.ID, book.ID, 0)
	assert.NoError(t, err)

	first, err := svc.Return(context.Background(), record.ID)
	assert.NoError(t, err)

	_, err = svc.Return(context.Background(), record.ID)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAlreadyReturned, apperrors.KindOf(err))

	// The original return date must survive the rejected second return.
	var stored models.Borrowing
	assert.NoError(t, db.First(&stored, record.ID).Error)
	assert.NotNil(t, stored.ReturnDate)
	assert.Equal(t, first.ReturnDate.Unix(), stored.ReturnDate.Unix())
}

func TestCheckOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "The Pragmatic Programmer", "9780201616224")

	record, err := svc.CheckOut(context.Background(), alice.ID, book.ID, 0)
	assert.NoError(t, err)

	owned, err := svc.CheckOwnership(context.Background(), record.ID, alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, record.ID, owned.ID)

	// A foreign record and a missing record are indistinguishable.
	_, err = svc.CheckOwnership(context.Background(), record.ID, bob.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = svc.CheckOwnership(context.Background(), 999, bob.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestReturnBookUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "Structure and Interpretation", "9780262510875")

	record, err := svc.CheckOut(context.Background(), alice.ID, book.ID, 0)
	assert.NoError(t, err)

	_, err = svc.ReturnBook(context.Background(), record.ID, bob.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = svc.ReturnBook(context.Background(), 999, bob.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	// The loan is untouched by the rejected return.
	assert.Equal(t, int64(1), outstandingCount(t, db, book.ID))
}

func TestListOutstanding(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")

	now := time.Now()
	returnedAt := now.Add(-time.Hour)
	loans := []models.Borrowing{
		{UserID: user.ID, BookID: seedBook(t, db, "Oldest", "1000000001").ID,
			BorrowDate: now.AddDate(0, 0, -30), DueDate: now.AddDate(0, 0, -16)},
		{UserID: user.ID, BookID: seedBook(t, db, "Middle", "1000000002").ID,
			BorrowDate: now.AddDate(0, 0, -10), DueDate: now.AddDate(0, 0, 4)},
		{UserID: user.ID, BookID: seedBook(t, db, "Newest", "1000000003").ID,
			BorrowDate: now.AddDate(0, 0, -1), DueDate: now.AddDate(0, 0, 13)},
		{UserID: user.ID, BookID: seedBook(t, db, "Closed", "1000000004").ID,
			BorrowDate: now.AddDate(0, 0, -5), DueDate: now.AddDate(0, 0, 9), ReturnDate: &returnedAt},
	}
	for i := range loans {
		assert.NoError(t, db.Create(&loans[i]).Error)
	}

	rows, err := svc.ListOutstanding(context.Background(), user.ID, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Newest", rows[0].Title)
	assert.Equal(t, "Middle", rows[1].Title)
	assert.Equal(t, "Oldest", rows[2].Title)

	page2, err := svc.ListOutstanding(context.Background(), user.ID, 2, 2)
	assert.NoError(t, err)
	assert.Len(t, page2, 1)
	assert.Equal(t, "Oldest", page2[0].Title)
}

func TestListOverdue(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")

	now := time.Now()
	returnedAt := now.Add(-time.Hour)
	loans := []models.Borrowing{
		{UserID: user.ID, BookID: seedBook(t, db, "Very Late", "2000000001").ID,
			BorrowDate: now.AddDate(0, 0, -40), DueDate: now.AddDate(0, 0, -26)},
		{UserID: user.ID, BookID: seedBook(t, db, "Slightly Late", "2000000002").ID,
			BorrowDate: now.AddDate(0, 0, -16), DueDate: now.AddDate(0, 0, -2)},
		{UserID: user.ID, BookID: seedBook(t, db, "Not Due Yet", "2000000003").ID,
			BorrowDate: now.AddDate(0, 0, -1), DueDate: now.AddDate(0, 0, 13)},
		{UserID: user.ID, BookID: seedBook(t, db, "Late But Closed", "2000000004").ID,
			BorrowDate: now.AddDate(0, 0, -30), DueDate: now.AddDate(0, 0, -16), ReturnDate: &returnedAt},
	}
	for i := range loans {
		assert.NoError(t, db.Create(&loans[i]).Error)
	}

	rows, err := svc.ListOverdue(context.Background(), user.ID, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Very Late", rows[0].Title)
	assert.Equal(t, "Slightly Late", rows[1].Title)
}

func TestGenerateReport(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	returnedAt := base.AddDate(0, 0, 8)
	loans := []models.Borrowing{
		{UserID: alice.ID, BookID: seedBook(t, db, "Before Range", "3000000001").ID,
			BorrowDate: base.AddDate(0, 0, -10), DueDate: base.AddDate(0, 0, 4)},
		{UserID: alice.ID, BookID: seedBook(t, db, "In Range Open", "3000000002").ID,
			BorrowDate: base.AddDate(0, 0, 2), DueDate: base.AddDate(0, 0, 16)},
		{UserID: bob.ID, BookID: seedBook(t, db, "In Range Closed", "3000000003").ID,
			BorrowDate: base.AddDate(0, 0, 5), DueDate: base.AddDate(0, 0, 19), ReturnDate: &returnedAt},
		{UserID: bob.ID, BookID: seedBook(t, db, "After Range", "3000000004").ID,
			BorrowDate: base.AddDate(0, 0, 20), DueDate: base.AddDate(0, 0, 34)},
	}
	for i := range loans {
		assert.NoError(t, db.Create(&loans[i]).Error)
	}

	rows, err := svc.GenerateReport(context.Background(), base, base.AddDate(0, 0, 10))
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "In Range Closed", rows[0].Title)
	assert.Equal(t, "bob", rows[0].Borrower)
	assert.NotNil(t, rows[0].ReturnDate)
	assert.Equal(t, "In Range Open", rows[1].Title)
	assert.Equal(t, "alice", rows[1].Borrower)
	assert.Nil(t, rows[1].ReturnDate)
}

func TestGenerateReportRangeIsInclusive(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "alice")

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	loans := []models.Borrowing{
		{UserID: user.ID, BookID: seedBook(t, db, "On Start", "4000000001").ID,
			BorrowDate: start, DueDate: start.AddDate(0, 0, 14)},
		{UserID: user.ID, BookID: seedBook(t, db, "On End", "4000000002").ID,
			BorrowDate: end, DueDate: end.AddDate(0, 0, 14)},
	}
	for i := range loans {
		assert.NoError(t, db.Create(&loans[i]).Error)
	}

	rows, err := svc.GenerateReport(context.Background(), start, end)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	book := seedBook(t, db, "Contended Title", "5000000001")

	users := make([]models.User, 8)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	successes := make(chan uint, len(users))
	for i := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			record, err := svc.CheckOut(context.Background(), userID, book.ID, 0)
			if err == nil {
				successes <- record.ID
			} else {
				assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
			}
		}(users[i].ID)
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, int64(1), outstandingCount(t, db, book.ID))
}

func TestListAllOutstanding(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	now := time.Now()
	returnedAt := now.Add(-time.Hour)
	loans := []models.Borrowing{
		{UserID: alice.ID, BookID: seedBook(t, db, "Alice Open", "6000000001").ID,
			BorrowDate: now.AddDate(0, 0, -3), DueDate: now.AddDate(0, 0, 11)},
		{UserID: bob.ID, BookID: seedBook(t, db, "Bob Open", "6000000002").ID,
			BorrowDate: now.AddDate(0, 0, -2), DueDate: now.AddDate(0, 0, 12)},
		{UserID: bob.ID, BookID: seedBook(t, db, "Bob Closed", "6000000003").ID,
			BorrowDate: now.AddDate(0, 0, -20), DueDate: now.AddDate(0, 0, -6), ReturnDate: &returnedAt},
	}
	for i := range loans {
		assert.NoError(t, db.Create(&loans[i]).Error)
	}

	rows, err := svc.ListAllOutstanding(context.Background())
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

package borrowing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library-management-system/pkg/apperrors"
	"library-management-system/pkg/models"
)

// DefaultLoanDays is the loan duration applied when the caller does not
// ask for a specific one.
const DefaultLoanDays = 14

// Service owns the lifecycle of borrowing records: checkout, return,
// availability and ownership checks, overdue and report queries. It holds
// no state of its own; every record lives in the injected database.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CheckAvailability fails with Unavailable when the book has an
// outstanding loan. Callers must have verified book existence first.
func (s *Service) CheckAvailability(ctx context.Context, bookID uint) error {
	return checkAvailability(s.db.WithContext(ctx), bookID)
}

func checkAvailability(tx *gorm.DB, bookID uint) error {
	var count int64
	err := tx.Model(&models.Borrowing{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	if err != nil {
		return apperrors.Internal("failed to check book availability", err)
	}
	if count > 0 {
		return apperrors.Unavailable("Book is already checked out by another borrower")
	}
	return nil
}

// CheckOut creates an outstanding borrowing record for the book. The book
// lookup, the availability check and the insert run in one transaction
// under a row lock on the book, so two competing checkouts cannot both
// observe the book as available.
func (s *Service) CheckOut(ctx context.Context, userID, bookID uint, durationDays int) (*models.Borrowing, error) {
	if durationDays <= 0 {
		durationDays = DefaultLoanDays
	}

	var borrowing models.Borrowing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Book not found")
			}
			return apperrors.Internal("failed to load book", err)
		}

		if err := checkAvailability(tx, bookID); err != nil {
			return err
		}

		borrowDate := time.Now()
		borrowing = models.Borrowing{
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.AddDate(0, 0, durationDays),
		}
		if err := tx.Create(&borrowing).Error; err != nil {
			return apperrors.Internal("failed to create borrowing record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// CheckOwnership fails with Unauthorized whether the record is missing or
// belongs to another user, so non-owners cannot probe which ids exist.
func (s *Service) CheckOwnership(ctx context.Context, borrowingID, userID uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", borrowingID, userID).
		First(&borrowing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("Unauthorized access to this borrowing record")
		}
		return nil, apperrors.Internal("failed to load borrowing record", err)
	}
	return &borrowing, nil
}

// Return closes the borrowing record. A record is closed exactly once:
// returning an already closed record fails with AlreadyReturned instead
// of overwriting the original return date.
func (s *Service) Return(ctx context.Context, borrowingID uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return closeBorrowing(tx, &borrowing, "id = ?", borrowingID)
	})
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// ReturnBook composes the ownership check and the return in a single
// transaction. A missing record reports Unauthorized, same as a record
// owned by someone else.
func (s *Service) ReturnBook(ctx context.Context, borrowingID, userID uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := closeBorrowing(tx, &borrowing, "id = ? AND user_id = ?", borrowingID, userID)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return apperrors.Unauthorized("Unauthorized access to this borrowing record")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func closeBorrowing(tx *gorm.DB, borrowing *models.Borrowing, query string, args ...interface{}) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, args...).
		First(borrowing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Borrowing record not found")
		}
		return apperrors.Internal("failed to load borrowing record", err)
	}
	if borrowing.ReturnDate != nil {
		return apperrors.AlreadyReturned("Borrowing record is already returned")
	}

	returnDate := time.Now()
	if err := tx.Model(borrowing).Update("return_date", returnDate).Error; err != nil {
		return apperrors.Internal("failed to update borrowing record", err)
	}
	borrowing.ReturnDate = &returnDate
	return nil
}

// ListOutstanding returns the user's outstanding loans joined to book
// metadata, most recently borrowed first.
func (s *Service) ListOutstanding(ctx context.Context, userID uint, page, limit int) ([]models.BorrowedBook, error) {
	rows := make([]models.BorrowedBook, 0)
	err := s.db.WithContext(ctx).
		Table("borrowings").
		Select("borrowings.book_id, books.title, books.author, books.isbn, books.shelf_location, borrowings.borrow_date, borrowings.due_date").
		Joins("JOIN books ON books.id = borrowings.book_id").
		Where("borrowings.user_id = ? AND borrowings.return_date IS NULL", userID).
		Order("borrowings.borrow_date DESC").
		Limit(pageLimit(limit)).
		Offset(pageOffset(page, limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list borrowed books", err)
	}
	return rows, nil
}

// ListOverdue returns the user's outstanding loans whose due date has
// passed, most overdue first.
func (s *Service) ListOverdue(ctx context.Context, userID uint, page, limit int) ([]models.OverdueBook, error) {
	rows := make([]models.OverdueBook, 0)
	err := s.db.WithContext(ctx).
		Table("borrowings").
		Select("borrowings.book_id, books.title, books.author, books.isbn, books.shelf_location, borrowings.due_date").
		Joins("JOIN books ON books.id = borrowings.book_id").
		Where("borrowings.user_id = ? AND borrowings.return_date IS NULL AND borrowings.due_date < ?", userID, time.Now()).
		Order("borrowings.due_date ASC").
		Limit(pageLimit(limit)).
		Offset(pageOffset(page, limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list overdue books", err)
	}
	return rows, nil
}

// GenerateReport returns every borrowing record, outstanding or closed,
// whose borrow date falls inside the inclusive range.
func (s *Service) GenerateReport(ctx context.Context, startDate, endDate time.Time) ([]models.ReportRow, error) {
	rows := make([]models.ReportRow, 0)
	err := s.db.WithContext(ctx).
		Table("borrowings").
		Select("borrowings.id, users.name AS borrower, books.title, borrowings.borrow_date, borrowings.due_date, borrowings.return_date").
		Joins("JOIN users ON users.id = borrowings.user_id").
		Joins("JOIN books ON books.id = borrowings.book_id").
		Where("borrowings.borrow_date BETWEEN ? AND ?", startDate, endDate).
		Order("borrowings.borrow_date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal("failed to generate borrowing report", err)
	}
	return rows, nil
}

// ListAllOutstanding returns every outstanding loan across all users,
// used by the overdue notifier.
func (s *Service) ListAllOutstanding(ctx context.Context) ([]models.Borrowing, error) {
	var borrowings []models.Borrowing
	err := s.db.WithContext(ctx).
		Where("return_date IS NULL").
		Find(&borrowings).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list outstanding borrowings", err)
	}
	return borrowings, nil
}

func pageLimit(limit int) int {
	if limit < 1 {
		return 10
	}
	return limit
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageLimit(limit)
}

package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"library-management-system/pkg/models"
)

const dateLayout = "2006-01-02 15:04:05"

// Writer renders borrowing data to CSV files under a base directory.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteReport writes the administrative borrowing report and returns the
// path of the created file.
func (w *Writer) WriteReport(rows []models.ReportRow) (string, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"ID", "Borrower", "Book Title", "Borrow Date", "Due Date", "Return Date"})
	for _, row := range rows {
		returnDate := ""
		if row.ReturnDate != nil {
			returnDate = row.ReturnDate.Format(dateLayout)
		}
		records = append(records, []string{
			fmt.Sprintf("%d", row.ID),
			row.Borrower,
			row.Title,
			row.BorrowDate.Format(dateLayout),
			row.DueDate.Format(dateLayout),
			returnDate,
		})
	}
	return w.write("borrowing_process", records)
}

// WriteOverdue writes a user's overdue loans and returns the path of the
// created file.
func (w *Writer) WriteOverdue(rows []models.OverdueBook) (string, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"Book ID", "Book Title", "Author", "ISBN", "Due Date"})
	for _, row := range rows {
		records = append(records, []string{
			fmt.Sprintf("%d", row.BookID),
			row.Title,
			row.Author,
			row.ISBN,
			row.DueDate.Format(dateLayout),
		})
	}
	return w.write("overdue_borrows", records)
}

func (w *Writer) write(prefix string, records [][]string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.csv", prefix, time.Now().Format("20060102"), uuid.New().String())
	path := filepath.Join(w.Dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
}

type Book struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"size:255;not null;index" json:"title"`
	Author        string `gorm:"size:255;not null;index" json:"author"`
	ISBN          string `gorm:"size:255;uniqueIndex;not null" json:"isbn"`
	Quantity      int    `gorm:"not null;check:quantity >= 1" json:"quantity"`
	ShelfLocation string `gorm:"size:50;not null" json:"shelf_location"`
}

type Borrowing struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

// BorrowedBook is a row of a user's outstanding loans joined to the catalog.
type BorrowedBook struct {
	BookID        uint      `json:"book_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	ShelfLocation string    `json:"shelf_location"`
	BorrowDate    time.Time `json:"borrow_date"`
	DueDate       time.Time `json:"due_date"`
}

// OverdueBook is a row of a user's overdue loans joined to the catalog.
type OverdueBook struct {
	BookID        uint      `json:"book_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	ShelfLocation string    `json:"shelf_location"`
	DueDate       time.Time `json:"due_date"`
}

// ReportRow is one line of the administrative borrowing report.
type ReportRow struct {
	ID         uint       `json:"id"`
	Borrower   string     `json:"borrower"`
	Title      string     `json:"title"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

package main

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"library-management-system/pkg/borrowing"
)

func checkoutBook(c *gin.Context) {
	userID := currentUserID(c)

	var request struct {
		BookID uint `json:"bookId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	record, err := ledger.CheckOut(c.Request.Context(), userID, request.BookID, borrowing.DefaultLoanDays)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func returnBorrowedBook(c *gin.Context) {
	userID := currentUserID(c)

	var request struct {
		BorrowingID uint `json:"borrowingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	record, err := ledger.ReturnBook(c.Request.Context(), request.BorrowingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Book returned successfully",
		"updatedBorrowing": record,
	})
}

func getBorrowedBooks(c *gin.Context) {
	userID := currentUserID(c)
	page, limit := pagination(c)

	rows, err := ledger.ListOutstanding(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func getOverdueBooks(c *gin.Context) {
	userID := currentUserID(c)
	page, limit := pagination(c)

	rows, err := ledger.ListOverdue(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func generateBorrowingReport(c *gin.Context) {
	startDate, err := time.Parse("2006-01-02", c.Query("startDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be a valid YYYY-MM-DD date"})
		return
	}
	endDate, err := time.Parse("2006-01-02", c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be a valid YYYY-MM-DD date"})
		return
	}

	// The range is inclusive of the whole end day.
	endDate = endDate.AddDate(0, 0, 1).Add(-time.Nanosecond)

	rows, err := ledger.GenerateReport(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

func exportOverdueCSV(c *gin.Context) {
	userID := currentUserID(c)

	rows, err := ledger.ListOverdue(c.Request.Context(), userID, 1, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	path, err := csvWriter.WriteOverdue(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export overdue borrows"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

func exportBorrowingCSV(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, -1, 0)

	rows, err := ledger.GenerateReport(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	path, err := csvWriter.WriteReport(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export borrowing report"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

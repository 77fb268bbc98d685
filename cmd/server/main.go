package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"library-management-system/pkg/apperrors"
	"library-management-system/pkg/borrowing"
	"library-management-system/pkg/database"
	"library-management-system/pkg/export"
	"library-management-system/pkg/notifier"
)

var (
	db        *gorm.DB
	ledger    *borrowing.Service
	csvWriter *export.Writer
)

func main() {
	log.Println("Starting library management service...")

	db = database.Init()
	ledger = borrowing.NewService(db)
	csvWriter = export.NewWriter(getEnv("EXPORT_DIR", "exports"))

	if webhookURL := os.Getenv("NOTIFY_WEBHOOK_URL"); webhookURL != "" {
		interval, err := time.ParseDuration(getEnv("NOTIFY_INTERVAL", "24h"))
		if err != nil {
			log.Fatalf("Invalid NOTIFY_INTERVAL: %v", err)
		}
		worker := notifier.NewNotifier(db, ledger, webhookURL, interval)
		worker.Start()
		log.Printf("Overdue notifier started, interval %s", interval)
	}

	server := gin.Default()
	registerRoutes(server)

	port := getEnv("PORT", "8080")
	log.Printf("Library management service starting on :%s", port)
	if err := server.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func registerRoutes(server *gin.Engine) {
	server.POST("/users/register", registerUser)
	server.POST("/users/login", loginUser)
	server.GET("/users", authRequired(), getUsers)
	server.PATCH("/users/:id", authRequired(), updateUser)
	server.DELETE("/users/:id", authRequired(), deleteUser)

	server.GET("/books", getBooks)
	server.GET("/books/:id", getBook)
	server.POST("/books", authRequired(), createBook)
	server.PATCH("/books/:id", authRequired(), updateBook)
	server.PUT("/books/:id", authRequired(), replaceBook)
	server.DELETE("/books/:id", authRequired(), deleteBook)

	exportLimiter := newRateLimiter(exportRateEvery, exportRateBurst)
	borrowings := server.Group("/borrowings", authRequired())
	borrowings.POST("/checkout", checkoutBook)
	borrowings.PATCH("/return", returnBorrowedBook)
	borrowings.GET("/borrowed", getBorrowedBooks)
	borrowings.GET("/overdue", getOverdueBooks)
	borrowings.GET("/reports", generateBorrowingReport)
	borrowings.GET("/export/overdue/csv", exportLimiter.middleware(), exportOverdueCSV)
	borrowings.GET("/export/borrowing/csv", exportLimiter.middleware(), exportBorrowingCSV)

	server.GET("/manage/health", healthCheck)
}

func healthCheck(c *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// respondError translates ledger failure kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.KindUnavailable, apperrors.KindAlreadyReturned, apperrors.KindValidation:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

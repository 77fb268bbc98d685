package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"library-management-system/pkg/borrowing"
	"library-management-system/pkg/circuitbreaker"
	"library-management-system/pkg/models"
	"library-management-system/pkg/queue"
)

const (
	KindOverdue  = "overdue"
	KindReminder = "reminder"

	maxRetries    = 5
	retryBackoff  = 30 * time.Second
	deliverPeriod = 5 * time.Second
)

// Notifier periodically scans outstanding loans and posts overdue notices
// and due-soon reminders to a webhook. Failed deliveries are requeued with
// backoff; the webhook is guarded by a circuit breaker.
type Notifier struct {
	db         *gorm.DB
	ledger     *borrowing.Service
	queue      *queue.Queue
	breaker    *circuitbreaker.CircuitBreaker
	webhookURL string
	interval   time.Duration
	client     *http.Client
	stop       chan struct{}
}

func NewNotifier(db *gorm.DB, ledger *borrowing.Service, webhookURL string, interval time.Duration) *Notifier {
	return &Notifier{
		db:         db,
		ledger:     ledger,
		queue:      queue.NewQueue(),
		breaker:    circuitbreaker.NewCircuitBreaker(5, 60*time.Second),
		webhookURL: webhookURL,
		interval:   interval,
		client:     &http.Client{Timeout: 10 * time.Second},
		stop:       make(chan struct{}),
	}
}

func (n *Notifier) Start() {
	go func() {
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()
		n.Check()
		for {
			select {
			case <-ticker.C:
				n.Check()
			case <-n.stop:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(deliverPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.deliverPending()
			case <-n.stop:
				return
			}
		}
	}()
}

func (n *Notifier) Stop() {
	close(n.stop)
}

// Check scans all outstanding loans and enqueues a notice for each loan
// that is overdue or due within the next 24 hours.
func (n *Notifier) Check() {
	log.Println("Notifier: checking for overdue books and reminders...")

	loans, err := n.ledger.ListAllOutstanding(context.Background())
	if err != nil {
		log.Println("Notifier error:", err)
		return
	}

	now := time.Now()
	for _, loan := range loans {
		title := n.bookTitle(loan.BookID)

		if now.After(loan.DueDate) {
			daysLate := int(now.Sub(loan.DueDate).Hours() / 24)
			if daysLate < 1 {
				daysLate = 1
			}
			n.enqueue(loan, KindOverdue,
				fmt.Sprintf("Book %q is %d day(s) overdue, please return it", title, daysLate))
			continue
		}

		untilDue := loan.DueDate.Sub(now)
		if untilDue > 0 && untilDue < 24*time.Hour {
			n.enqueue(loan, KindReminder,
				fmt.Sprintf("Book %q is due on %s", title, loan.DueDate.Format("2006-01-02")))
		}
	}
}

func (n *Notifier) bookTitle(bookID uint) string {
	var book models.Book
	if err := n.db.First(&book, bookID).Error; err != nil {
		return "Unknown"
	}
	return book.Title
}

func (n *Notifier) enqueue(loan models.Borrowing, kind, message string) {
	n.queue.Enqueue(&queue.Notification{
		ID:         uuid.New().String(),
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		Kind:       kind,
		Message:    message,
		DueDate:    loan.DueDate,
		RetryAt:    time.Now(),
		MaxRetries: maxRetries,
	})
}

func (n *Notifier) deliverPending() {
	for {
		notification := n.queue.Dequeue()
		if notification == nil {
			return
		}

		err := n.breaker.Execute(func() error {
			return n.deliver(notification)
		}, nil)
		if err == nil {
			continue
		}

		notification.RetryCount++
		if notification.RetryCount > notification.MaxRetries {
			log.Printf("Notifier: dropping notification %s after %d attempts: %v",
				notification.ID, notification.RetryCount, err)
			continue
		}
		notification.RetryAt = time.Now().Add(retryBackoff)
		n.queue.Enqueue(notification)
	}
}

func (n *Notifier) deliver(notification *queue.Notification) error {
	body, err := json.Marshal(map[string]interface{}{
		"id":       notification.ID,
		"user_id":  notification.UserID,
		"book_id":  notification.BookID,
		"kind":     notification.Kind,
		"message":  notification.Message,
		"due_date": notification.DueDate.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	response, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", response.StatusCode)
	}
	return nil
}

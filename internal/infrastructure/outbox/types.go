package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a reminder whose delivery failed and is awaiting retry.
// Delivery is best-effort and fully decoupled from streak correctness: a
// notification can be dropped after max retries without touching any
// completion or streak state.
type Notification struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	TaskID   string    `json:"task_id"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	RemindAt time.Time `json:"remind_at"`
	Retries  int       `json:"retries"`
	Queued   time.Time `json:"queued"`

	bucketKey []byte
}

func (n *Notification) normalize() {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Queued.IsZero() {
		n.Queued = time.Now()
	}
}

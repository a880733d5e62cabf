package queue

import (
	"errors"
	"time"

	"reelpress/internal/job"
)

// ErrInvalidReceipt is returned when a receipt no longer identifies a leased
// message, typically because the lease expired and the message was
// redelivered under a new receipt.
var ErrInvalidReceipt = errors.New("queue: receipt is not valid")

// Delivery is one leased message.
type Delivery struct {
	ID           int64
	Receipt      string
	Item         job.WorkItem
	ReceiveCount int
}

// DeadLetter is a message that exhausted its receive budget.
type DeadLetter struct {
	ID             int64
	Body           string
	ReceiveCount   int
	LastError      string
	CreatedAt      time.Time
	DeadLetteredAt time.Time
}

// Item decodes the stored body. Bodies that fail validation return an error.
func (d DeadLetter) Item() (job.WorkItem, error) {
	return job.DecodeWorkItem([]byte(d.Body))
}

// Stats summarizes queue depth.
type Stats struct {
	Ready       int
	InFlight    int
	DeadLetters int
}

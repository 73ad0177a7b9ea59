package models

import "time"

// Attachment is a stored receipt file linked to a transaction or a transfer group.
type Attachment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	TransactionID *int64    `json:"transaction_id"`
	TransferID    *int64    `json:"transfer_id"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	StoragePath   string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionUpload is the result of creating a transaction together with its receipt.
type TransactionUpload struct {
	TransactionID int64  `json:"transaction_id"`
	AttachmentID  int64  `json:"attachment_id"`
	Filename      string `json:"filename"`
	StoredAs      string `json:"stored_as"`
}

// TransferUpload is the result of creating a transfer together with its receipt.
type TransferUpload struct {
	TransferID               int64  `json:"transfer_id"`
	SourceTransactionID      int64  `json:"source_transaction_id"`
	DestinationTransactionID int64  `json:"destination_transaction_id"`
	AttachmentID             int64  `json:"attachment_id"`
	Filename                 string `json:"filename"`
	StoredAs                 string `json:"stored_as"`
}

package work

import (
	"strings"
	"time"
)

type Snapshot struct {
	ID           string
	Title        string
	Link         string
	Author       string
	Published    string
	UpdatedAt    string
	SourceFeed   string
	ChangeReason ChangeReason
	Fields       Fields
}

const (
	KeyID           = "id"
	KeyTitle        = "title"
	KeyLink         = "link"
	KeyAuthor       = "author"
	KeyPublished    = "published"
	KeyUpdatedAt    = "updated_at"
	KeySourceFeed   = "source_feed"
	KeyChangeReason = "change_reason"
)

// ToHash flattens the snapshot into its persisted key/value form. Empty
// optional fields are not written.
func (s *Snapshot) ToHash() map[string]string {
	hash := s.Fields.Map()
	hash[KeyID] = s.ID
	hash[KeyTitle] = s.Title
	hash[KeyLink] = s.Link
	hash[KeyAuthor] = s.Author
	hash[KeyPublished] = s.Published
	hash[KeyUpdatedAt] = s.UpdatedAt
	hash[KeySourceFeed] = s.SourceFeed
	if reason := s.ChangeReason.String(); reason != "" {
		hash[KeyChangeReason] = reason
	}
	return hash
}

func SnapshotFromHash(hash map[string]string) (*Snapshot, error) {
	reason, err := ParseChangeReason(hash[KeyChangeReason])
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:           hash[KeyID],
		Title:        hash[KeyTitle],
		Link:         hash[KeyLink],
		Author:       hash[KeyAuthor],
		Published:    hash[KeyPublished],
		UpdatedAt:    hash[KeyUpdatedAt],
		SourceFeed:   hash[KeySourceFeed],
		ChangeReason: reason,
		Fields:       FieldsFromMap(hash),
	}, nil
}

const (
	StatusSent   = "sent"
	SentAtLayout = "2006-01-02T15:04:05Z"
)

type SentRecord struct {
	ID     string
	Status string
	SentAt string
}

func NewSentRecord(id string, at time.Time) SentRecord {
	return SentRecord{
		ID:     id,
		Status: StatusSent,
		SentAt: at.UTC().Format(SentAtLayout),
	}
}

// Value returns the stored "{status}:{sent_at}" form.
func (r SentRecord) Value() string {
	return r.Status + ":" + r.SentAt
}

// ParseSentRecord splits a stored value. A value without a separator
// yields an empty SentAt, which never counts as a recent notification.
func ParseSentRecord(id, value string) SentRecord {
	status, sentAt, _ := strings.Cut(value, ":")
	return SentRecord{ID: id, Status: status, SentAt: sentAt}
}

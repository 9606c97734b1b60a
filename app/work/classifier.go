package work

import (
	"fmt"
)

type ChangeReason int

const (
	Unchanged ChangeReason = iota
	New
	AuthorChanged
	ChapterChanged
)

func (r ChangeReason) String() string {
	switch r {
	case Unchanged:
		return ""
	case New:
		return "NEW"
	case AuthorChanged:
		return "AUTHOR_CHANGED"
	case ChapterChanged:
		return "CHAPTER_CHANGED"
	default:
		return fmt.Sprintf("ChangeReason(%d)", int(r))
	}
}

// Notify reports whether the reason requires a snapshot write and a
// notification.
func (r ChangeReason) Notify() bool {
	switch r {
	case New, AuthorChanged, ChapterChanged:
		return true
	case Unchanged:
		return false
	default:
		return false
	}
}

func ParseChangeReason(value string) (ChangeReason, error) {
	switch value {
	case "":
		return Unchanged, nil
	case "NEW":
		return New, nil
	case "AUTHOR_CHANGED":
		return AuthorChanged, nil
	case "CHAPTER_CHANGED":
		return ChapterChanged, nil
	default:
		return Unchanged, fmt.Errorf("unknown change reason: %q", value)
	}
}

// Classify compares the current author and chapter count against the
// previous snapshot. A chapter change takes precedence over an author
// change.
func Classify(prev *Snapshot, author, chapters string) ChangeReason {
	if prev == nil {
		return New
	}

	reason := Unchanged
	if author != prev.Author {
		reason = AuthorChanged
	}
	if chapters != "" && chapters != prev.Fields.Chapters {
		reason = ChapterChanged
	}
	return reason
}

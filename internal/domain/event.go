package domain

import (
	"errors"
	"strconv"
	"time"
)

// ErrChannelUnavailable is returned when the staff channel cannot be reached.
var ErrChannelUnavailable = errors.New("staff channel unavailable")

// Attachment is a typed media reference carried by an inbound message.
type Attachment struct {
	Type      string
	OwnerID   int64
	ID        int64
	AccessKey string
}

// Ref returns the platform reference string, e.g. "photo-1_457239017".
func (a Attachment) Ref() string {
	ref := a.Type + strconv.FormatInt(a.OwnerID, 10) + "_" + strconv.FormatInt(a.ID, 10)
	if a.AccessKey != "" {
		ref += "_" + a.AccessKey
	}
	return ref
}

// Forwardable reports whether the attachment can be relayed to staff.
func (a Attachment) Forwardable() bool {
	switch a.Type {
	case "photo", "video", "doc":
		return true
	default:
		return false
	}
}

// Event is a normalized inbound message.
type Event struct {
	ID             string
	SenderID       int64
	PeerID         int64
	Text           string
	Payload        string
	Attachments    []Attachment
	FromGroupChat  bool
	AddressedToBot bool
	ReceivedAt     time.Time
}

// AttachmentRefs returns references of all forwardable attachments.
func (e Event) AttachmentRefs() []string {
	var refs []string
	for _, a := range e.Attachments {
		if a.Forwardable() {
			refs = append(refs, a.Ref())
		}
	}
	return refs
}

// Message is an outbound direct message.
type Message struct {
	Text        string
	Keyboard    *Keyboard
	Attachments []string
}

// StaffPost is a notification for the staff channel.
type StaffPost struct {
	Label       string
	SenderID    int64
	Text        string
	Attachments []string
}

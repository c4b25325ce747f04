package domain

import (
	"fmt"
	"strings"
	"time"
)

// CircleSize is the target group size formed by matching.
const CircleSize = 6

type MessageType string

const (
	MessageText  MessageType = "text"
	MessagePoll  MessageType = "poll"
	MessageEvent MessageType = "event"
)

const SystemSenderID = "sys"

type Message struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	IsSystem   bool        `json:"is_system,omitempty"`
	Type       MessageType `json:"type"`
}

type CircleMember struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	IsPlaceholder bool   `json:"is_placeholder,omitempty"`
}

type PollOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"` // e.g. "Saturday, 14:00"
	Votes     int    `json:"votes"`
	VotedByMe bool   `json:"voted_by_me"`
}

// Circle is the chat room state local to the circle tab: an append-only
// message log and a multi-select schedule poll.
type Circle struct {
	Members  []CircleMember
	Messages []Message
	Poll     []PollOption

	viewer User
	newID  func() string
	now    func() time.Time
}

// NewCircle seeds the circle formed around viewer after voting picked winner.
func NewCircle(viewer User, winner ActivitySuggestion, newID func() string, now func() time.Time) *Circle {
	c := &Circle{
		viewer: viewer,
		newID:  newID,
		now:    now,
	}
	c.Members = []CircleMember{
		{ID: viewer.ID, Name: viewer.Name, Avatar: viewer.Avatar},
		{ID: "u2", Name: "Sarah", Avatar: "https://picsum.photos/seed/sarah/100"},
		{ID: "u3", Name: "Mike", Avatar: "https://picsum.photos/seed/mike/100"},
		{ID: "u4", Name: "Jessica", Avatar: "https://picsum.photos/seed/jess/100"},
		{ID: "u5", Name: "Alex", Avatar: "https://picsum.photos/seed/alex/100"},
		{ID: "u6", Name: "Davide", Avatar: "https://picsum.photos/seed/davide/100"},
	}

	title := winner.Title
	if title == "" {
		title = "Activity"
	}
	ts := now()
	c.Messages = []Message{
		{
			ID: newID(), SenderID: SystemSenderID, SenderName: "System",
			Text:      fmt.Sprintf("Voting complete! The circle decided on: %s.", title),
			Timestamp: ts, IsSystem: true, Type: MessageEvent,
		},
		{
			ID: newID(), SenderID: "u2", SenderName: "Sarah",
			Text:      "This looks awesome! Saturday works best for me.",
			Timestamp: ts, Type: MessageText,
		},
	}

	c.Poll = []PollOption{
		{ID: "p1", Label: "Saturday, 14:00", Votes: 1},
		{ID: "p2", Label: "Saturday, 17:00", Votes: 3},
		{ID: "p3", Label: "Sunday, 11:00", Votes: 0},
		{ID: "p4", Label: "Sunday, 15:00", Votes: 2},
	}
	return c
}

// Send appends a message from the viewer. Blank text appends nothing and
// reports false.
func (c *Circle) Send(text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}
	msg := Message{
		ID:         c.newID(),
		SenderID:   c.viewer.ID,
		SenderName: c.viewer.Name,
		Text:       text,
		Timestamp:  c.now(),
		Type:       MessageText,
	}
	c.Messages = append(c.Messages, msg)
	return msg, true
}

// TogglePoll adds or removes the viewer's vote on one option. Other options
// are left alone: the poll is multi-select.
func (c *Circle) TogglePoll(optionID string) (PollOption, bool) {
	for i := range c.Poll {
		opt := &c.Poll[i]
		if opt.ID != optionID {
			continue
		}
		if opt.VotedByMe {
			opt.Votes--
		} else {
			opt.Votes++
		}
		opt.VotedByMe = !opt.VotedByMe
		return *opt, true
	}
	return PollOption{}, false
}

// Snapshot returns copies safe to hand out after the session lock is released.
func (c *Circle) Snapshot() CircleSnapshot {
	return CircleSnapshot{
		Members:  append([]CircleMember{}, c.Members...),
		Messages: append([]Message{}, c.Messages...),
		Poll:     append([]PollOption{}, c.Poll...),
	}
}

type CircleSnapshot struct {
	Members  []CircleMember `json:"members"`
	Messages []Message      `json:"messages"`
	Poll     []PollOption   `json:"poll"`
}

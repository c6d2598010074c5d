package domain

import (
	"fmt"
	"time"
)

// Command names handled by the bot
const (
	CommandWhosHere = "/whoshere"
	CommandIAmHere  = "/iamhere"
	CommandHereIAm  = "/hereiam"
)

// Command is one slash-command invocation
type Command struct {
	Name     string
	Text     string
	Token    string
	UserID   string
	UserName string
}

// UserRef points at a user mentioned in a command
type UserRef struct {
	ID   string
	Name string
}

// ParsedCommand is the structured intent of a command.
// Exactly one of Location and User is set. A nil Period means the whole upcoming week.
type ParsedCommand struct {
	Location Location
	User     *UserRef
	Period   *time.Time
}

// ParseError reports a command argument the bot could not understand
type ParseError struct {
	Command string
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: unexpected %q", e.Command, e.Token)
}

// Reply is what the bot answers to a command
type Reply struct {
	Text        string
	Attachments []Attachment
}

// Attachment is one block of a structured reply
type Attachment struct {
	Color  string
	Title  string
	Text   string
	Fields []AttachmentField
}

// AttachmentField is a titled value inside an attachment
type AttachmentField struct {
	Title string
	Value string
	Short bool
}

// TextReply wraps a plain sentence
func TextReply(text string) *Reply {
	return &Reply{Text: text}
}

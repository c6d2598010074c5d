package bot

import (
	"context"
	"testing"

	"github.com/glebk/whoshere-bot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type usersStub map[string]*domain.User

func (s usersStub) Save(_ context.Context, user *domain.User) error {
	s[user.Name] = user
	return nil
}

func (s usersStub) GetByName(_ context.Context, name string) (*domain.User, error) {
	return s[name], nil
}

func commandMessage(text string, commandLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 7,
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: commandLen}},
		From:      &tgbotapi.User{ID: 42, UserName: "alice", FirstName: "Alice"},
		Chat:      &tgbotapi.Chat{ID: 1},
	}
}

func TestCommandFromMessage(t *testing.T) {
	cmd := commandFromMessage(commandMessage("/whoshere@whosherebot office today", 21))

	assert.Equal(t, domain.Command{
		Name:     "/whoshere",
		Text:     "office today",
		UserID:   "42",
		UserName: "alice",
	}, cmd)

	msg := commandMessage("/hereiam", 8)
	msg.From.UserName = ""
	assert.Equal(t, "Alice", commandFromMessage(msg).UserName)
}

func TestResolveMention(t *testing.T) {
	b := &Bot{
		users: usersStub{"bob": {ID: "43", Name: "bob"}},
		log:   zap.NewNop().Sugar(),
	}
	ctx := context.Background()

	assert.Equal(t, "<@43|bob> tomorrow", b.resolveMention(ctx, "@bob tomorrow"))
	assert.Equal(t, "@carol", b.resolveMention(ctx, "@carol"))
	assert.Equal(t, "office today", b.resolveMention(ctx, "office today"))
	assert.Equal(t, "", b.resolveMention(ctx, ""))
}

func TestRenderPlain(t *testing.T) {
	reply := &domain.Reply{
		Text: "Here's who will be at the office the next few days:",
		Attachments: []domain.Attachment{
			{
				Title:  "Today",
				Text:   "<@42|alice> and <@U9>",
				Fields: []domain.AttachmentField{{Title: "Headcount", Value: "2", Short: true}},
			},
		},
	}

	want := "Here's who will be at the office the next few days:\n\n" +
		"Today\n" +
		"@alice and U9\n" +
		"Headcount: 2"
	require.Equal(t, want, RenderPlain(reply))

	require.Equal(t, "@bob is at the office today.", RenderPlain(domain.TextReply("<@43|bob> is at the office today.")))
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	text := helpText()
	for _, name := range []string{domain.CommandWhosHere, domain.CommandIAmHere, domain.CommandHereIAm} {
		assert.Contains(t, text, name)
	}
	assert.NotContains(t, text, "`")
	assert.NotContains(t, text, "_tomorrow")
	assert.Contains(t, text, "tomorrow is the default")
}

func TestRenderPlain_StripsMarkdownKeepsUsernames(t *testing.T) {
	got := RenderPlain(domain.TextReply("\"xyz\" doesn't ring a bell. Type `/iamhere help`, <@42|joe_doe>."))
	assert.Equal(t, "\"xyz\" doesn't ring a bell. Type /iamhere help, @joe_doe.", got)
}

func TestReplyTarget(t *testing.T) {
	private := commandMessage("/whoshere office", 9)
	private.Chat = &tgbotapi.Chat{ID: 42, Type: "private"}
	chatID, replyTo := replyTarget(private)
	assert.Equal(t, int64(42), chatID)
	assert.Equal(t, 7, replyTo)

	group := commandMessage("/iamhere office", 8)
	group.Chat = &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	chatID, replyTo = replyTarget(group)
	assert.Equal(t, int64(42), chatID, "group replies go to the sender")
	assert.Zero(t, replyTo)
}

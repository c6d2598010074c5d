package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/glebk/whoshere-bot/internal/domain"
	"github.com/glebk/whoshere-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var (
	// slackMention matches the mentions the formatter emits
	slackMention = regexp.MustCompile(`<@([^|>]+)(?:\|([^>]*))?>`)
	slackItalic  = regexp.MustCompile(`(^|\s)_([^_\n]+)_`)
)

// Dispatcher runs commands coming from an authenticated source
type Dispatcher interface {
	Execute(ctx context.Context, cmd domain.Command) (*domain.Reply, error)
}

// Bot represents the Telegram bot
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher Dispatcher
	users      domain.UserRepository
	log        *zap.SugaredLogger
}

// New creates a new Bot instance
func New(token string, dispatcher Dispatcher, users domain.UserRepository, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log = log.Named("telegram")
	log.Infow("authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:        api,
		dispatcher: dispatcher,
		users:      users,
		log:        log,
	}, nil
}

// Start polls for updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() || message.From == nil {
		return
	}

	switch message.Command() {
	case "start", "help":
		chatID, replyTo := replyTarget(message)
		b.sendMessage(chatID, replyTo, helpText())
	default:
		b.handleCommand(ctx, message)
	}
}

// handleCommand hands presence commands to the dispatcher
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	cmd := commandFromMessage(message)
	cmd.Text = b.resolveMention(ctx, cmd.Text)

	reply, err := b.dispatcher.Execute(ctx, cmd)
	if err != nil {
		b.log.Errorw("command aborted", "command", cmd.Name, "user", cmd.UserID, "error", err)
		return
	}
	if reply == nil {
		return
	}

	chatID, replyTo := replyTarget(message)
	b.sendMessage(chatID, replyTo, RenderPlain(reply))
}

// replyTarget keeps replies private: group commands are answered in the sender's own chat
func replyTarget(message *tgbotapi.Message) (int64, int) {
	if message.Chat != nil && message.Chat.IsPrivate() {
		return message.Chat.ID, message.MessageID
	}
	return message.From.ID, 0
}

// resolveMention turns a leading @username into a user reference the parser understands
func (b *Bot) resolveMention(ctx context.Context, text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "@") || len(tokens[0]) == 1 {
		return text
	}

	user, err := b.users.GetByName(ctx, tokens[0][1:])
	if err != nil {
		b.log.Warnw("failed to resolve mention", "mention", tokens[0], "error", err)
		return text
	}
	if user == nil {
		return text
	}

	tokens[0] = service.Mention(user.ID, user.Name)
	return strings.Join(tokens, " ")
}

func commandFromMessage(message *tgbotapi.Message) domain.Command {
	name := message.From.UserName
	if name == "" {
		name = message.From.FirstName
	}

	return domain.Command{
		Name:     "/" + message.Command(),
		Text:     message.CommandArguments(),
		UserID:   strconv.FormatInt(message.From.ID, 10),
		UserName: name,
	}
}

// RenderPlain flattens a reply into plain text without Slack markup
func RenderPlain(reply *domain.Reply) string {
	var sb strings.Builder
	sb.WriteString(reply.Text)

	for _, a := range reply.Attachments {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if a.Title != "" {
			sb.WriteString(a.Title)
			sb.WriteString("\n")
		}
		sb.WriteString(a.Text)
		for _, f := range a.Fields {
			fmt.Fprintf(&sb, "\n%s: %s", f.Title, f.Value)
		}
	}

	return slackMention.ReplaceAllStringFunc(stripMarkdown(sb.String()), func(m string) string {
		parts := slackMention.FindStringSubmatch(m)
		if parts[2] != "" {
			return "@" + parts[2]
		}
		return parts[1]
	})
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("I keep track of who works where.\n")
	for _, name := range []string{domain.CommandWhosHere, domain.CommandIAmHere, domain.CommandHereIAm} {
		text, _ := service.HelpText(name)
		sb.WriteString("\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return stripMarkdown(sb.String())
}

// stripMarkdown drops the Slack code and italic markers Telegram would show verbatim
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "`", "")
	return slackItalic.ReplaceAllString(s, "$1$2")
}

// sendMessage sends text to a chat, as a reply when replyTo is set
func (b *Bot) sendMessage(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}

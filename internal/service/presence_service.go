package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"

	"go.uber.org/zap"
)

// Command outcomes reported to the Recorder
const (
	OutcomeOK         = "ok"
	OutcomeHelp       = "help"
	OutcomeParseError = "parse_error"
	OutcomeUnknown    = "unknown"
	OutcomeDropped    = "dropped"
	OutcomeError      = "error"
)

// hereIAmText is what /hereiam expands to
const hereIAmText = "office today"

var helpTexts = map[string]string{
	domain.CommandWhosHere: "Check if you'll not be alone at the office. Try:\n" +
		"`/whoshere (office | home | coworking | @someone) [today | tomorrow | thursday | week]`\n" +
		"_the next few days is the default_",
	domain.CommandIAmHere: "Tell others where you'll work on a given day. Try:\n" +
		"`/iamhere (office | home | coworking space) [today | tomorrow | thursday]`\n" +
		"_tomorrow is the default_\n" +
		"_`/hereiam` is a shorthand for `/iamhere office today`_",
	domain.CommandHereIAm: "Tell others you made it to the office today.\n" +
		"`/hereiam` is a shorthand for `/iamhere office today`",
}

// Recorder is notified of every handled command
type Recorder interface {
	CommandHandled(command, outcome string)
}

// Options tune a PresenceService
type Options struct {
	// VerificationToken is the shared secret commands must carry. Empty disables the check.
	VerificationToken string
	RequestTimeout    time.Duration
	Phrases           PhrasePicker
	Recorder          Recorder
	Now               func() time.Time
}

// PresenceService routes commands through parsing, storage and formatting
type PresenceService struct {
	presence  domain.PresenceRepository
	users     domain.UserRepository
	parser    *Parser
	formatter *Formatter
	phrases   PhrasePicker
	recorder  Recorder
	log       *zap.SugaredLogger
	token     string
	timeout   time.Duration
	now       func() time.Time
}

// NewPresenceService creates a new PresenceService
func NewPresenceService(presence domain.PresenceRepository, users domain.UserRepository, log *zap.SugaredLogger, opts Options) *PresenceService {
	if opts.Phrases == nil {
		opts.Phrases = RandomPicker{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &PresenceService{
		presence:  presence,
		users:     users,
		parser:    NewParser(opts.Phrases),
		formatter: NewFormatter(),
		phrases:   opts.Phrases,
		recorder:  opts.Recorder,
		log:       log.Named("presence"),
		token:     opts.VerificationToken,
		timeout:   opts.RequestTimeout,
		now:       opts.Now,
	}
}

// Handle verifies the command token and executes it.
// A nil reply with a nil error means the command was dropped silently.
func (s *PresenceService) Handle(ctx context.Context, cmd domain.Command) (*domain.Reply, error) {
	if cmd.Name == "" || !s.validToken(cmd.Token) {
		s.log.Warnw("dropping unverified command", "command", cmd.Name, "user", cmd.UserID)
		s.record(cmd.Name, OutcomeDropped)
		return nil, nil
	}
	return s.Execute(ctx, cmd)
}

// Execute runs a command from an already authenticated source.
// Store failures are returned as errors and produce no reply.
func (s *PresenceService) Execute(ctx context.Context, cmd domain.Command) (*domain.Reply, error) {
	if cmd.Name == "" {
		return nil, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if help, ok := helpTexts[cmd.Name]; ok && s.wantsHelp(cmd) {
		s.record(cmd.Name, OutcomeHelp)
		return domain.TextReply(help), nil
	}

	var (
		reply *domain.Reply
		err   error
	)
	switch cmd.Name {
	case domain.CommandWhosHere:
		reply, err = s.whosHere(ctx, cmd)
	case domain.CommandIAmHere:
		reply, err = s.iAmHere(ctx, cmd, cmd.Text)
	case domain.CommandHereIAm:
		reply, err = s.iAmHere(ctx, cmd, hereIAmText)
	default:
		s.record(cmd.Name, OutcomeUnknown)
		return domain.TextReply(s.unableToProceed(cmd.Name)), nil
	}

	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &parseErr):
		s.record(cmd.Name, OutcomeParseError)
		return domain.TextReply(parseErr.Message), nil
	case err != nil:
		s.log.Errorw("command failed", "command", cmd.Name, "user", cmd.UserID, "error", err)
		s.record(cmd.Name, OutcomeError)
		return nil, err
	}

	s.log.Infow("command handled", "command", cmd.Name, "user", cmd.UserID, "text", cmd.Text)
	s.record(cmd.Name, OutcomeOK)
	return reply, nil
}

func (s *PresenceService) whosHere(ctx context.Context, cmd domain.Command) (*domain.Reply, error) {
	now := s.now()

	parsed, err := s.parser.Parse(cmd.Name, cmd.Text, now)
	if err != nil {
		return nil, err
	}

	if err := s.registerCaller(ctx, cmd); err != nil {
		return nil, err
	}

	filter := domain.PresenceFilter{
		Location: parsed.Location,
		Period:   parsed.Period,
	}
	if parsed.User != nil {
		filter.UserID = parsed.User.ID
	}

	records, err := s.presence.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find presence: %w", err)
	}

	return s.formatter.Format(parsed, records, now), nil
}

// iAmHere records where the caller works, then reports everyone at that place that day
func (s *PresenceService) iAmHere(ctx context.Context, cmd domain.Command, text string) (*domain.Reply, error) {
	now := s.now()

	parsed, err := s.parser.Parse(domain.CommandIAmHere, text, now)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) && cmd.Name != domain.CommandIAmHere {
			parseErr.Command = cmd.Name
		}
		return nil, err
	}

	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: caller id is required", domain.ErrInvalidArgument)
	}

	if err := s.registerCaller(ctx, cmd); err != nil {
		return nil, err
	}

	record := &domain.PresenceRecord{
		UserID:   cmd.UserID,
		UserName: cmd.UserName,
		Location: parsed.Location,
		Period:   *parsed.Period,
	}
	if err := s.presence.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save presence: %w", err)
	}

	// Report on the whole place that day, not only on the caller
	records, err := s.presence.Find(ctx, domain.PresenceFilter{
		Location: parsed.Location,
		Period:   parsed.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find presence: %w", err)
	}

	return s.formatter.Format(parsed, records, now), nil
}

// registerCaller keeps the user directory in sync with the caller's display name
func (s *PresenceService) registerCaller(ctx context.Context, cmd domain.Command) error {
	if cmd.UserID == "" {
		return nil
	}

	user := &domain.User{ID: cmd.UserID, Name: cmd.UserName}
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (s *PresenceService) wantsHelp(cmd domain.Command) bool {
	if cmd.Name == domain.CommandHereIAm {
		return strings.EqualFold(strings.TrimSpace(cmd.Text), "help")
	}
	return IsHelp(cmd.Text)
}

func (s *PresenceService) validToken(token string) bool {
	if s.token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

func (s *PresenceService) unableToProceed(command string) string {
	return s.phrases.Pick(
		fmt.Sprintf("I'm afraid I don't know how to %s yet.", command),
		fmt.Sprintf("%s is not something I can understand yet.", command),
		fmt.Sprintf("Try a valid command instead, %s is not one of mine.", command),
	)
}

func (s *PresenceService) record(command, outcome string) {
	if s.recorder != nil {
		s.recorder.CommandHandled(command, outcome)
	}
}

// HelpText returns the static help of a command, if any
func HelpText(command string) (string, bool) {
	text, ok := helpTexts[command]
	return text, ok
}

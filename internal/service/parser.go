package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"
)

// mentionPattern matches Slack user mentions such as <@U024BE7LH|bob> or <@U024BE7LH>
var mentionPattern = regexp.MustCompile(`^<@([A-Za-z0-9._-]+)(?:\|([^>]*))?>$`)

const weekToken = "week"

// Parser turns command arguments into a ParsedCommand
type Parser struct {
	phrases PhrasePicker
}

// NewParser creates a new Parser
func NewParser(phrases PhrasePicker) *Parser {
	if phrases == nil {
		phrases = RandomPicker{}
	}
	return &Parser{phrases: phrases}
}

// IsHelp reports whether text asks for help instead of carrying arguments
func IsHelp(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || strings.EqualFold(text, "help")
}

// Parse reads "<location|@user> [period]" for the given command.
// Failures are returned as *domain.ParseError.
func (p *Parser) Parse(command, text string, now time.Time) (*domain.ParsedCommand, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, p.parseError(command, "")
	}

	parsed := &domain.ParsedCommand{}
	first, rest := tokens[0], tokens[1:]

	if m := mentionPattern.FindStringSubmatch(first); m != nil && command == domain.CommandWhosHere {
		parsed.User = &domain.UserRef{ID: m[1], Name: m[2]}
	} else {
		location, ok := NormalizeLocation(first)
		if !ok {
			return nil, p.parseError(command, first)
		}
		parsed.Location = location

		// "coworking space" reads naturally, swallow the second word
		if location == domain.LocationCoworking && len(rest) > 0 && strings.EqualFold(rest[0], "space") {
			rest = rest[1:]
		}
	}

	if len(rest) == 0 {
		if command == domain.CommandIAmHere {
			tomorrow, _ := ResolvePeriod("tomorrow", now)
			parsed.Period = &tomorrow
		}
		return parsed, nil
	}

	token := rest[0]
	if strings.EqualFold(token, weekToken) && command == domain.CommandWhosHere {
		return parsed, nil
	}

	period, ok := ResolvePeriod(token, now)
	if !ok {
		return nil, p.parseError(command, token)
	}
	parsed.Period = &period

	return parsed, nil
}

// NormalizeLocation maps a free-form location token to a known Location
func NormalizeLocation(token string) (domain.Location, bool) {
	normalized := strings.ToLower(token)
	normalized = strings.NewReplacer("-", "", "_", "").Replace(normalized)

	location := domain.Location(normalized)
	if !location.Valid() {
		return "", false
	}
	return location, true
}

func (p *Parser) parseError(command, token string) *domain.ParseError {
	hint := command + " help"
	var msg string
	if token == "" {
		msg = p.phrases.Pick(
			fmt.Sprintf("Tell me where or who you're asking about. Try `%s`.", hint),
			fmt.Sprintf("I need a little more than that. Try `%s`.", hint),
		)
	} else {
		msg = p.phrases.Pick(
			fmt.Sprintf("I don't know what %q means. Try `%s`.", token, hint),
			fmt.Sprintf("%q doesn't ring a bell. Type `%s` to see what I understand.", token, hint),
			fmt.Sprintf("Sorry, %q is not something I understand yet. `%s` might help.", token, hint),
		)
	}

	return &domain.ParseError{
		Command: command,
		Token:   token,
		Message: msg,
	}
}

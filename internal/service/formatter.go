package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/glebk/whoshere-bot/internal/domain"
)

// locationStates describe what being somewhere means in a sentence
var locationStates = map[domain.Location]string{
	domain.LocationOffice:    "at the office",
	domain.LocationHome:      "working from home",
	domain.LocationCoworking: "at a coworking space",
}

var locationColors = map[domain.Location]string{
	domain.LocationOffice:    "#36a64f",
	domain.LocationHome:      "#439fe0",
	domain.LocationCoworking: "#e8a33d",
}

// Formatter renders query results as sentences or structured replies
type Formatter struct{}

// NewFormatter creates a new Formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders the records found for a parsed command.
// Week views (no period) only consider records from today on.
func (f *Formatter) Format(parsed *domain.ParsedCommand, records []*domain.PresenceRecord, now time.Time) *domain.Reply {
	if parsed.Period == nil {
		records = upcoming(records, now)
	}
	sortRecords(records)

	if len(records) == 0 {
		return domain.TextReply(f.nobody(parsed, now))
	}

	switch {
	case parsed.Period != nil && parsed.User == nil:
		return domain.TextReply(f.locationDay(parsed.Location, *parsed.Period, records, now))
	case parsed.Period != nil:
		return domain.TextReply(f.userDay(parsed.User, records[0], now))
	case parsed.User == nil:
		return f.locationWeek(parsed.Location, records, now)
	default:
		return f.userWeek(parsed.User, records, now)
	}
}

func (f *Formatter) locationDay(location domain.Location, period time.Time, records []*domain.PresenceRecord, now time.Time) string {
	users := make([]string, 0, len(records))
	for _, r := range records {
		users = append(users, Mention(r.UserID, r.UserName))
	}

	return fmt.Sprintf("%s %s %s %s.",
		JoinList(users),
		verb(period, now, len(users) > 1),
		locationStates[location],
		PeriodPhrase(period, now),
	)
}

func (f *Formatter) userDay(user *domain.UserRef, record *domain.PresenceRecord, now time.Time) string {
	name := record.UserName
	if name == "" {
		name = user.Name
	}

	return fmt.Sprintf("%s %s %s %s.",
		Mention(record.UserID, name),
		verb(record.Period, now, false),
		locationStates[record.Location],
		PeriodPhrase(record.Period, now),
	)
}

func (f *Formatter) locationWeek(location domain.Location, records []*domain.PresenceRecord, now time.Time) *domain.Reply {
	reply := &domain.Reply{
		Text: fmt.Sprintf("Here's who will be %s the next few days:", locationStates[location]),
	}

	for _, day := range groupByPeriod(records) {
		users := make([]string, 0, len(day))
		for _, r := range day {
			users = append(users, Mention(r.UserID, r.UserName))
		}

		reply.Attachments = append(reply.Attachments, domain.Attachment{
			Color: locationColors[location],
			Title: PeriodTitle(day[0].Period, now),
			Text:  JoinList(users),
			Fields: []domain.AttachmentField{
				{Title: "Headcount", Value: strconv.Itoa(len(users)), Short: true},
			},
		})
	}

	return reply
}

func (f *Formatter) userWeek(user *domain.UserRef, records []*domain.PresenceRecord, now time.Time) *domain.Reply {
	name := user.Name
	if name == "" {
		name = records[0].UserName
	}
	who := Mention(user.ID, name)

	byLocation := make(map[domain.Location][]*domain.PresenceRecord)
	for _, r := range records {
		byLocation[r.Location] = append(byLocation[r.Location], r)
	}

	reply := &domain.Reply{}
	switch n := len(byLocation[domain.LocationOffice]); n {
	case 0:
		reply.Text = fmt.Sprintf("%s is not at the office those days.", who)
	case 1:
		reply.Text = fmt.Sprintf("%s will be at the office once the next few days.", who)
	default:
		reply.Text = fmt.Sprintf("%s will be at the office %d times the next few days.", who, n)
	}

	for _, location := range domain.Locations {
		days := byLocation[location]
		if len(days) == 0 {
			continue
		}

		titles := make([]string, 0, len(days))
		for _, r := range days {
			titles = append(titles, PeriodTitle(r.Period, now))
		}

		reply.Attachments = append(reply.Attachments, domain.Attachment{
			Color: locationColors[location],
			Title: capitalize(locationStates[location]),
			Text:  strings.Join(titles, "\n"),
		})
	}

	return reply
}

func (f *Formatter) nobody(parsed *domain.ParsedCommand, now time.Time) string {
	if parsed.User != nil {
		who := Mention(parsed.User.ID, parsed.User.Name)
		if parsed.Period == nil {
			return fmt.Sprintf("I have no idea where %s will be, nothing is on the agenda yet.", who)
		}
		where := "will be"
		if daysFrom(*parsed.Period, now) == 0 {
			where = "is"
		}
		return fmt.Sprintf("I have no idea where %s %s %s.", who, where, PeriodPhrase(*parsed.Period, now))
	}

	if parsed.Period == nil {
		return fmt.Sprintf("I don't know who'll be %s this week.", locationStates[parsed.Location])
	}
	return fmt.Sprintf("Nobody %s %s %s.",
		verb(*parsed.Period, now, false),
		locationStates[parsed.Location],
		PeriodPhrase(*parsed.Period, now),
	)
}

// Mention renders a user reference the way Slack expects it
func Mention(id, name string) string {
	if name == "" {
		return "<@" + id + ">"
	}
	return "<@" + id + "|" + name + ">"
}

// JoinList joins items as "a, b and c"
func JoinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func verb(period, now time.Time, plural bool) string {
	if daysFrom(period, now) > 0 {
		return "will be"
	}
	if plural {
		return "are"
	}
	return "is"
}

func upcoming(records []*domain.PresenceRecord, now time.Time) []*domain.PresenceRecord {
	today := domain.DateOf(now)
	kept := make([]*domain.PresenceRecord, 0, len(records))
	for _, r := range records {
		if !r.Period.Before(today) {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortRecords(records []*domain.PresenceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Period.Equal(records[j].Period) {
			return records[i].Period.Before(records[j].Period)
		}
		return records[i].UserName < records[j].UserName
	})
}

// groupByPeriod splits sorted records into runs sharing the same period
func groupByPeriod(records []*domain.PresenceRecord) [][]*domain.PresenceRecord {
	var groups [][]*domain.PresenceRecord
	for _, r := range records {
		last := len(groups) - 1
		if last >= 0 && groups[last][0].Period.Equal(r.Period) {
			groups[last] = append(groups[last], r)
			continue
		}
		groups = append(groups, []*domain.PresenceRecord{r})
	}
	return groups
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryPresence keeps records in a slice and follows the find-then-write upsert
type memoryPresence struct {
	mu      sync.Mutex
	records []*domain.PresenceRecord
}

func (m *memoryPresence) Find(_ context.Context, filter domain.PresenceFilter) ([]*domain.PresenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found []*domain.PresenceRecord
	for _, r := range m.records {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Location != "" && r.Location != filter.Location {
			continue
		}
		if filter.Period != nil && !r.Period.Equal(*filter.Period) {
			continue
		}
		copied := *r
		found = append(found, &copied)
	}
	return found, nil
}

func (m *memoryPresence) Upsert(_ context.Context, record *domain.PresenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.UserID == record.UserID && r.Period.Equal(record.Period) {
			r.Location = record.Location
			r.UserName = record.UserName
			return nil
		}
	}
	copied := *record
	m.records = append(m.records, &copied)
	return nil
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memoryUsers) Save(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.users == nil {
		m.users = make(map[string]*domain.User)
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUsers) GetByName(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, nil
}

type presenceMock struct{ mock.Mock }

func (m *presenceMock) Find(ctx context.Context, filter domain.PresenceFilter) ([]*domain.PresenceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PresenceRecord), args.Error(1)
}

func (m *presenceMock) Upsert(ctx context.Context, record *domain.PresenceRecord) error {
	return m.Called(ctx, record).Error(0)
}

type recorderStub struct {
	outcomes []string
}

func (r *recorderStub) CommandHandled(command, outcome string) {
	r.outcomes = append(r.outcomes, command+":"+outcome)
}

const testToken = "s3cret"

func newTestService(presence domain.PresenceRepository, recorder Recorder) *PresenceService {
	return NewPresenceService(presence, &memoryUsers{}, zap.NewNop().Sugar(), Options{
		VerificationToken: testToken,
		RequestTimeout:    time.Second,
		Phrases:           FirstPicker{},
		Recorder:          recorder,
		Now:               func() time.Time { return refNow },
	})
}

func command(name, text, userID, userName string) domain.Command {
	return domain.Command{Name: name, Text: text, Token: testToken, UserID: userID, UserName: userName}
}

func TestPresenceService_HereIAmCreatesOneRecord(t *testing.T) {
	ctx := context.Background()
	store := &memoryPresence{}
	svc := newTestService(store, nil)

	for i := 0; i < 2; i++ {
		reply, err := svc.Handle(ctx, command(domain.CommandHereIAm, "", "U1", "alice"))
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Equal(t, "<@U1|alice> is at the office today.", reply.Text)
	}

	records, err := store.Find(ctx, domain.PresenceFilter{UserID: "U1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.LocationOffice, records[0].Location)
	assert.True(t, records[0].Period.Equal(day(17)))
}

func TestPresenceService_IAmHereOverwritesAndReportsTheWholePlace(t *testing.T) {
	ctx := context.Background()
	store := &memoryPresence{}
	svc := newTestService(store, nil)

	_, err := svc.Handle(ctx, command(domain.CommandIAmHere, "home thursday", "U1", "alice"))
	require.NoError(t, err)
	_, err = svc.Handle(ctx, command(domain.CommandIAmHere, "office thursday", "U2", "bob"))
	require.NoError(t, err)

	reply, err := svc.Handle(ctx, command(domain.CommandIAmHere, "office thursday", "U1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "<@U1|alice> and <@U2|bob> will be at the office on Thursday, October 22.", reply.Text)

	records, err := store.Find(ctx, domain.PresenceFilter{UserID: "U1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.LocationOffice, records[0].Location)
}

func TestPresenceService_IAmHereDefaultsToTomorrow(t *testing.T) {
	ctx := context.Background()
	store := &memoryPresence{}
	svc := newTestService(store, nil)

	reply, err := svc.Handle(ctx, command(domain.CommandIAmHere, "coworking space", "U1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "<@U1|alice> will be at a coworking space tomorrow.", reply.Text)

	records, err := store.Find(ctx, domain.PresenceFilter{Period: periodp(day(18))})
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestPresenceService_WhosHere(t *testing.T) {
	ctx := context.Background()
	store := &memoryPresence{}
	svc := newTestService(store, nil)

	reply, err := svc.Handle(ctx, command(domain.CommandWhosHere, "office", "U1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "I don't know who'll be at the office this week.", reply.Text)
	assert.Empty(t, reply.Attachments)

	_, err = svc.Handle(ctx, command(domain.CommandIAmHere, "office today", "U2", "bob"))
	require.NoError(t, err)
	_, err = svc.Handle(ctx, command(domain.CommandIAmHere, "office monday", "U2", "bob"))
	require.NoError(t, err)

	reply, err = svc.Handle(ctx, command(domain.CommandWhosHere, "office today", "U1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "<@U2|bob> is at the office today.", reply.Text)

	reply, err = svc.Handle(ctx, command(domain.CommandWhosHere, "office week", "U1", "alice"))
	require.NoError(t, err)
	require.Len(t, reply.Attachments, 2)

	reply, err = svc.Handle(ctx, command(domain.CommandWhosHere, "<@U2|bob>", "U1", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "<@U2|bob> will be at the office 2 times the next few days.", reply.Text)

	reply, err = svc.Handle(ctx, command(domain.CommandWhosHere, "<@U2|bob> friday", "U1", "alice"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "no idea")
}

func TestPresenceService_HelpNeverReachesTheStore(t *testing.T) {
	ctx := context.Background()
	store := &presenceMock{}
	recorder := &recorderStub{}
	svc := newTestService(store, recorder)

	tests := []domain.Command{
		command(domain.CommandWhosHere, "", "U1", "alice"),
		command(domain.CommandWhosHere, "help", "U1", "alice"),
		command(domain.CommandIAmHere, " ", "U1", "alice"),
		command(domain.CommandHereIAm, "help", "U1", "alice"),
	}

	for _, cmd := range tests {
		reply, err := svc.Handle(ctx, cmd)
		require.NoError(t, err)
		want, ok := HelpText(cmd.Name)
		require.True(t, ok)
		assert.Equal(t, want, reply.Text)
	}

	store.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"/whoshere:help", "/whoshere:help", "/iamhere:help", "/hereiam:help"}, recorder.outcomes)
}

func TestPresenceService_ParseErrorIsPrivateReply(t *testing.T) {
	store := &presenceMock{}
	recorder := &recorderStub{}
	svc := newTestService(store, recorder)

	reply, err := svc.Handle(context.Background(), command(domain.CommandIAmHere, "xyz", "U1", "alice"))
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "xyz")
	assert.Contains(t, reply.Text, "/iamhere help")

	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"/iamhere:parse_error"}, recorder.outcomes)
}

func TestPresenceService_UnknownCommand(t *testing.T) {
	recorder := &recorderStub{}
	svc := newTestService(&presenceMock{}, recorder)

	reply, err := svc.Handle(context.Background(), command("/whereami", "office", "U1", "alice"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "/whereami")
	assert.Equal(t, []string{"/whereami:unknown"}, recorder.outcomes)
}

func TestPresenceService_DropsUnverifiedCommands(t *testing.T) {
	store := &presenceMock{}
	recorder := &recorderStub{}
	svc := newTestService(store, recorder)

	cmd := command(domain.CommandHereIAm, "", "U1", "alice")
	cmd.Token = "guess"

	reply, err := svc.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Nil(t, reply)

	reply, err = svc.Handle(context.Background(), domain.Command{Token: testToken})
	require.NoError(t, err)
	assert.Nil(t, reply)

	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"/hereiam:dropped", ":dropped"}, recorder.outcomes)
}

func TestPresenceService_ExecuteSkipsTokenCheck(t *testing.T) {
	svc := newTestService(&memoryPresence{}, nil)

	cmd := command(domain.CommandHereIAm, "", "U1", "alice")
	cmd.Token = ""

	reply, err := svc.Execute(context.Background(), cmd)
	require.NoError(t, err)
	require.NotNil(t, reply)
}

func TestPresenceService_StoreFailureAbortsWithoutReply(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("find", func(t *testing.T) {
		store := &presenceMock{}
		store.On("Find", mock.Anything, mock.Anything).Return(nil, boom)
		recorder := &recorderStub{}

		reply, err := newTestService(store, recorder).Handle(context.Background(), command(domain.CommandWhosHere, "office", "U1", "alice"))
		require.ErrorIs(t, err, boom)
		assert.Nil(t, reply)
		assert.Equal(t, []string{"/whoshere:error"}, recorder.outcomes)
	})

	t.Run("upsert", func(t *testing.T) {
		store := &presenceMock{}
		store.On("Upsert", mock.Anything, mock.Anything).Return(boom)

		reply, err := newTestService(store, nil).Handle(context.Background(), command(domain.CommandHereIAm, "", "U1", "alice"))
		require.ErrorIs(t, err, boom)
		assert.Nil(t, reply)
		store.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})
}

func TestPresenceService_IAmHereNeedsCaller(t *testing.T) {
	svc := newTestService(&memoryPresence{}, nil)

	_, err := svc.Handle(context.Background(), command(domain.CommandHereIAm, "", "", ""))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestPresenceService_RegistersCaller(t *testing.T) {
	users := &memoryUsers{}
	svc := NewPresenceService(&memoryPresence{}, users, zap.NewNop().Sugar(), Options{
		Phrases: FirstPicker{},
		Now:     func() time.Time { return refNow },
	})

	_, err := svc.Handle(context.Background(), domain.Command{Name: domain.CommandWhosHere, Text: "home", UserID: "U7", UserName: "gus"})
	require.NoError(t, err)

	user, err := users.GetByName(context.Background(), "gus")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "U7", user.ID)
}

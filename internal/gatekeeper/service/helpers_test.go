package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/discord"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store/drivers/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "gatekeeper_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// fakeNotifier records every message instead of delivering it.
type fakeNotifier struct {
	mu       sync.Mutex
	userMsgs map[string][]string
	operator []string

	failUser bool
}

func (n *fakeNotifier) NotifyUser(_ context.Context, userID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failUser {
		return errors.New("DMs closed")
	}
	if n.userMsgs == nil {
		n.userMsgs = make(map[string][]string)
	}
	n.userMsgs[userID] = append(n.userMsgs[userID], content)
	return nil
}

func (n *fakeNotifier) NotifyOperator(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.operator = append(n.operator, content)
	return nil
}

func (n *fakeNotifier) userMessages(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.userMsgs[userID]...)
}

func (n *fakeNotifier) operatorMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.operator...)
}

// fakeAuthorizer allows a fixed set of reviewers.
type fakeAuthorizer struct {
	allowed map[string]bool
	err     error
}

func (a *fakeAuthorizer) CanReview(_ context.Context, reviewerID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.allowed[reviewerID], nil
}

// fakePublisher records sessions handed off for review.
type fakePublisher struct {
	mu        sync.Mutex
	published []domain.ApplicationSession
}

func (p *fakePublisher) Publish(_ context.Context, session domain.ApplicationSession) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, session)
	return "ticket-1", nil
}

func (p *fakePublisher) sessions() []domain.ApplicationSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ApplicationSession(nil), p.published...)
}

// fakeIssuer records code issuance requests.
type fakeIssuer struct {
	mu     sync.Mutex
	issued []string
	err    error
}

func (i *fakeIssuer) Issue(_ context.Context, userID string, _ domain.Department, _ domain.SubDepartment, _ domain.Platform) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return "", i.err
	}
	i.issued = append(i.issued, userID)
	return "482913", nil
}

func (i *fakeIssuer) issuedFor() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.issued...)
}

// fakeProvider scripts the identity provider's responses.
type fakeProvider struct {
	exchangeErr error
	identifyErr error
	joinErr     error

	user discord.User

	mu    sync.Mutex
	joins []string // guildIDs joined
}

func (p *fakeProvider) ExchangeCode(_ context.Context, _ string) (*discord.TokenResponse, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &discord.TokenResponse{AccessToken: "user-token"}, nil
}

func (p *fakeProvider) Identify(_ context.Context, _ string) (*discord.User, error) {
	if p.identifyErr != nil {
		return nil, p.identifyErr
	}
	u := p.user
	return &u, nil
}

func (p *fakeProvider) AddGuildMember(_ context.Context, guildID, _, _ string) error {
	if p.joinErr != nil {
		return p.joinErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joins = append(p.joins, guildID)
	return nil
}

func (p *fakeProvider) joined() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.joins...)
}

// fakeProvisioner signals on done when Apply runs.
type fakeProvisioner struct {
	done chan struct{}
}

func (p *fakeProvisioner) Apply(_ context.Context, _ string, _ domain.Department, _ domain.SubDepartment, _ domain.Platform) {
	if p.done != nil {
		close(p.done)
	}
}

// fakeGuild records role and nickname changes.
type fakeGuild struct {
	mu      sync.Mutex
	roles   []string
	nick    string
	nickErr error
	roleErr map[string]error
}

func (g *fakeGuild) AddMemberRole(_ context.Context, _, _, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.roleErr[roleID]; ok {
		return err
	}
	g.roles = append(g.roles, roleID)
	return nil
}

func (g *fakeGuild) SetMemberNickname(_ context.Context, _, _, nick string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nickErr != nil {
		return g.nickErr
	}
	g.nick = nick
	return nil
}

package googlecal

import (
	"context"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"gorm.io/gorm"

	"github.com/MaxKoenig/ClubSync/app/models"
)

type memCredentials struct {
	mu    sync.Mutex
	creds map[uint]*models.CalendarCredential
}

func newMemCredentials(creds ...*models.CalendarCredential) *memCredentials {
	m := &memCredentials{creds: make(map[uint]*models.CalendarCredential)}
	for _, c := range creds {
		cp := *c
		m.creds[c.OrganizationID] = &cp
	}
	return m
}

func (m *memCredentials) GetByOrganizationID(orgID uint) (*models.CalendarCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[orgID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCredentials) Upsert(cred *models.CalendarCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cred
	m.creds[cred.OrganizationID] = &cp
	return nil
}

func (m *memCredentials) UpdateTokens(orgID uint, accessToken string, expiresAt *time.Time, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[orgID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.AccessToken = accessToken
	c.ExpiresAt = expiresAt
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	return nil
}

func (m *memCredentials) ClearRefreshToken(orgID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[orgID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.RefreshToken = ""
	c.AccessToken = ""
	c.ExpiresAt = nil
	return nil
}

type memOrgs struct {
	mu   sync.Mutex
	orgs map[uint]*models.Organization
}

func newMemOrgs(orgs ...*models.Organization) *memOrgs {
	m := &memOrgs{orgs: make(map[uint]*models.Organization)}
	for _, o := range orgs {
		cp := *o
		m.orgs[o.ID] = &cp
	}
	return m
}

func (m *memOrgs) Create(org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memOrgs) GetByID(id uint) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrgs) GetBySlug(slug string) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orgs {
		if o.Slug == slug {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrgs) List(offset, limit int) ([]models.Organization, error) {
	return nil, nil
}

func (m *memOrgs) Update(org *models.Organization) error {
	return m.Create(org)
}

func (m *memOrgs) UpdateSyncToken(id uint, token string, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.SyncToken = token
	o.LastSyncedAt = &syncedAt
	return nil
}

type memWatches struct {
	mu      sync.Mutex
	watches map[string]*models.CalendarWatch

	beforeDelete func(channelID string)
}

func newMemWatches(watches ...*models.CalendarWatch) *memWatches {
	m := &memWatches{watches: make(map[string]*models.CalendarWatch)}
	for _, w := range watches {
		cp := *w
		m.watches[w.ChannelID] = &cp
	}
	return m
}

func (m *memWatches) Create(watch *models.CalendarWatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *watch
	m.watches[watch.ChannelID] = &cp
	return nil
}

func (m *memWatches) GetByChannelID(channelID string) (*models.CalendarWatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watches[channelID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWatches) GetByOrganizationID(orgID uint) ([]models.CalendarWatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CalendarWatch
	for _, w := range m.watches {
		if w.OrganizationID == orgID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *memWatches) FindExpiringBefore(t time.Time) ([]models.CalendarWatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CalendarWatch
	for _, w := range m.watches {
		if w.ExpiresAt.Before(t) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *memWatches) DeleteByChannelID(channelID string) error {
	if m.beforeDelete != nil {
		m.beforeDelete(channelID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches, channelID)
	return nil
}

func (m *memWatches) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// staticTokenSource hands out the same token for every organization.
type staticTokenSource struct {
	token string
	err   error
}

func (s staticTokenSource) AccessToken(ctx context.Context, orgID uint, forceRefresh bool) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

// scriptedProvider lets tests script provider behavior per call.
type scriptedProvider struct {
	watchFn func(ctx context.Context, accessToken, calendarID string, channel *calendar.Channel) (*calendar.Channel, error)
	stopFn  func(ctx context.Context, accessToken, channelID, resourceID string) error

	mu      sync.Mutex
	stopped []string
}

func (p *scriptedProvider) Watch(ctx context.Context, accessToken, calendarID string, channel *calendar.Channel) (*calendar.Channel, error) {
	if p.watchFn != nil {
		return p.watchFn(ctx, accessToken, calendarID, channel)
	}
	out := *channel
	out.ResourceId = "resource-" + channel.Id
	out.Expiration = time.Now().Add(7 * 24 * time.Hour).UnixMilli()
	return &out, nil
}

func (p *scriptedProvider) StopChannel(ctx context.Context, accessToken, channelID, resourceID string) error {
	p.mu.Lock()
	p.stopped = append(p.stopped, channelID)
	p.mu.Unlock()
	if p.stopFn != nil {
		return p.stopFn(ctx, accessToken, channelID, resourceID)
	}
	return nil
}

func (p *scriptedProvider) stoppedChannels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stopped...)
}

// scriptedLifecycle records renewal calls without touching any provider.
type scriptedLifecycle struct {
	createFn func(ctx context.Context, orgID uint) (*models.CalendarWatch, error)
	stopFn   func(ctx context.Context, orgID uint, exceptChannelID string) error

	mu      sync.Mutex
	created []uint
	stopped []uint
}

func (l *scriptedLifecycle) CreateWatch(ctx context.Context, orgID uint) (*models.CalendarWatch, error) {
	l.mu.Lock()
	l.created = append(l.created, orgID)
	l.mu.Unlock()
	if l.createFn != nil {
		return l.createFn(ctx, orgID)
	}
	return &models.CalendarWatch{ChannelID: "new-channel", OrganizationID: orgID}, nil
}

func (l *scriptedLifecycle) StopWatch(ctx context.Context, orgID uint, exceptChannelID string) error {
	l.mu.Lock()
	l.stopped = append(l.stopped, orgID)
	l.mu.Unlock()
	if l.stopFn != nil {
		return l.stopFn(ctx, orgID, exceptChannelID)
	}
	return nil
}

func (l *scriptedLifecycle) createdOrgs() []uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint(nil), l.created...)
}

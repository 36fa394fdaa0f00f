package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"shareme.org/internal/auth"
	"shareme.org/internal/bucket"
	"shareme.org/internal/email"
	"shareme.org/internal/realtime"
	"shareme.org/internal/social"
)

// --- account store fake ---

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
	emails   map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts: map[string]*auth.Account{},
		emails:   map[string]string{},
	}
}

func (f *fakeAccounts) add(t *testing.T, username, password string, enabled bool, roles ...string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[username] = &auth.Account{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		Enabled:      enabled,
	}
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*auth.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *account
	return &cp, nil
}

func (f *fakeAccounts) CreateAccount(_ context.Context, username, mail, passwordHash string, roles []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[username]; ok {
		return auth.ErrUserExists
	}
	f.accounts[username] = &auth.Account{Username: username, PasswordHash: passwordHash, Roles: roles}
	f.emails[username] = mail
	return nil
}

func (f *fakeAccounts) EnableAccount(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[username]
	if !ok {
		return auth.ErrUserNotFound
	}
	account.Enabled = true
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, username, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[username]
	if !ok {
		return auth.ErrUserNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}

func (f *fakeAccounts) SaveRole(context.Context, string) error { return nil }

func (f *fakeAccounts) AddRoleToAccount(_ context.Context, username, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[username]
	if !ok {
		return auth.ErrUserNotFound
	}
	account.Roles = append(account.Roles, role)
	return nil
}

func (f *fakeAccounts) ListAccounts(context.Context) ([]auth.AccountSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []auth.AccountSummary
	for name, account := range f.accounts {
		out = append(out, auth.AccountSummary{
			Username: name,
			Email:    f.emails[name],
			Enabled:  account.Enabled,
		})
	}
	return out, nil
}

// --- social repo fakes (only what the handlers under test touch) ---

type fakeProfiles struct {
	mu sync.Mutex
	m  map[string]*social.UserProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{m: map[string]*social.UserProfile{}}
}

func (f *fakeProfiles) Find(_ context.Context, id string) (*social.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[id]
	if !ok {
		return nil, social.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) FindByUsername(_ context.Context, username string) (*social.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.m {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, social.ErrNotFound
}

func (f *fakeProfiles) Save(_ context.Context, p *social.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.m[p.ID] = &cp
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, id)
	return nil
}

func (f *fakeProfiles) Search(_ context.Context, query string, limit int) ([]*social.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*social.UserProfile
	for _, p := range f.m {
		if strings.Contains(p.Username, query) && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProfiles) SetOnline(_ context.Context, id string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[id]
	if !ok {
		return social.ErrNotFound
	}
	p.Online = online
	return nil
}

type fakeNotifications struct {
	mu sync.Mutex
	m  map[string]*social.Notification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{m: map[string]*social.Notification{}}
}

func (f *fakeNotifications) Find(_ context.Context, id string) (*social.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.m[id]
	if !ok {
		return nil, social.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotifications) ListByOwner(_ context.Context, owner string) ([]*social.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*social.Notification
	for _, n := range f.m {
		if n.OwnerUserID == owner {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeNotifications) UnreadCount(_ context.Context, owner string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.m {
		if n.OwnerUserID == owner && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) Save(_ context.Context, n *social.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.m[n.ID] = &cp
	return nil
}

func (f *fakeNotifications) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, id)
	return nil
}

// --- token store + mail fakes ---

type fakeTokenStore struct {
	mu sync.Mutex
	m  map[string]fakeTokenRecord
}

type fakeTokenRecord struct {
	username  string
	purpose   string
	expiresAt time.Time
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{m: map[string]fakeTokenRecord{}}
}

func (f *fakeTokenStore) CreateToken(_ context.Context, token, username, purpose string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[token] = fakeTokenRecord{username: username, purpose: purpose, expiresAt: expiresAt}
	return nil
}

func (f *fakeTokenStore) ConsumeToken(_ context.Context, token, purpose string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.m[token]
	if !ok || rec.purpose != purpose {
		return "", email.ErrTokenInvalid
	}
	delete(f.m, token)
	if time.Now().After(rec.expiresAt) {
		return "", email.ErrTokenExpired
	}
	return rec.username, nil
}

// lastToken returns the most recently minted token for a username.
func (f *fakeTokenStore) lastToken(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, rec := range f.m {
		if rec.username == username {
			return token
		}
	}
	return ""
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

type fakePresence struct {
	mu         sync.Mutex
	online     map[string]bool
	heartbeats map[string]int
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: map[string]bool{}, heartbeats: map[string]int{}}
}

func (f *fakePresence) SetOnline(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[id] = true
	return nil
}

func (f *fakePresence) SetOffline(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, id)
	return nil
}

func (f *fakePresence) Heartbeat(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats[id]++
	return nil
}

func (f *fakePresence) Online(_ context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range ids {
		if f.online[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// --- harness ---

type testEnv struct {
	api      *API
	accounts *fakeAccounts
	profiles *fakeProfiles
	tokens   *auth.TokenService
	store    *fakeTokenStore
	sender   *fakeSender
	presence *fakePresence
	registry *realtime.Registry
}

const testIssuer = "https://api.shareme.test"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	accounts := newFakeAccounts()
	authenticator := auth.NewAuthenticator(accounts, tokens, testIssuer)

	profiles := newFakeProfiles()
	notifications := newFakeNotifications()
	svc := social.NewService(profiles, nil, nil, nil, notifications, nil)

	registry := realtime.NewRegistry()
	store := newFakeTokenStore()
	sender := &fakeSender{}
	tracker := newFakePresence()

	api := New(Config{
		Authenticator: authenticator,
		Accounts:      accounts,
		Social:        svc,
		Registry:      registry,
		Events:        realtime.NewRouter(registry),
		Presence:      tracker,
		Images:        bucket.NewMemory(),
		Mail:          sender,
		OneTimeTokens: store,
		Version:       "test",
	})
	return &testEnv{
		api:      api,
		accounts: accounts,
		profiles: profiles,
		tokens:   tokens,
		store:    store,
		sender:   sender,
		presence: tracker,
		registry: registry,
	}
}

// addUser registers an enabled account plus its profile and returns a valid
// access token.
func (env *testEnv) addUser(t *testing.T, username, userID string, roles ...string) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}
	env.accounts.add(t, username, "password-1", true, roles...)
	if err := env.profiles.Save(context.Background(), &social.UserProfile{
		ID:       userID,
		Username: username,
		Email:    username + "@example.com",
	}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	token, _, err := env.tokens.IssueAccessToken(username, testIssuer, roles)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

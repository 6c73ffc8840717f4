package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var errBoom = errors.New("boom")

// --- clock ---

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	getErr error
	// createErr is returned by Create before touching the map.
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrorConflict
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// --- refresh tokens ---

// fakeRefreshRepo keeps one row per user, mirroring the primary key on
// refresh_tokens.user_id.
type fakeRefreshRepo struct {
	mu        sync.Mutex
	rows      map[string]models.RefreshToken
	upsertErr error
	findErr   error
	rotateErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{rows: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Upsert(_ context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[userID] = models.RefreshToken{UserID: userID, Token: token, Expires: expires}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, r := range f.rows {
		if r.Token == token {
			cp := r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) Rotate(_ context.Context, userID, oldToken, newToken string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rotateErr != nil {
		return f.rotateErr
	}
	r, ok := f.rows[userID]
	if !ok || r.Token != oldToken {
		return common.ErrorNotFound
	}
	f.rows[userID] = models.RefreshToken{UserID: userID, Token: newToken, Expires: expires}
	return nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.rows {
		if r.Token == token {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, userID)
	return nil
}

func (f *fakeRefreshRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeRefreshRepo) rowOf(userID string) (models.RefreshToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[userID]
	return r, ok
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }

// --- session cache ---

// failingKV simulates an unreachable cache.
type failingKV struct{}

func (failingKV) Set(context.Context, string, string, time.Duration) error { return errBoom }
func (failingKV) Get(context.Context, string) (string, error)              { return "", errBoom }
func (failingKV) Del(context.Context, string) error                        { return errBoom }
func (failingKV) Exists(context.Context, string) (bool, error)             { return false, errBoom }

// setFailingKV is a working cache whose writes can be switched off.
type setFailingKV struct {
	*sessioncache.MemoryKV
	failSet bool
}

func (k *setFailingKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if k.failSet {
		return errBoom
	}
	return k.MemoryKV.Set(ctx, key, value, ttl)
}

// --- fixture ---

type fixture struct {
	clock      *testClock
	db         *sql.DB
	users      *fakeUsersRepo
	tokens     *fakeRefreshRepo
	codec      *auth.Codec
	kv         sessioncache.KV
	sessions   *sessioncache.Store
	svc        *UserService
	validation *ValidationService
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithKV(t, nil)
}

// newFixtureWithKV wires the services over fakes; a nil kv means an in-memory
// cache driven by the fixture clock.
func newFixtureWithKV(t *testing.T, kv sessioncache.KV) *fixture {
	t.Helper()
	cfg := testConfig()
	clock := &testClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	if kv == nil {
		kv = sessioncache.NewMemoryKV(clock.Now)
	}

	f := &fixture{
		clock:  clock,
		db:     openTestDB(t),
		users:  newFakeUsersRepo(),
		tokens: newFakeRefreshRepo(),
		codec:  auth.NewCodec([]byte(cfg.SecretKey), cfg.Issuer, cfg.Audience, cfg.AccessTokenValidityDuration, auth.WithClock(clock.Now)),
		kv:     kv,
	}
	f.sessions = sessioncache.New(kv, sessioncache.WithClock(clock.Now))
	rm := &fakeRepoManager{u: f.users, r: f.tokens}
	f.svc = NewUserService(f.db, rm, f.codec, f.sessions, cfg, logging.Nop{}, WithClock(clock.Now))
	f.validation = NewValidationService(f.codec, f.sessions, cfg.OperationTimeout, logging.Nop{})
	return f
}

// testPassword satisfies the registration rules.
const testPassword = "Passw0rd"

func (f *fixture) register(t *testing.T, username, password string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return u
}

func (f *fixture) login(t *testing.T, username, password string) *TokenPair {
	t.Helper()
	p, err := f.svc.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login(%q): %v", username, err)
	}
	return p
}

// blockingKV waits for the caller's deadline, like a cache that stopped
// answering.
type blockingKV struct{}

func (blockingKV) Set(ctx context.Context, _, _ string, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingKV) Get(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingKV) Del(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingKV) Exists(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"curator/internal/domain/entity"
	"curator/internal/domain/repository"
	"curator/internal/domain/service"
	"curator/internal/usecase"

	"github.com/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAccountRepo is an in-memory AccountRepository with a read spy.
type fakeAccountRepo struct {
	accounts  map[string]*entity.Account
	findCalls int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*entity.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	if _, ok := r.accounts[account.Username]; ok {
		return errors.Errorf("account %s already exists", account.Username)
	}
	clone := *account
	r.accounts[account.Username] = &clone

	return nil
}

func (r *fakeAccountRepo) FindByUsername(_ context.Context, username string) (*entity.Account, error) {
	r.findCalls++
	account, ok := r.accounts[username]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	clone := *account

	return &clone, nil
}

func (r *fakeAccountRepo) Exists(_ context.Context, username string) (bool, error) {
	_, ok := r.accounts[username]

	return ok, nil
}

// fakeAttemptRepo is an in-memory AttemptRepository.
type fakeAttemptRepo struct {
	attempts map[string]*entity.LoginAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*entity.LoginAttempt)}
}

func (r *fakeAttemptRepo) Find(_ context.Context, username string) (*entity.LoginAttempt, error) {
	attempt, ok := r.attempts[username]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	clone := *attempt

	return &clone, nil
}

func (r *fakeAttemptRepo) Save(_ context.Context, attempt *entity.LoginAttempt) error {
	clone := *attempt
	r.attempts[attempt.Username] = &clone

	return nil
}

func (r *fakeAttemptRepo) Delete(_ context.Context, username string) error {
	delete(r.attempts, username)

	return nil
}

// fakeSessionRepo is an in-memory SessionRepository with a current pointer.
type fakeSessionRepo struct {
	sessions map[string]*entity.Session
	current  string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.Session)}
}

func (r *fakeSessionRepo) Save(_ context.Context, session *entity.Session) error {
	clone := *session
	r.sessions[session.Token] = &clone

	return nil
}

func (r *fakeSessionRepo) FindByToken(_ context.Context, token string) (*entity.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *session

	return &clone, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, token string) error {
	delete(r.sessions, token)

	return nil
}

func (r *fakeSessionRepo) SetCurrent(_ context.Context, token string) error {
	r.current = token

	return nil
}

func (r *fakeSessionRepo) CurrentToken(_ context.Context) (string, error) {
	return r.current, nil
}

func (r *fakeSessionRepo) ClearCurrent(_ context.Context) error {
	r.current = ""

	return nil
}

// fakeHasher hashes by prefixing, keeping tests fast and assertable.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (fakeHasher) Check(plain, hash string) bool {
	return hash == "hashed:"+plain
}

// seqTokens mints deterministic sequential tokens.
type seqTokens struct {
	n int
}

func (t *seqTokens) NewToken() string {
	t.n++

	return fmt.Sprintf("tok-%d", t.n)
}

// authFixture bundles an authService with its fakes and a controllable
// clock.
type authFixture struct {
	srv      *authService
	accounts *fakeAccountRepo
	attempts *fakeAttemptRepo
	sessions *fakeSessionRepo
	clock    time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		accounts: newFakeAccountRepo(),
		attempts: newFakeAttemptRepo(),
		sessions: newFakeSessionRepo(),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.srv = &authService{
		accountRepo:      f.accounts,
		attemptRepo:      f.attempts,
		sessionRepo:      f.sessions,
		hasher:           fakeHasher{},
		tokens:           &seqTokens{},
		lockoutThreshold: 5,
		lockoutWindow:    15 * time.Minute,
		idleTimeout:      30 * time.Minute,
		logger:           discardLogger(),
	}
	f.srv.owner.Username = "admin"
	f.srv.owner.Credential = "owner-secret"
	f.srv.now = func() time.Time { return f.clock }

	return f
}

func (f *authFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *authFixture) seedAccount(username, credential string, isOwner bool) {
	f.accounts.accounts[username] = &entity.Account{
		Username:       username,
		CredentialHash: "hashed:" + credential,
		IsOwner:        isOwner,
		Permissions:    entity.AllCapabilities(isOwner),
		CreatedAt:      f.clock,
	}
}

// fakeRemoteStore records document writes and supports probe results and
// injected per-collection failures. With reflectWrites set, the probe
// reports collections it has accepted writes for, like the real store.
type fakeRemoteStore struct {
	nonEmpty      map[string]bool
	batches       map[string]map[string]map[string]any
	singles       map[string]map[string]map[string]any
	batchErrs     map[string]error
	reflectWrites bool

	probeCalls int
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		nonEmpty: make(map[string]bool),
		batches:  make(map[string]map[string]map[string]any),
		singles:  make(map[string]map[string]map[string]any),
	}
}

func (r *fakeRemoteStore) ProbeNonEmpty(_ context.Context, collection string) (bool, error) {
	r.probeCalls++
	if r.reflectWrites && (len(r.batches[collection]) > 0 || len(r.singles[collection]) > 0) {
		return true, nil
	}

	return r.nonEmpty[collection], nil
}

func (r *fakeRemoteStore) BatchPut(_ context.Context, collection string, docs map[string]map[string]any) error {
	if err := r.batchErrs[collection]; err != nil {
		return err
	}
	if r.batches[collection] == nil {
		r.batches[collection] = make(map[string]map[string]any)
	}
	for id, fields := range docs {
		r.batches[collection][id] = fields
	}

	return nil
}

func (r *fakeRemoteStore) PutOne(_ context.Context, collection, id string, fields map[string]any) error {
	if r.singles[collection] == nil {
		r.singles[collection] = make(map[string]map[string]any)
	}
	r.singles[collection][id] = fields

	return nil
}

// fakeBlobStore records uploads and supports injected failures.
type fakeBlobStore struct {
	uploads      map[string][]byte
	contentTypes map[string]string
	uploadErr    error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		uploads:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (s *fakeBlobStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[key] = data
	s.contentTypes[key] = contentType

	return nil
}

// fakeImageStore serves legacy images with read spies.
type fakeImageStore struct {
	images    map[string][]byte
	keysCalls int
	getCalls  int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{images: make(map[string][]byte)}
}

func (s *fakeImageStore) Keys(_ context.Context) ([]string, error) {
	s.keysCalls++
	keys := make([]string, 0, len(s.images))
	for key := range s.images {
		keys = append(keys, key)
	}

	return keys, nil
}

func (s *fakeImageStore) Get(_ context.Context, key string) ([]byte, error) {
	s.getCalls++
	blob, ok := s.images[key]
	if !ok {
		return nil, errors.Errorf("no image %s", key)
	}

	return blob, nil
}

// fakeKVStore serves legacy string entries with a read spy.
type fakeKVStore struct {
	entries  map[string]string
	getCalls int
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{entries: make(map[string]string)}
}

func (s *fakeKVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.getCalls++
	value, ok := s.entries[key]

	return value, ok, nil
}

// fakeEvents records published migration events.
type fakeEvents struct {
	events []*service.MigrationEvent
}

func (e *fakeEvents) PublishMigrationEvent(_ context.Context, event *service.MigrationEvent) error {
	e.events = append(e.events, event)

	return nil
}

func (e *fakeEvents) Close() error {
	return nil
}

// migrationFixture bundles a migrationService with its fakes.
type migrationFixture struct {
	srv    *migrationService
	remote *fakeRemoteStore
	blobs  *fakeBlobStore
	images *fakeImageStore
	legacy *fakeKVStore
	events *fakeEvents
	clock  time.Time
}

func newMigrationFixture() *migrationFixture {
	f := &migrationFixture{
		remote: newFakeRemoteStore(),
		blobs:  newFakeBlobStore(),
		images: newFakeImageStore(),
		legacy: newFakeKVStore(),
		events: &fakeEvents{},
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.srv = &migrationService{
		remote: f.remote,
		blobs:  f.blobs,
		images: f.images,
		legacy: f.legacy,
		events: f.events,
		logger: discardLogger(),
		status: usecase.MigrationStatus{Phase: usecase.MigrationIdle},
	}
	f.srv.now = func() time.Time { return f.clock }

	return f
}

func (f *migrationFixture) account() *entity.Account {
	return &entity.Account{
		Username:    "admin",
		IsOwner:     true,
		Permissions: entity.AllCapabilities(true),
	}
}

// progressRecorder collects reported percentages in order.
type progressRecorder struct {
	seen []int
}

func (p *progressRecorder) record(percent int) {
	p.seen = append(p.seen, percent)
}

package storefront

// Package storefront contains simple hand-written test doubles for the
// storefront ports. These are lightweight and suitable for unit tests
// without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.KVStore           = (*MemoryKV)(nil)
	_ ports.AuthProvider      = (*MockAuthProvider)(nil)
	_ ports.ProductRepository = (*MemoryProductRepo)(nil)
	_ ports.UserRepository    = (*MemoryUserRepo)(nil)
)

// MemoryKV is an in-memory KV store for unit tests. It also counts writes so
// tests can assert write-through behavior.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]string

	// SetErr/DeleteErr, when set, are returned by the corresponding method.
	SetErr    error
	DeleteErr error

	SetCalls int
}

// NewMemoryKV creates an empty in-memory KV store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.entries[key]
	if !ok {
		return "", ports.ErrKeyNotFound
	}
	return val, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.entries[key] = value
	m.SetCalls++
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.entries, key)
	return nil
}

// Put seeds an entry directly, bypassing error injection.
func (m *MemoryKV) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Has reports whether a key is present.
func (m *MemoryKV) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Raw returns the stored value for key, or "" when absent.
func (m *MemoryKV) Raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key]
}

// MockAuthProvider simulates the AuthAPI for tests.
type MockAuthProvider struct {
	LoginFunc    func(ctx context.Context, creds ports.Credentials) (domainsession.Session, error)
	RegisterFunc func(ctx context.Context, user model.UserRecord) (*model.UserRecord, error)

	// DefaultUser is returned (with DefaultToken) when LoginFunc is nil.
	DefaultToken string
	DefaultUser  model.UserRecord

	mu         sync.Mutex
	loginCalls int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		DefaultToken: "mock-token-1",
		DefaultUser: model.UserRecord{
			Email:  "mock.user@levelup.cl",
			Nombre: "Mock",
			Role:   model.RoleUser,
			Points: 0,
		},
	}
}

func (m *MockAuthProvider) Login(ctx context.Context, creds ports.Credentials) (domainsession.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}

	m.mu.Lock()
	m.loginCalls++
	calls := m.loginCalls
	m.mu.Unlock()

	token := m.DefaultToken
	if token == "" {
		token = fmt.Sprintf("mock-token-%d", calls)
	}
	user := m.DefaultUser
	return domainsession.Session{Token: token, User: &user}, nil
}

func (m *MockAuthProvider) Register(ctx context.Context, user model.UserRecord) (*model.UserRecord, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid user")
	}
	out := user
	return &out, nil
}

// LoginCalls returns how many default logins have been served.
func (m *MockAuthProvider) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// MemoryProductRepo is an in-memory product repository for unit tests.
type MemoryProductRepo struct {
	mu       sync.Mutex
	products map[string]model.Product
	order    []string
}

// NewMemoryProductRepo creates an empty in-memory product repository.
func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{products: make(map[string]model.Product)}
}

func (m *MemoryProductRepo) Create(_ context.Context, p *model.Product) (*model.Product, error) {
	if p == nil {
		return nil, errors.New("product is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[p.Code]; exists {
		return nil, apperrors.Conflictf("product %s already exists", p.Code)
	}
	m.products[p.Code] = *p
	m.order = append(m.order, p.Code)
	out := *p
	return &out, nil
}

func (m *MemoryProductRepo) GetByCode(_ context.Context, code string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return nil, apperrors.NotFoundf("product %s not found", code)
	}
	out := p
	return &out, nil
}

func (m *MemoryProductRepo) List(_ context.Context, opts model.ProductsListOptions) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	matched := make([]*model.Product, 0, len(m.order))
	for _, code := range m.order {
		p := m.products[code]
		if opts.Category != nil && p.Category != *opts.Category {
			continue
		}
		if opts.Q != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*opts.Q)) {
			continue
		}
		out := p
		matched = append(matched, &out)
	}

	if offset >= len(matched) {
		return nil, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m *MemoryProductRepo) Update(_ context.Context, code string, req model.UpdateProductRequest) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[code]
	if !ok {
		return nil, apperrors.NotFoundf("product %s not found", code)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.Reviews != nil {
		p.Reviews = *req.Reviews
	}
	m.products[code] = p
	out := p
	return &out, nil
}

func (m *MemoryProductRepo) Delete(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[code]; !ok {
		return false, nil
	}
	delete(m.products, code)
	for i, c := range m.order {
		if c == code {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// MemoryUserRepo is an in-memory user repository for unit tests.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]model.UserRecord
}

// NewMemoryUserRepo creates an empty in-memory user repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]model.UserRecord)}
}

func (m *MemoryUserRepo) Create(_ context.Context, u *model.UserRecord) (*model.UserRecord, error) {
	if u == nil {
		return nil, errors.New("user is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Email]; exists {
		return nil, apperrors.Conflictf("user %s already exists", u.Email)
	}
	m.users[u.Email] = *u
	out := *u
	return &out, nil
}

func (m *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", email)
	}
	out := u
	return &out, nil
}

func (m *MemoryUserRepo) List(_ context.Context, limit, offset int) ([]*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	emails := make([]string, 0, len(m.users))
	for email := range m.users {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	if offset >= len(emails) {
		return nil, nil
	}
	end := min(offset+limit, len(emails))

	out := make([]*model.UserRecord, 0, end-offset)
	for _, email := range emails[offset:end] {
		u := m.users[email]
		out = append(out, &u)
	}
	return out, nil
}

func (m *MemoryUserRepo) Update(_ context.Context, email string, req model.UpdateUserRequest) (*model.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", email)
	}
	if req.Nombre != nil {
		u.Nombre = *req.Nombre
	}
	if req.Apellidos != nil {
		u.Apellidos = *req.Apellidos
	}
	if req.Run != nil {
		u.Run = *req.Run
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Points != nil {
		u.Points = *req.Points
	}
	if req.Region != nil {
		u.Region = *req.Region
	}
	if req.Comuna != nil {
		u.Comuna = *req.Comuna
	}
	m.users[email] = u
	out := u
	return &out, nil
}

func (m *MemoryUserRepo) Delete(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[email]; !ok {
		return false, nil
	}
	delete(m.users, email)
	return true, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

// Persisted storage keys. One KV namespace belongs to one browser client.
const (
	keyUser  = "user"
	keyToken = "token"
	keyCart  = "cart"
)

// Snapshot is the read surface handed to subscribers and callers: an
// independent copy of the store state at one point in time.
type Snapshot struct {
	Session         domainsession.Session
	Cart            model.Cart
	DiscountApplied bool
}

// StoreOptions groups dependencies for SessionCartStore.
type StoreOptions struct {
	Storage ports.KVStore
	Auth    ports.AuthProvider
	Loyalty config.LoyaltyConfig
	Logger  *slog.Logger
}

// SessionCartStore is the single authoritative holder of one browser client's
// session and cart state. All mutation funnels through its operations; every
// mutation writes through to storage and notifies subscribers before
// returning. Session and Cart have independent lifecycles: logging out leaves
// the cart untouched.
type SessionCartStore struct {
	storage ports.KVStore
	auth    ports.AuthProvider
	loyalty config.LoyaltyConfig
	logger  *slog.Logger

	mu      sync.Mutex
	session domainsession.Session
	cart    model.Cart
	// discountApplied is ephemeral checkout state: never persisted, reset by
	// checkout, and at most one redemption per checkout cycle.
	discountApplied bool

	// Login attempts are stamped with a monotonic sequence so a stale
	// response can never regress a session applied by a later attempt.
	loginSeq     uint64
	appliedLogin uint64

	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewSessionCartStore constructs a store and rehydrates it from storage.
// Corrupt or half-present persisted state is treated as absent, never fatal:
// a broken session entry yields a logged-out store, a broken cart entry an
// empty cart.
func NewSessionCartStore(ctx context.Context, opts StoreOptions) *SessionCartStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &SessionCartStore{
		storage: opts.Storage,
		auth:    opts.Auth,
		loyalty: opts.Loyalty,
		logger:  logger,
	}
	s.loyalty.Sanitize()
	s.hydrate(ctx)
	return s
}

// hydrate loads persisted session and cart state.
func (s *SessionCartStore) hydrate(ctx context.Context) {
	token, tokenErr := s.storage.Get(ctx, keyToken)
	rawUser, userErr := s.storage.Get(ctx, keyUser)

	switch {
	case tokenErr == nil && userErr == nil:
		var user model.UserRecord
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.Email == "" || token == "" {
			s.logger.WarnContext(ctx, "corrupt persisted session treated as logged out")
		} else {
			s.session = domainsession.Session{Token: token, User: &user}
		}
	case tokenErr == nil || userErr == nil:
		// Half a session (token without user or vice versa) is inconsistent;
		// fail safe to logged out.
		s.logger.WarnContext(ctx, "inconsistent persisted session treated as logged out")
	}

	rawCart, cartErr := s.storage.Get(ctx, keyCart)
	if cartErr == nil {
		var cart model.Cart
		if err := json.Unmarshal([]byte(rawCart), &cart); err != nil {
			s.logger.WarnContext(ctx, "corrupt persisted cart treated as empty")
		} else {
			s.cart = sanitizeCart(cart)
		}
	}
}

// sanitizeCart drops lines that violate cart invariants (empty code,
// quantity < 1) and merges duplicate codes into the first occurrence.
func sanitizeCart(in model.Cart) model.Cart {
	out := make(model.Cart, 0, len(in))
	for _, line := range in {
		if line.Code == "" || line.Quantity < 1 || line.Price < 0 {
			continue
		}
		if idx := out.IndexOf(line.Code); idx >= 0 {
			out[idx].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Subscribe registers fn to be called synchronously after every committed
// mutation, with the post-mutation snapshot. It returns an unsubscribe func.
func (s *SessionCartStore) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns an independent copy of the current state.
func (s *SessionCartStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Session returns a copy of the current session.
func (s *SessionCartStore) Session() domainsession.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Cart returns a copy of the current cart.
func (s *SessionCartStore) Cart() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// IsAuthenticated reports whether a session is active.
func (s *SessionCartStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Active()
}

// DiscountApplied reports whether a discount was redeemed this checkout cycle.
func (s *SessionCartStore) DiscountApplied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discountApplied
}

// Totals returns the cart subtotal and the payable total after any applied
// discount.
func (s *SessionCartStore) Totals() (subtotal, total float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal = s.cart.Subtotal()
	total = subtotal
	if s.discountApplied {
		total = subtotal * (1 - s.loyalty.DiscountPercent)
	}
	return subtotal, total
}

// Login authenticates against the AuthAPI and establishes a session. On
// failure the store is left unchanged. Concurrent attempts resolve by
// completion order: a response that arrives after a later attempt has already
// applied is discarded and the applied session is returned instead.
func (s *SessionCartStore) Login(ctx context.Context, creds ports.Credentials) (domainsession.Session, error) {
	if strings.TrimSpace(creds.Email) == "" {
		return domainsession.Session{}, apperrors.ValidationField("email", "email is required")
	}
	if creds.Password == "" {
		return domainsession.Session{}, apperrors.ValidationField("password", "password is required")
	}

	s.mu.Lock()
	s.loginSeq++
	seq := s.loginSeq
	s.mu.Unlock()

	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			err = apperrors.Wrap(err, apperrors.ErrCodeAuth, "login failed")
		}
		return domainsession.Session{}, err
	}
	if !sess.Active() {
		return domainsession.Session{}, apperrors.Auth("auth provider returned an incomplete session")
	}

	s.mu.Lock()
	if seq < s.appliedLogin {
		current := s.session.Clone()
		applied := s.appliedLogin
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "stale login response discarded",
			"attempt_seq", seq, "applied_seq", applied)
		return current, nil
	}

	if persistErr := s.persistSession(ctx, sess); persistErr != nil {
		s.mu.Unlock()
		return domainsession.Session{}, persistErr
	}
	s.session = sess
	s.appliedLogin = seq
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return snap.Session, nil
}

// Logout clears the session in memory and storage. It is idempotent: logging
// out while logged out is a side-effect-free success. The cart is left
// untouched; it belongs to the browser client, not the identity.
func (s *SessionCartStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasActive := s.session.Active()
	s.session = domainsession.Session{}

	err := errors.Join(
		s.storage.Delete(ctx, keyToken),
		s.storage.Delete(ctx, keyUser),
	)
	if err != nil {
		s.mu.Unlock()
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "remove persisted session")
	}
	if !wasActive {
		s.mu.Unlock()
		return nil
	}
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// AddToCart adds qty units of product to the cart. If a line with the same
// code exists its quantity is incremented; the original price, name, and
// image from the first add stay authoritative.
func (s *SessionCartStore) AddToCart(ctx context.Context, product model.Product, qty int) error {
	if strings.TrimSpace(product.Code) == "" {
		return apperrors.ValidationField("code", "product code is required")
	}
	if qty < 1 {
		return apperrors.ValidationField("quantity", "quantity must be >= 1")
	}
	if product.Price < 0 {
		return apperrors.ValidationField("price", "price cannot be negative")
	}

	s.mu.Lock()
	next := s.cart.Clone()
	if idx := next.IndexOf(product.Code); idx >= 0 {
		next[idx].Quantity += qty
	} else {
		next = append(next, model.CartLine{
			Code:     product.Code,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: qty,
		})
	}

	if err := s.persistCart(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// RemoveFromCart decrements the line with the given code by qty, removing it
// entirely when the quantity reaches zero. A missing code is a silent no-op:
// nothing is persisted and no notification fires.
func (s *SessionCartStore) RemoveFromCart(ctx context.Context, code string, qty int) error {
	if qty < 1 {
		return apperrors.ValidationField("quantity", "quantity must be >= 1")
	}

	s.mu.Lock()
	idx := s.cart.IndexOf(code)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	next := s.cart.Clone()
	next[idx].Quantity -= qty
	if next[idx].Quantity <= 0 {
		next = append(next[:idx], next[idx+1:]...)
	}

	if err := s.persistCart(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = next
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// ClearCart empties the cart unconditionally. Idempotent.
func (s *SessionCartStore) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if err := s.persistCart(ctx, nil); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = nil
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// RedeemPoints deducts cost points from the logged-in user in exchange for
// the configured discount. At most one redemption per checkout cycle.
func (s *SessionCartStore) RedeemPoints(ctx context.Context, cost int) error {
	if cost <= 0 {
		return apperrors.ValidationField("cost", "cost must be > 0")
	}

	s.mu.Lock()
	if !s.session.Active() {
		s.mu.Unlock()
		return apperrors.Auth("login required to redeem points")
	}
	if s.discountApplied {
		s.mu.Unlock()
		return apperrors.DiscountApplied("a discount has already been applied this checkout")
	}
	if s.session.User.Points < cost {
		points := s.session.User.Points
		s.mu.Unlock()
		return apperrors.InsufficientPointsf("need %d points, have %d", cost, points)
	}

	updated := s.session.Clone()
	updated.User.Points -= cost
	if err := s.persistUser(ctx, updated.User); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session = updated
	s.discountApplied = true
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// Checkout converts the cart total into earned loyalty points, empties the
// cart, and resets the discount state. It is local bookkeeping only: no
// payment collaborator is involved. Guests check out without earning points.
func (s *SessionCartStore) Checkout(ctx context.Context, total float64) (*model.CheckoutReceipt, error) {
	if total < 0 {
		return nil, apperrors.ValidationField("total", "total cannot be negative")
	}

	s.mu.Lock()
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return nil, apperrors.EmptyCart("cart is empty")
	}

	earned := 0
	updated := s.session.Clone()
	if updated.Active() {
		earned = model.PointsFor(total, s.loyalty.PointsConversionRate)
		updated.User.Points += earned
		if err := s.persistUser(ctx, updated.User); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	if err := s.persistCart(ctx, nil); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.session = updated
	s.cart = nil
	s.discountApplied = false
	snap, subs := s.commitLocked()
	s.mu.Unlock()

	receipt := &model.CheckoutReceipt{
		ID:           uuid.NewString(),
		TotalCharged: total,
		PointsEarned: earned,
		CreatedAt:    time.Now().UTC(),
	}
	notify(subs, snap)
	return receipt, nil
}

// --- persistence helpers (called with s.mu held) ---

func (s *SessionCartStore) persistSession(ctx context.Context, sess domainsession.Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode user")
	}
	if err := s.storage.Set(ctx, keyUser, string(raw)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist user")
	}
	if err := s.storage.Set(ctx, keyToken, sess.Token); err != nil {
		// Roll back the user entry so storage never holds half a session.
		if delErr := s.storage.Delete(ctx, keyUser); delErr != nil {
			s.logger.WarnContext(ctx, "rollback of persisted user failed", "error", delErr)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist token")
	}
	return nil
}

func (s *SessionCartStore) persistUser(ctx context.Context, user *model.UserRecord) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode user")
	}
	if err := s.storage.Set(ctx, keyUser, string(raw)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist user")
	}
	return nil
}

func (s *SessionCartStore) persistCart(ctx context.Context, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode cart")
	}
	if err := s.storage.Set(ctx, keyCart, string(raw)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist cart")
	}
	return nil
}

func (s *SessionCartStore) snapshotLocked() Snapshot {
	return Snapshot{
		Session:         s.session.Clone(),
		Cart:            s.cart.Clone(),
		DiscountApplied: s.discountApplied,
	}
}

// commitLocked captures the post-mutation snapshot and the subscriber list.
// Subscribers run after the lock is released but before the mutating call
// returns, so callers always observe the already-persisted value.
func (s *SessionCartStore) commitLocked() (Snapshot, []func(Snapshot)) {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), len(s.subscribers))
	for i, sub := range s.subscribers {
		subs[i] = sub.fn
	}
	return snap, subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

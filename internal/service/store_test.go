package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/domain/model"
	domainsession "github.com/levelup/storefront/internal/domain/session"
	apperrors "github.com/levelup/storefront/internal/errors"
	mocks "github.com/levelup/storefront/internal/mocks/storefront"
	"github.com/levelup/storefront/internal/ports"
)

func testLoyalty() config.LoyaltyConfig {
	return config.LoyaltyConfig{RedeemCost: 500, DiscountPercent: 0.10, PointsConversionRate: 1000}
}

func newTestStore(t *testing.T) (*SessionCartStore, *mocks.MemoryKV, *mocks.MockAuthProvider) {
	t.Helper()
	kv := mocks.NewMemoryKV()
	auth := mocks.NewMockAuthProvider()
	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    auth,
		Loyalty: testLoyalty(),
	})
	return store, kv, auth
}

func catan() model.Product {
	return model.Product{Code: "JM001", Name: "Catan", Price: 29990, Image: "/img/catan.png"}
}

func mouse() model.Product {
	return model.Product{Code: "AC002", Name: "Mouse Gamer", Price: 12990}
}

// --- initialization / hydration ---

func TestNewSessionCartStore_EmptyStorage(t *testing.T) {
	store, _, _ := newTestStore(t)

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Cart())
	assert.False(t, store.DiscountApplied())
}

func TestNewSessionCartStore_HydratesPersistedState(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("token", "tok-abc")
	kv.Put("user", `{"email":"gamer@levelup.cl","nombre":"Gamer","role":"USER","points":120}`)
	kv.Put("cart", `[{"code":"JM001","name":"Catan","price":29990,"quantity":2}]`)

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	require.True(t, store.IsAuthenticated())
	assert.Equal(t, "tok-abc", store.Session().Token)
	assert.Equal(t, 120, store.Session().User.Points)

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, "JM001", cart[0].Code)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestNewSessionCartStore_CorruptUserFailsOpenToLoggedOut(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("token", "tok-abc")
	kv.Put("user", `{not json`)
	kv.Put("cart", `[{"code":"JM001","name":"Catan","price":29990,"quantity":1}]`)

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	assert.False(t, store.IsAuthenticated())
	// A broken session entry must not take the cart down with it.
	assert.Len(t, store.Cart(), 1)
}

func TestNewSessionCartStore_TokenWithoutUserIsLoggedOut(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("token", "tok-abc")

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	assert.False(t, store.IsAuthenticated())
}

func TestNewSessionCartStore_UserWithoutTokenIsLoggedOut(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("user", `{"email":"gamer@levelup.cl","nombre":"Gamer","role":"USER","points":0}`)

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	assert.False(t, store.IsAuthenticated())
}

func TestNewSessionCartStore_CorruptCartFailsOpenToEmpty(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("cart", `not an array`)

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	assert.Empty(t, store.Cart())
}

func TestNewSessionCartStore_SanitizesInvalidCartLines(t *testing.T) {
	kv := mocks.NewMemoryKV()
	kv.Put("cart", `[
		{"code":"JM001","name":"Catan","price":29990,"quantity":2},
		{"code":"","name":"ghost","price":1,"quantity":1},
		{"code":"AC002","name":"Mouse","price":12990,"quantity":0},
		{"code":"JM001","name":"Catan dup","price":99999,"quantity":3}
	]`)

	store := NewSessionCartStore(context.Background(), StoreOptions{
		Storage: kv,
		Auth:    mocks.NewMockAuthProvider(),
		Loyalty: testLoyalty(),
	})

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, "JM001", cart[0].Code)
	assert.Equal(t, 5, cart[0].Quantity)
	// First occurrence's price stays authoritative.
	assert.InDelta(t, 29990, cart[0].Price, 0.001)
}

// --- login / logout ---

func TestLogin_Success(t *testing.T) {
	store, kv, _ := newTestStore(t)

	sess, err := store.Login(context.Background(), ports.Credentials{Email: "mock.user@levelup.cl", Password: "secret"})

	require.NoError(t, err)
	assert.True(t, sess.Active())
	assert.True(t, store.IsAuthenticated())

	// Write-through: both halves persisted.
	assert.Equal(t, "mock-token-1", kv.Raw("token"))
	assert.Contains(t, kv.Raw("user"), "mock.user@levelup.cl")
}

func TestLogin_ValidationRejectedLocally(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, ports.Credentials{Email: "", Password: "x"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = store.Login(ctx, ports.Credentials{Email: "a@b.cl", Password: ""})
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, auth.LoginCalls(), "provider must not be called for invalid input")
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_ProviderFailureLeavesStateUnchanged(t *testing.T) {
	store, kv, auth := newTestStore(t)
	auth.LoginFunc = func(context.Context, ports.Credentials) (domainsession.Session, error) {
		return domainsession.Session{}, apperrors.Auth("invalid credentials")
	}

	_, err := store.Login(context.Background(), ports.Credentials{Email: "a@b.cl", Password: "bad"})

	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.False(t, store.IsAuthenticated())
	assert.False(t, kv.Has("token"))
	assert.False(t, kv.Has("user"))
}

func TestLogin_PersistFailureLeavesStateUnchanged(t *testing.T) {
	store, kv, _ := newTestStore(t)
	kv.SetErr = errors.New("redis down")

	_, err := store.Login(context.Background(), ports.Credentials{Email: "a@b.cl", Password: "x"})

	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_StaleResponseDoesNotRegressSession(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	auth.LoginFunc = func(_ context.Context, creds ports.Credentials) (domainsession.Session, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-releaseFirst
		}
		user := model.UserRecord{Email: creds.Email, Nombre: "U", Role: model.RoleUser}
		return domainsession.Session{Token: "tok-" + creds.Email, User: &user}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstResult domainsession.Session
	go func() {
		defer wg.Done()
		firstResult, _ = store.Login(ctx, ports.Credentials{Email: "first@levelup.cl", Password: "x"})
	}()

	<-firstStarted

	// Second attempt starts later but completes first.
	second, err := store.Login(ctx, ports.Credentials{Email: "second@levelup.cl", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "tok-second@levelup.cl", second.Token)

	close(releaseFirst)
	wg.Wait()

	// The stale first response was discarded: the later-applied session wins
	// and the first caller observed it rather than its own.
	assert.Equal(t, "tok-second@levelup.cl", store.Session().Token)
	assert.Equal(t, "tok-second@levelup.cl", firstResult.Token)
}

func TestLogout_ReturnsToPreLoginState(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, ports.Credentials{Email: "a@b.cl", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))

	sess := store.Session()
	assert.Empty(t, sess.Token)
	assert.Nil(t, sess.User)
	assert.False(t, kv.Has("token"))
	assert.False(t, kv.Has("user"))
}

func TestLogout_Idempotent(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Logout(ctx))
	assert.NoError(t, store.Logout(ctx))
}

func TestLogout_KeepsCart(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, ports.Credentials{Email: "a@b.cl", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, store.AddToCart(ctx, catan(), 2))

	require.NoError(t, store.Logout(ctx))

	// The cart belongs to the browser client, not the identity.
	assert.Len(t, store.Cart(), 1)
}

// --- cart operations ---

func TestAddToCart_NewLine(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 1))

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
	assert.Contains(t, kv.Raw("cart"), "JM001")
}

func TestAddToCart_IncrementsExistingLine(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 2))
	require.NoError(t, store.AddToCart(ctx, catan(), 3))

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 5, cart[0].Quantity)
}

func TestAddToCart_PriceAtAddTimeIsSticky(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 1))

	repriced := catan()
	repriced.Price = 99990
	repriced.Name = "Catan Deluxe"
	require.NoError(t, store.AddToCart(ctx, repriced, 1))

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.InDelta(t, 29990, cart[0].Price, 0.001)
	assert.Equal(t, "Catan", cart[0].Name)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestAddToCart_InvalidInputRejected(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	err := store.AddToCart(ctx, model.Product{Code: "", Name: "x", Price: 1}, 1)
	assert.True(t, apperrors.IsValidation(err))

	err = store.AddToCart(ctx, catan(), 0)
	assert.True(t, apperrors.IsValidation(err))

	err = store.AddToCart(ctx, model.Product{Code: "N1", Price: -5}, 1)
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, store.Cart())
	assert.Zero(t, kv.SetCalls)
}

func TestRemoveFromCart_Decrements(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 3))
	require.NoError(t, store.RemoveFromCart(ctx, "JM001", 1))

	cart := store.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestRemoveFromCart_RemovesLineAtZeroOrBelow(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 2))
	require.NoError(t, store.RemoveFromCart(ctx, "JM001", 5))

	assert.Empty(t, store.Cart())

	// Removing again is a silent no-op.
	assert.NoError(t, store.RemoveFromCart(ctx, "JM001", 1))
}

func TestRemoveFromCart_MissingCodeIsNoOp(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 1))
	writes := kv.SetCalls

	notified := false
	store.Subscribe(func(Snapshot) { notified = true })

	assert.NoError(t, store.RemoveFromCart(ctx, "NOPE", 1))
	assert.Equal(t, writes, kv.SetCalls, "no-op must not persist")
	assert.False(t, notified, "no-op must not notify")
}

func TestClearCart(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 2))
	require.NoError(t, store.AddToCart(ctx, mouse(), 1))

	require.NoError(t, store.ClearCart(ctx))
	assert.Empty(t, store.Cart())
	assert.JSONEq(t, `[]`, kv.Raw("cart"))

	// Idempotent.
	assert.NoError(t, store.ClearCart(ctx))
}

func TestCart_InvariantsHoldAcrossMixedOperations(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	ops := []func() error{
		func() error { return store.AddToCart(ctx, catan(), 2) },
		func() error { return store.AddToCart(ctx, mouse(), 1) },
		func() error { return store.RemoveFromCart(ctx, "JM001", 1) },
		func() error { return store.AddToCart(ctx, catan(), 4) },
		func() error { return store.RemoveFromCart(ctx, "AC002", 3) },
		func() error { return store.RemoveFromCart(ctx, "ZZ999", 1) },
		func() error { return store.AddToCart(ctx, mouse(), 2) },
	}
	for _, op := range ops {
		require.NoError(t, op())

		seen := map[string]bool{}
		for _, line := range store.Cart() {
			assert.GreaterOrEqual(t, line.Quantity, 1, "no retained line may drop below quantity 1")
			assert.False(t, seen[line.Code], "codes must stay unique")
			seen[line.Code] = true
		}
	}
}

// --- loyalty: redeem + checkout ---

func loginWithPoints(t *testing.T, store *SessionCartStore, auth *mocks.MockAuthProvider, points int) {
	t.Helper()
	auth.DefaultUser.Points = points
	_, err := store.Login(context.Background(), ports.Credentials{Email: "gamer@levelup.cl", Password: "x"})
	require.NoError(t, err)
}

func TestRedeemPoints_Success(t *testing.T) {
	store, kv, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 500)

	require.NoError(t, store.RedeemPoints(ctx, 500))

	assert.Zero(t, store.Session().User.Points)
	assert.True(t, store.DiscountApplied())
	assert.Contains(t, kv.Raw("user"), `"points":0`)
}

func TestRedeemPoints_SecondRedemptionFailsEvenWithPoints(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 2000)

	require.NoError(t, store.RedeemPoints(ctx, 500))

	err := store.RedeemPoints(ctx, 500)
	require.Error(t, err)
	assert.True(t, apperrors.IsDiscountApplied(err))
	assert.Equal(t, 1500, store.Session().User.Points, "points deducted exactly once")
}

func TestRedeemPoints_InsufficientPoints(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 499)

	err := store.RedeemPoints(ctx, 500)

	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientPoints(err))
	assert.Equal(t, 499, store.Session().User.Points)
	assert.False(t, store.DiscountApplied())
}

func TestRedeemPoints_RequiresSession(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.RedeemPoints(context.Background(), 500)

	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestCheckout_EndToEnd(t *testing.T) {
	store, kv, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 0)

	require.NoError(t, store.AddToCart(ctx, model.Product{Code: "X", Name: "X", Price: 10000}, 1))

	receipt, err := store.Checkout(ctx, 10000)

	require.NoError(t, err)
	assert.Equal(t, 10, receipt.PointsEarned)
	assert.InDelta(t, 10000, receipt.TotalCharged, 0.001)
	assert.NotEmpty(t, receipt.ID)

	assert.Equal(t, 10, store.Session().User.Points)
	assert.Empty(t, store.Cart())
	assert.False(t, store.DiscountApplied())
	assert.Contains(t, kv.Raw("user"), `"points":10`)
	assert.JSONEq(t, `[]`, kv.Raw("cart"))
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Checkout(context.Background(), 1000)

	require.Error(t, err)
	assert.True(t, apperrors.IsEmptyCart(err))
}

func TestCheckout_GuestEarnsNoPoints(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToCart(ctx, catan(), 1))

	receipt, err := store.Checkout(ctx, 29990)

	require.NoError(t, err)
	assert.Zero(t, receipt.PointsEarned)
	assert.Empty(t, store.Cart())
	assert.False(t, kv.Has("user"))
}

func TestCheckout_ResetsDiscountForNextCycle(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 1000)

	require.NoError(t, store.AddToCart(ctx, catan(), 1))
	require.NoError(t, store.RedeemPoints(ctx, 500))

	_, err := store.Checkout(ctx, 26991)
	require.NoError(t, err)

	// A fresh cycle allows a new redemption.
	require.NoError(t, store.AddToCart(ctx, mouse(), 1))
	assert.NoError(t, store.RedeemPoints(ctx, 500))
}

func TestTotals_AppliesDiscountPercent(t *testing.T) {
	store, _, auth := newTestStore(t)
	ctx := context.Background()
	loginWithPoints(t, store, auth, 500)

	require.NoError(t, store.AddToCart(ctx, model.Product{Code: "X", Name: "X", Price: 10000}, 2))

	subtotal, total := store.Totals()
	assert.InDelta(t, 20000, subtotal, 0.001)
	assert.InDelta(t, 20000, total, 0.001)

	require.NoError(t, store.RedeemPoints(ctx, 500))

	subtotal, total = store.Totals()
	assert.InDelta(t, 20000, subtotal, 0.001)
	assert.InDelta(t, 18000, total, 0.001)
}

// --- subscriptions ---

func TestSubscribe_NotifiedWithPostMutationSnapshot(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	var got []Snapshot
	store.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
		// Notification happens after persistence succeeded.
		assert.Contains(t, kv.Raw("cart"), "JM001")
	})

	require.NoError(t, store.AddToCart(ctx, catan(), 2))

	require.Len(t, got, 1)
	require.Len(t, got[0].Cart, 1)
	assert.Equal(t, 2, got[0].Cart[0].Quantity)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })

	require.NoError(t, store.AddToCart(ctx, catan(), 1))
	unsubscribe()
	require.NoError(t, store.AddToCart(ctx, catan(), 1))

	assert.Equal(t, 1, calls)
}

func TestSubscribe_AllSubscribersSeeSameSnapshot(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	var first, second Snapshot
	store.Subscribe(func(s Snapshot) { first = s })
	store.Subscribe(func(s Snapshot) { second = s })

	require.NoError(t, store.AddToCart(ctx, catan(), 3))

	assert.Equal(t, first.Cart, second.Cart)
	assert.Equal(t, 3, first.Cart[0].Quantity)
}

// --- persistence round trip ---

func TestRestart_ReproducesStateAfterEveryMutation(t *testing.T) {
	kv := mocks.NewMemoryKV()
	auth := mocks.NewMockAuthProvider()
	auth.DefaultUser.Points = 700
	ctx := context.Background()

	opts := StoreOptions{Storage: kv, Auth: auth, Loyalty: testLoyalty()}
	store := NewSessionCartStore(ctx, opts)

	_, err := store.Login(ctx, ports.Credentials{Email: "gamer@levelup.cl", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, store.AddToCart(ctx, catan(), 2))
	require.NoError(t, store.AddToCart(ctx, mouse(), 1))
	require.NoError(t, store.RemoveFromCart(ctx, "AC002", 1))
	require.NoError(t, store.RedeemPoints(ctx, 500))

	before := store.Snapshot()

	// Simulate a page reload: a fresh store over the same storage.
	reloaded := NewSessionCartStore(ctx, opts)

	after := reloaded.Snapshot()
	assert.Equal(t, before.Session, after.Session)
	assert.Equal(t, before.Cart, after.Cart)
	// Discount state is never persisted, so it resets on reload.
	assert.False(t, after.DiscountApplied)
}

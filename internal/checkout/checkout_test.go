package checkout

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/vouchhq/vouch/internal/models"
)

var errNumberTaken = errors.New("order number taken")

type fakeStore struct {
	products map[uuid.UUID]*models.Product
	orders   []models.Order

	insertFailures map[uuid.UUID]error
	collisions     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:       make(map[uuid.UUID]*models.Product),
		insertFailures: make(map[uuid.UUID]error),
	}
}

func (f *fakeStore) addProduct(sellerID uuid.UUID, title string, price models.Money) uuid.UUID {
	id := uuid.New()
	f.products[id] = &models.Product{ID: id, SellerID: sellerID, Title: title, Price: price}
	return id
}

func (f *fakeStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	return product, nil
}

func (f *fakeStore) GetProductSeller(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	product, ok := f.products[productID]
	if !ok {
		return uuid.Nil, errors.New("product not found")
	}
	return product.SellerID, nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if err, ok := f.insertFailures[order.ProductID]; ok {
		return nil, err
	}
	if f.collisions > 0 {
		f.collisions--
		return nil, errNumberTaken
	}
	order.ID = uuid.New()
	f.orders = append(f.orders, order)
	return &order, nil
}

type fakeCarts struct {
	carts map[string][]models.CartItem
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: make(map[string][]models.CartItem)}
}

func (f *fakeCarts) Get(ctx context.Context, ownerID string) (*models.Cart, error) {
	return &models.Cart{OwnerID: ownerID, Items: f.carts[ownerID]}, nil
}

func (f *fakeCarts) RemoveItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	items := f.carts[ownerID]
	for i, item := range items {
		if item.ProductID == productID {
			f.carts[ownerID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestService(store *fakeStore, carts *fakeCarts) *Service {
	return NewService(store, carts, DefaultFeeRateBps, func(err error) bool {
		return errors.Is(err, errNumberTaken)
	}, slog.New(slog.DiscardHandler)).WithSleep(func(ctx context.Context, d time.Duration) {})
}

func testBuyer() *models.Profile {
	return &models.Profile{ID: uuid.New(), Email: "buyer@example.com"}
}

func cartLine(store *fakeStore, productID uuid.UUID, quantity int) models.CartItem {
	product := store.products[productID]
	return models.CartItem{
		ProductID: productID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  quantity,
		SellerID:  product.SellerID,
	}
}

func TestCheckout_MultiSellerCart(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	sellerA := uuid.New()
	sellerB := uuid.New()
	productA := store.addProduct(sellerA, "Beat Pack", models.NewMoney(1000, currency.USD))
	productB := store.addProduct(sellerB, "Sample Kit", models.NewMoney(500, currency.USD))

	buyer := testBuyer()
	ownerID := buyer.ID.String()
	carts.carts[ownerID] = []models.CartItem{
		cartLine(store, productA, 2),
		cartLine(store, productB, 1),
	}

	receipt, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 2)

	first := receipt.Orders[0]
	assert.Equal(t, sellerA, first.SellerID)
	assert.Equal(t, int64(2000), first.AmountPaid)
	assert.Equal(t, int64(100), first.PlatformFee)
	assert.Equal(t, int64(1900), first.SellerEarnings)
	assert.Equal(t, models.OrderStatusCompleted, first.Status)
	require.NotNil(t, first.CompletedAt)

	second := receipt.Orders[1]
	assert.Equal(t, sellerB, second.SellerID)
	assert.Equal(t, int64(500), second.AmountPaid)
	assert.Equal(t, int64(25), second.PlatformFee)
	assert.Equal(t, int64(475), second.SellerEarnings)

	assert.Equal(t, int64(2500), receipt.Totals["USD"].Amount)
	assert.Empty(t, carts.carts[ownerID], "settled lines should be cleared")
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeCarts())

	_, err := svc.Checkout(context.Background(), testBuyer(), models.PaymentMethodMTNMomo, "231770000001", nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_PartialSettlement(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	good := store.addProduct(seller, "Beat Pack", models.NewMoney(1000, currency.USD))
	bad := store.addProduct(seller, "Sample Kit", models.NewMoney(500, currency.USD))
	store.insertFailures[bad] = errors.New("connection reset")

	buyer := testBuyer()
	ownerID := buyer.ID.String()
	carts.carts[ownerID] = []models.CartItem{
		cartLine(store, good, 1),
		cartLine(store, bad, 1),
	}

	receipt, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.ErrorIs(t, err, ErrPartialSettlement)

	// The first line committed and was cleared; the failed line stays.
	require.Len(t, receipt.Orders, 1)
	assert.Equal(t, good, receipt.Orders[0].ProductID)
	require.Len(t, carts.carts[ownerID], 1)
	assert.Equal(t, bad, carts.carts[ownerID][0].ProductID)
}

func TestCheckout_FirstLineFailureIsNotPartial(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	bad := store.addProduct(seller, "Beat Pack", models.NewMoney(1000, currency.USD))
	store.insertFailures[bad] = errors.New("connection reset")

	buyer := testBuyer()
	carts.carts[buyer.ID.String()] = []models.CartItem{cartLine(store, bad, 1)}

	_, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartialSettlement)
}

func TestCheckout_OrderNumberCollisionRetries(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)
	store.collisions = 2

	seller := uuid.New()
	productID := store.addProduct(seller, "Beat Pack", models.NewMoney(1000, currency.USD))

	buyer := testBuyer()
	carts.carts[buyer.ID.String()] = []models.CartItem{cartLine(store, productID, 1)}

	receipt, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 1)
	assert.Regexp(t, `^ORD-[A-Z0-9]{8}$`, receipt.Orders[0].OrderNumber)
}

func TestCheckout_SellerRederivedAtSettlement(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	originalSeller := uuid.New()
	productID := store.addProduct(originalSeller, "Beat Pack", models.NewMoney(1000, currency.USD))

	buyer := testBuyer()
	stale := cartLine(store, productID, 1)
	stale.SellerID = uuid.New() // snapshot pointing at the wrong seller
	carts.carts[buyer.ID.String()] = []models.CartItem{stale}

	receipt, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.NoError(t, err)
	assert.Equal(t, originalSeller, receipt.Orders[0].SellerID)
}

func TestCheckout_StepsReported(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	productID := store.addProduct(seller, "Beat Pack", models.NewMoney(1000, currency.USD))
	buyer := testBuyer()
	carts.carts[buyer.ID.String()] = []models.CartItem{cartLine(store, productID, 1)}

	var steps []Step
	_, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", func(s Step) {
		steps = append(steps, s)
	})
	require.NoError(t, err)
	if diff := cmp.Diff([]Step{StepPrompting, StepVerifying, StepCompleting}, steps); diff != "" {
		t.Errorf("step sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckout_NotifiesPerOrder(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	productA := store.addProduct(seller, "Beat Pack", models.NewMoney(1000, currency.USD))
	productB := store.addProduct(seller, "Sample Kit", models.NewMoney(500, currency.USD))

	var notified []models.Order
	svc.SetNotify(func(order models.Order) { notified = append(notified, order) })

	buyer := testBuyer()
	carts.carts[buyer.ID.String()] = []models.CartItem{
		cartLine(store, productA, 1),
		cartLine(store, productB, 1),
	}

	_, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodMTNMomo, "231770000001", nil)
	require.NoError(t, err)
	assert.Len(t, notified, 2)
}

func TestDirectBuy(t *testing.T) {
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	productID := store.addProduct(seller, "Coaching Call", models.NewMoney(5000, currency.USD))

	receipt, err := svc.DirectBuy(context.Background(), testBuyer(), productID, models.PaymentMethodOrangeMoney, "231880000002", nil)
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 1)

	order := receipt.Orders[0]
	assert.Equal(t, int64(5000), order.AmountPaid)
	assert.Equal(t, int64(250), order.PlatformFee)
	assert.Equal(t, int64(4750), order.SellerEarnings)
	assert.Equal(t, models.PaymentMethodOrangeMoney, order.PaymentMethod)
}

func TestCheckout_FeeSplitAlwaysSums(t *testing.T) {
	gofakeit.Seed(42)
	store := newFakeStore()
	carts := newFakeCarts()
	svc := newTestService(store, carts)

	seller := uuid.New()
	buyer := testBuyer()
	ownerID := buyer.ID.String()

	for i := 0; i < 20; i++ {
		price := int64(gofakeit.Number(1, 1000000))
		productID := store.addProduct(seller, gofakeit.ProductName(), models.NewMoney(price, currency.USD))
		carts.carts[ownerID] = append(carts.carts[ownerID], cartLine(store, productID, gofakeit.Number(1, 5)))
	}

	receipt, err := svc.Checkout(context.Background(), buyer, models.PaymentMethodTipMe, "231770000001", nil)
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 20)

	for _, order := range receipt.Orders {
		assert.Equal(t, order.AmountPaid, order.PlatformFee+order.SellerEarnings)
		assert.Equal(t, order.AmountPaid*DefaultFeeRateBps/10000, order.PlatformFee)
		assert.GreaterOrEqual(t, order.SellerEarnings, int64(0))
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := GenerateOrderNumber()
		assert.Regexp(t, pattern, number)
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}

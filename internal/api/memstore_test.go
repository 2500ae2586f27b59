package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vouchhq/vouch/internal/db"
	"github.com/vouchhq/vouch/internal/models"
)

// memStore is an in-memory stand-in for *db.DB that backs every service
// in the handler tests. It mirrors the Postgres semantics the handlers
// rely on, including the sentinel errors.
type memStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
	products map[uuid.UUID]*models.Product
	carts    map[string][]models.CartItem
	orders   []models.Order
	payouts  map[uuid.UUID][]models.Payout
}

func newMemStore() *memStore {
	return &memStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		products: make(map[uuid.UUID]*models.Product),
		carts:    make(map[string][]models.CartItem),
		payouts:  make(map[uuid.UUID][]models.Payout),
	}
}

func (m *memStore) CreateProfile(ctx context.Context, email, passwordHash, username, fullName string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email || p.Username == username {
			return nil, db.ErrDuplicate
		}
	}
	profile := &models.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Username:     username,
		FullName:     fullName,
		CreatedAt:    time.Now(),
	}
	m.profiles[profile.ID] = profile
	return profile, nil
}

func (m *memStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return profile, nil
}

func (m *memStore) SetPayoutDestination(ctx context.Context, sellerID uuid.UUID, method, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[sellerID]
	if !ok {
		return db.ErrNotFound
	}
	profile.PayoutMethod = method
	profile.PayoutNumber = number
	return nil
}

func (m *memStore) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return db.ErrNotFound
	}
	profile.HasCompletedOnboarding = true
	return nil
}

func (m *memStore) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = &p
	return &p, nil
}

func (m *memStore) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok || existing.SellerID != p.SellerID {
		return nil, db.ErrNotFound
	}
	existing.Title = p.Title
	existing.Description = p.Description
	existing.Price = p.Price
	existing.IsPublished = p.IsPublished
	existing.UpdatedAt = time.Now()
	return existing, nil
}

func (m *memStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return product, nil
}

func (m *memStore) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Slug == slug && p.IsPublished {
			return p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memStore) GetSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetProductSeller(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if !ok {
		return uuid.Nil, db.ErrNotFound
	}
	return product.SellerID, nil
}

func (m *memStore) IncrementViewCount(ctx context.Context, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product, ok := m.products[productID]; ok {
		product.ViewCount++
	}
	return nil
}

func (m *memStore) GetCart(ctx context.Context, ownerID string) (models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.Cart{OwnerID: ownerID, Items: append([]models.CartItem(nil), m.carts[ownerID]...)}, nil
}

func (m *memStore) AddCartItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if !ok || !product.IsPublished {
		return db.ErrNotFound
	}
	for i, item := range m.carts[ownerID] {
		if item.ProductID == productID {
			m.carts[ownerID][i].Quantity++
			return nil
		}
	}
	m.carts[ownerID] = append(m.carts[ownerID], models.CartItem{
		ProductID: productID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  1,
		SellerID:  product.SellerID,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *memStore) RemoveCartItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[ownerID]
	for i, item := range items {
		if item.ProductID == productID {
			m.carts[ownerID] = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, guest := range m.carts[sessionID] {
		merged := false
		for i, item := range m.carts[userID.String()] {
			if item.ProductID == guest.ProductID {
				m.carts[userID.String()][i].Quantity += guest.Quantity
				merged = true
				break
			}
		}
		if !merged {
			m.carts[userID.String()] = append(m.carts[userID.String()], guest)
		}
	}
	delete(m.carts, sessionID)
	return nil
}

func (m *memStore) InsertOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.OrderNumber == order.OrderNumber {
			return nil, db.ErrOrderNumberTaken
		}
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	m.orders = append(m.orders, order)
	return &order, nil
}

func (m *memStore) GetSellerOrders(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.SellerID == sellerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) SellerEarningsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status == models.OrderStatusCompleted {
			total += o.SellerEarnings
		}
	}
	return total, nil
}

func (m *memStore) SellerPayoutsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payoutsTotalLocked(sellerID), nil
}

func (m *memStore) payoutsTotalLocked(sellerID uuid.UUID) int64 {
	var total int64
	for _, p := range m.payouts[sellerID] {
		if p.Status.CountsAgainstBalance() {
			total += p.Amount
		}
	}
	return total
}

func (m *memStore) GetSellerPayouts(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Payout(nil), m.payouts[sellerID]...), nil
}

func (m *memStore) CreatePayout(ctx context.Context, sellerID uuid.UUID, amount int64, method, destinationNumber string) (*models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var earnings int64
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status == models.OrderStatusCompleted {
			earnings += o.SellerEarnings
		}
	}
	available := earnings - m.payoutsTotalLocked(sellerID)
	if available < 0 {
		available = 0
	}
	if amount > available {
		return nil, db.ErrInsufficientBalance
	}

	payout := models.Payout{
		ID:                uuid.New(),
		SellerID:          sellerID,
		Amount:            amount,
		Currency:          "USD",
		PaymentMethod:     method,
		DestinationNumber: destinationNumber,
		Status:            models.PayoutStatusPending,
		CreatedAt:         time.Now(),
	}
	m.payouts[sellerID] = append(m.payouts[sellerID], payout)
	return &payout, nil
}

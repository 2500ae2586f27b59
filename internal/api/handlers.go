package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/vouchhq/vouch/internal/auth"
	"github.com/vouchhq/vouch/internal/cart"
	"github.com/vouchhq/vouch/internal/checkout"
	"github.com/vouchhq/vouch/internal/db"
	"github.com/vouchhq/vouch/internal/media"
	"github.com/vouchhq/vouch/internal/models"
	"github.com/vouchhq/vouch/internal/payouts"
	"github.com/vouchhq/vouch/internal/rates"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

// guestSessionHeader carries the client-generated opaque guest cart token.
const guestSessionHeader = "X-Guest-Session"

// Store is the direct persistence surface the handlers use outside the
// domain services; *db.DB satisfies it.
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	SetPayoutDestination(ctx context.Context, sellerID uuid.UUID, method, number string) error
	CompleteOnboarding(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)

	GetSellerOrders(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Store    Store
	Auth     *auth.AuthService
	Carts    *cart.Service
	Checkout *checkout.Service
	Payouts  *payouts.Service
	Rates    *rates.Cache
	Views    *media.Tracker
	Signer   *media.Signer
	Hub      *Hub
	Logger   *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(store Store, authService *auth.AuthService, carts *cart.Service, co *checkout.Service,
	po *payouts.Service, rateCache *rates.Cache, views *media.Tracker, signer *media.Signer,
	hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Auth:     authService,
		Carts:    carts,
		Checkout: co,
		Payouts:  po,
		Rates:    rateCache,
		Views:    views,
		Signer:   signer,
		Hub:      hub,
		Logger:   logger,
	}
}

// Router assembles all routes. Used by both cmd/server and the tests.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	// Public endpoints
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/products/{slug}", h.GetProduct)
	r.Get("/rates", h.GetRate)

	// Cart endpoints work for guests (via X-Guest-Session) and users alike
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddCartItem)
	r.Delete("/cart/items/{productID}", h.RemoveCartItem)

	// Protected endpoints (require JWT)
	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)
		r.Post("/cart/merge", h.MergeCart)
		r.Post("/checkout", h.CheckoutCart)
		r.Post("/checkout/direct", h.DirectBuy)
		r.Get("/dashboard/orders", h.GetSellerOrders)
		r.Get("/dashboard/purchases", h.GetPurchases)
		r.Get("/dashboard/products", h.GetSellerProducts)
		r.Post("/dashboard/products", h.CreateProduct)
		r.Put("/dashboard/products/{id}", h.UpdateProduct)
		r.Get("/dashboard/payouts", h.GetPayouts)
		r.Get("/dashboard/payouts/stats", h.GetPayoutStats)
		r.Post("/dashboard/payouts", h.RequestPayout)
		r.Put("/dashboard/settings/payout-destination", h.SetPayoutDestination)
		r.Post("/dashboard/onboarding/complete", h.CompleteOnboarding)
		r.Post("/dashboard/videos/sign", h.SignVideoUpload)
		r.Get("/ws", h.HandleWebSocket)
	})

	return r
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	profile, err := h.Auth.Register(r.Context(), req.Email, req.Password, req.Username, req.FullName)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			http.Error(w, `{"error": "Email or username already taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error": "Failed to register user"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       profile.ID,
		"username": profile.Username,
	})
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, `{"error": "Invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	writeJSON(w, map[string]string{"token": token})
}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, `{"error": "Authorization header required"}`, http.StatusUnauthorized)
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		userID, err := h.Auth.GetUserFromToken(tokenString)
		if err != nil {
			http.Error(w, `{"error": "Invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetProduct serves a published product by slug, with display prices in
// both USD and LRD. Viewing is recorded as fire-and-forget telemetry.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.Store.GetProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, `{"error": "Product not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error": "Failed to load product"}`, http.StatusInternalServerError)
		return
	}

	go h.Views.RecordView(context.WithoutCancel(r.Context()), product.ID)

	rate := h.Rates.Rate(r.Context())
	writeJSON(w, map[string]interface{}{
		"id":           product.ID,
		"seller_id":    product.SellerID,
		"title":        product.Title,
		"slug":         product.Slug,
		"description":  product.Description,
		"product_type": product.ProductType,
		"price":        product.Price,
		"display": map[string]int64{
			"usd_cents": rates.Convert(product.Price.Amount, product.Price.Currency, currency.USD, rate),
			"lrd_whole": rates.DisplayWholeUnits(rates.Convert(product.Price.Amount, product.Price.Currency, rates.LRD, rate)),
		},
	})
}

// GetRate serves the cached display rate
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]float64{"lrd_per_usd": h.Rates.Rate(r.Context())})
}

// cartOwner resolves who owns the cart being addressed: the authenticated
// user when a valid token is present, otherwise the guest session token.
func (h *Handler) cartOwner(r *http.Request) (string, bool) {
	if tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); tokenString != "" {
		if userID, err := h.Auth.GetUserFromToken(tokenString); err == nil {
			return userID.String(), true
		}
	}
	if session := r.Header.Get(guestSessionHeader); session != "" {
		return session, true
	}
	return "", false
}

// GetCart serves the owner's cart with per-currency totals
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.cartOwner(r)
	if !ok {
		http.Error(w, `{"error": "Authorization or guest session required"}`, http.StatusBadRequest)
		return
	}

	userCart, err := h.Carts.Get(r.Context(), ownerID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load cart"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"cart":   userCart,
		"totals": cart.Totals(userCart),
	})
}

// AddCartItem adds a product to the cart (or bumps its quantity)
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.cartOwner(r)
	if !ok {
		http.Error(w, `{"error": "Authorization or guest session required"}`, http.StatusBadRequest)
		return
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == uuid.Nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.Carts.AddItem(r.Context(), ownerID, req.ProductID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, `{"error": "Product not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error": "Failed to add to cart"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveCartItem deletes a cart line; removing an absent line is a no-op
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.cartOwner(r)
	if !ok {
		http.Error(w, `{"error": "Authorization or guest session required"}`, http.StatusBadRequest)
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		http.Error(w, `{"error": "Invalid product id"}`, http.StatusBadRequest)
		return
	}

	if err := h.Carts.RemoveItem(r.Context(), ownerID, productID); err != nil {
		http.Error(w, `{"error": "Failed to remove from cart"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MergeCart folds the request's guest session cart into the user's cart
func (h *Handler) MergeCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.Carts.MergeGuestCart(r.Context(), req.SessionID, userID); err != nil {
		http.Error(w, `{"error": "Failed to merge cart"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckoutCart settles the authenticated user's entire cart
func (h *Handler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.requireProfile(w, r)
	if !ok {
		return
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
		Phone         string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	method, phone, ok := h.validatePayment(w, req.PaymentMethod, req.Phone)
	if !ok {
		return
	}

	receipt, err := h.Checkout.Checkout(r.Context(), buyer, method, phone, nil)
	if err != nil {
		h.writeCheckoutError(w, receipt, err)
		return
	}

	writeJSON(w, receipt)
}

// DirectBuy settles a single product without touching the cart
func (h *Handler) DirectBuy(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.requireProfile(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID     uuid.UUID `json:"product_id"`
		PaymentMethod string    `json:"payment_method"`
		Phone         string    `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == uuid.Nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	method, phone, ok := h.validatePayment(w, req.PaymentMethod, req.Phone)
	if !ok {
		return
	}

	receipt, err := h.Checkout.DirectBuy(r.Context(), buyer, req.ProductID, method, phone, nil)
	if err != nil {
		h.writeCheckoutError(w, receipt, err)
		return
	}

	writeJSON(w, receipt)
}

func (h *Handler) validatePayment(w http.ResponseWriter, rawMethod, phone string) (models.PaymentMethod, string, bool) {
	method, err := models.ToPaymentMethod(rawMethod)
	if err != nil {
		http.Error(w, `{"error": "Invalid payment method"}`, http.StatusBadRequest)
		return "", "", false
	}
	if len(phone) < 9 {
		http.Error(w, `{"error": "Valid mobile money number required"}`, http.StatusBadRequest)
		return "", "", false
	}
	return method, phone, true
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, receipt *checkout.Receipt, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		http.Error(w, `{"error": "Cart is empty"}`, http.StatusBadRequest)
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, `{"error": "Product no longer available"}`, http.StatusNotFound)
	case errors.Is(err, checkout.ErrPartialSettlement):
		h.Logger.Error("partial settlement", "error", err, "committed", len(receipt.Orders))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "Some items could not be processed. Please try again or contact support.",
			"receipt": receipt,
		})
	default:
		h.Logger.Error("checkout failed", "error", err)
		http.Error(w, `{"error": "Checkout failed. Please try again or contact support."}`, http.StatusInternalServerError)
	}
}

// GetSellerOrders serves the seller's sales, newest first
func (h *Handler) GetSellerOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	orders, err := h.Store.GetSellerOrders(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load orders"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

// GetPurchases serves the buyer's purchases, newest first
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	orders, err := h.Store.GetBuyerOrders(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load purchases"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, orders)
}

// GetSellerProducts lists the seller's own products
func (h *Handler) GetSellerProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	products, err := h.Store.GetSellerProducts(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load products"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, products)
}

// CreateProduct creates a new unpublished listing for the seller
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		Title       string `json:"title"`
		ProductType string `json:"product_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, `{"error": "Title and type are required"}`, http.StatusBadRequest)
		return
	}

	productType, err := models.ToProductType(req.ProductType)
	if err != nil {
		http.Error(w, `{"error": "Invalid product type"}`, http.StatusBadRequest)
		return
	}

	product, err := h.Store.CreateProduct(r.Context(), models.Product{
		SellerID:    userID,
		Title:       req.Title,
		Slug:        models.GenerateSlug(req.Title),
		ProductType: productType,
		Price:       models.NewMoney(0, models.USD),
	})
	if err != nil {
		http.Error(w, `{"error": "Failed to create product"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

// UpdateProduct updates listing details for a product the seller owns
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error": "Invalid product id"}`, http.StatusBadRequest)
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PriceAmount int64  `json:"price_amount"`
		Currency    string `json:"currency"`
		IsPublished bool   `json:"is_published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	unit, err := currency.ParseISO(req.Currency)
	if err != nil {
		http.Error(w, `{"error": "Invalid currency"}`, http.StatusBadRequest)
		return
	}
	if req.PriceAmount < 0 {
		http.Error(w, `{"error": "Price must not be negative"}`, http.StatusBadRequest)
		return
	}

	product, err := h.Store.UpdateProduct(r.Context(), models.Product{
		ID:          productID,
		SellerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       models.NewMoney(req.PriceAmount, unit),
		IsPublished: req.IsPublished,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, `{"error": "Product not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error": "Failed to update product"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, product)
}

// GetPayouts serves the seller's payout history
func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	history, err := h.Payouts.History(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load payouts"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, history)
}

// GetPayoutStats serves the derived balance summary
func (h *Handler) GetPayoutStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	stats, err := h.Payouts.Stats(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load payout stats"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// RequestPayout validates and records a withdrawal request
func (h *Handler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		Amount int64  `json:"amount"`
		Method string `json:"method"`
		Number string `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	payout, err := h.Payouts.RequestPayout(r.Context(), userID, req.Amount, req.Method, req.Number)
	if err != nil {
		switch {
		case errors.Is(err, payouts.ErrBelowMinimum):
			http.Error(w, `{"error": "Minimum payout is $5.00 USD"}`, http.StatusBadRequest)
		case errors.Is(err, payouts.ErrDestinationMismatch):
			http.Error(w, `{"error": "Payout number does not match your saved settings. Please verify your profile."}`, http.StatusForbidden)
		case errors.Is(err, db.ErrInsufficientBalance):
			http.Error(w, `{"error": "Insufficient balance"}`, http.StatusUnprocessableEntity)
		default:
			h.Logger.Error("payout request failed", "error", err)
			http.Error(w, `{"error": "Failed to request payout. Please try again."}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payout)
}

// SetPayoutDestination saves the seller's verified mobile-money destination
func (h *Handler) SetPayoutDestination(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		Method string `json:"method"`
		Number string `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Number == "" {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.Store.SetPayoutDestination(r.Context(), userID, req.Method, req.Number); err != nil {
		http.Error(w, `{"error": "Failed to save payout destination"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteOnboarding flips the user's onboarding flag
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if err := h.Store.CompleteOnboarding(r.Context(), userID); err != nil {
		http.Error(w, `{"error": "Failed to complete onboarding"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignVideoUpload issues a time-limited CDN upload signature
func (h *Handler) SignVideoUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value(ctxUserID).(uuid.UUID); !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, h.Signer.SignUpload(req.VideoID))
}

func (h *Handler) requireProfile(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return nil, false
	}

	profile, err := h.Store.GetProfile(r.Context(), userID)
	if err != nil {
		http.Error(w, `{"error": "Failed to load profile"}`, http.StatusInternalServerError)
		return nil, false
	}
	return profile, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Package interfaces exposes the shop over HTTP. Buyer identity comes
// from the X-Session-Token header, with a buyerId query or body field
// as a fallback for unauthenticated tooling.
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/money"
	"shopbank/internal/pkg/session"
	"shopbank/internal/service/shop/application"
	"shopbank/internal/service/shop/domain"
)

const sessionHeader = "X-Session-Token"

type Handler struct {
	catalog  *application.CatalogService
	cart     *application.CartService
	checkout *application.CheckoutService
	sessions *session.Manager
}

func NewHandler(catalog *application.CatalogService, cart *application.CartService, checkout *application.CheckoutService, sessions *session.Manager) *Handler {
	return &Handler{catalog: catalog, cart: cart, checkout: checkout, sessions: sessions}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.product)
	mux.HandleFunc("POST /api/products", h.createProduct)

	mux.HandleFunc("POST /api/buyers", h.createBuyer)
	mux.HandleFunc("GET /api/buyers/{id}", h.buyer)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("POST /api/logout", h.logout)

	mux.HandleFunc("GET /api/cart", h.cartView)
	mux.HandleFunc("POST /api/cart/items", h.cartAdd)
	mux.HandleFunc("PUT /api/cart/items/{lineId}", h.cartUpdate)
	mux.HandleFunc("DELETE /api/cart/items/{lineId}", h.cartRemove)
	mux.HandleFunc("DELETE /api/cart", h.cartClear)

	mux.HandleFunc("POST /api/orders/checkout", h.checkoutOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{number}", h.order)
}

type productRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       money.Amount `json:"price"`
	Stock       int          `json:"stock"`
}

type productResponse struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       money.Amount `json:"price"`
	Stock       int          `json:"stock"`
}

type buyerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	BankAccountNumber string `json:"bankAccountNumber"`
}

type buyerResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	BankAccountNumber string `json:"bankAccountNumber"`
}

type loginRequest struct {
	BuyerID int64 `json:"buyerId"`
}

type cartAddRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type cartLineResponse struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"productId"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
	LineTotal money.Amount `json:"lineTotal"`
}

type cartResponse struct {
	Lines     []cartLineResponse `json:"lines"`
	ItemCount int                `json:"itemCount"`
	Total     money.Amount       `json:"total"`
}

type checkoutRequest struct {
	AccountNumber string `json:"accountNumber,omitempty"`
}

type orderLineResponse struct {
	ProductID int64        `json:"productId"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unitPrice"`
}

type orderResponse struct {
	Number        string              `json:"orderNumber"`
	BuyerID       int64               `json:"buyerId"`
	Total         money.Amount        `json:"total"`
	Status        string              `json:"status"`
	PaymentRef    string              `json:"paymentRef,omitempty"`
	FailureReason string              `json:"failureReason,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	Lines         []orderLineResponse `json:"lines"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(extract(r))
	if err != nil {
		writeShopError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := h.catalog.Product(extract(r), id)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" || req.Price < 0 || req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "name is required, price and stock must not be negative")
		return
	}
	product := &domain.Product{Name: req.Name, Description: req.Description, Price: req.Price, Stock: req.Stock}
	if err := h.catalog.CreateProduct(ctx, product); err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) createBuyer(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req buyerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	buyer := &domain.Buyer{Name: req.Name, Email: req.Email, BankAccountNumber: req.BankAccountNumber}
	if err := h.catalog.CreateBuyer(ctx, buyer); err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBuyerResponse(buyer))
}

func (h *Handler) buyer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid buyer id")
		return
	}
	buyer, err := h.catalog.Buyer(extract(r), id)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBuyerResponse(buyer))
}

// login issues a session token. There is no password; identity is the
// buyer id, which is all the previous system checked too.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if _, err := h.catalog.Buyer(ctx, req.BuyerID); err != nil {
		writeShopError(w, err)
		return
	}
	token, err := h.sessions.Create(ctx, strconv.FormatInt(req.BuyerID, 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	token := r.Header.Get(sessionHeader)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing session token")
		return
	}
	if err := h.sessions.Delete(ctx, token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cartView(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	lines, err := h.cart.Lines(ctx, buyerID)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(lines))
}

func (h *Handler) cartAdd(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	var req cartAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	line, err := h.cart.Add(ctx, buyerID, req.ProductID, req.Quantity)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResponse(line))
}

func (h *Handler) cartUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(r.PathValue("lineId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	line, err := h.cart.UpdateQuantity(ctx, buyerID, lineID, req.Quantity)
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

func (h *Handler) cartRemove(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(r.PathValue("lineId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := h.cart.Remove(ctx, buyerID, lineID); err != nil {
		writeShopError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cartClear(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	if err := h.cart.Clear(ctx, buyerID); err != nil {
		writeShopError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkoutOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if r.Body != nil {
		// An empty body is a valid checkout with the bound account.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	order, err := h.checkout.Checkout(ctx, buyerID, req.AccountNumber)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("buyer_id", buyerID).Msg("checkout failed")
		writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	buyerID, ok := h.buyerID(ctx, w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var (
		orders []*domain.Order
		err    error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		from, ferr := time.Parse(time.RFC3339, q.Get("from"))
		to, terr := time.Parse(time.RFC3339, q.Get("to"))
		if ferr != nil || terr != nil {
			writeError(w, http.StatusBadRequest, "from and to must be RFC3339 timestamps")
			return
		}
		orders, err = h.checkout.OrdersBetween(ctx, buyerID, from, to)
	} else {
		orders, err = h.checkout.OrdersFor(ctx, buyerID)
	}
	if err != nil {
		writeShopError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) order(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.OrderByNumber(extract(r), r.PathValue("number"))
	if err != nil {
		writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// buyerID resolves the caller's identity: session token first, then
// the buyerId query parameter. Writes the error response itself when
// neither works.
func (h *Handler) buyerID(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	if token := r.Header.Get(sessionHeader); token != "" {
		raw, err := h.sessions.Resolve(ctx, token)
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return 0, false
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return 0, false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "corrupt session")
			return 0, false
		}
		return id, true
	}
	if raw := r.URL.Query().Get("buyerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid buyerId")
			return 0, false
		}
		return id, true
	}
	writeError(w, http.StatusUnauthorized, "missing session token")
	return 0, false
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, Stock: p.Stock}
}

func toBuyerResponse(b *domain.Buyer) buyerResponse {
	return buyerResponse{ID: b.ID, Name: b.Name, Email: b.Email, BankAccountNumber: b.BankAccountNumber}
}

func toCartLineResponse(l *domain.CartLine) cartLineResponse {
	return cartLineResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		LineTotal: l.LineTotal(),
	}
}

func toCartResponse(lines []*domain.CartLine) cartResponse {
	out := cartResponse{Lines: make([]cartLineResponse, 0, len(lines))}
	for _, l := range lines {
		out.Lines = append(out.Lines, toCartLineResponse(l))
		out.ItemCount += l.Quantity
	}
	out.Total = domain.CartTotal(lines)
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return orderResponse{
		Number:        o.Number,
		BuyerID:       o.BuyerID,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentRef:    o.PaymentRef,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		Lines:         lines,
	}
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

// writeCheckoutError maps the structured checkout failure onto HTTP.
func writeCheckoutError(w http.ResponseWriter, err error) {
	var checkoutErr *domain.CheckoutError
	if !errors.As(err, &checkoutErr) {
		writeShopError(w, err)
		return
	}
	status := http.StatusInternalServerError
	switch checkoutErr.Kind {
	case domain.FailureEmptyCart, domain.FailureMissingBankAccount, domain.FailureInvalidAccount:
		status = http.StatusBadRequest
	case domain.FailureInsufficientStock:
		status = http.StatusConflict
	case domain.FailureInsufficientFunds, domain.FailurePayment:
		status = http.StatusPaymentRequired
	}
	body := map[string]interface{}{
		"error":  checkoutErr.Reason,
		"reason": checkoutErr.Kind.String(),
	}
	if checkoutErr.ProductID != 0 {
		body["productId"] = checkoutErr.ProductID
	}
	if checkoutErr.OrderNumber != "" {
		body["orderNumber"] = checkoutErr.OrderNumber
	}
	writeJSON(w, status, body)
}

func writeShopError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrBuyerNotFound),
		errors.Is(err, domain.ErrCartLineNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

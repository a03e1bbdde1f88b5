package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	out := *u
	out.Addresses = append([]models.Address{}, u.Addresses...)
	return &out
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(user.Email) {
			return database.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return copyUser(u), nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	return copyUser(u), nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) clearDefault(u *models.User) {
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = false
	}
}

func (f *fakeUsers) AddAddress(_ context.Context, userID primitive.ObjectID, address *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	if address.IsDefault {
		f.clearDefault(u)
	}
	u.Addresses = append(u.Addresses, *address)
	return nil
}

func (f *fakeUsers) ReplaceAddress(_ context.Context, userID primitive.ObjectID, address *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	for i := range u.Addresses {
		if u.Addresses[i].ID == address.ID {
			if address.IsDefault {
				f.clearDefault(u)
			}
			u.Addresses[i] = *address
			return nil
		}
	}
	return database.ErrNotFound
}

func (f *fakeUsers) RemoveAddress(_ context.Context, userID, addressID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	for i := range u.Addresses {
		if u.Addresses[i].ID == addressID {
			u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

type fakeCategories struct {
	mu         sync.Mutex
	categories map[primitive.ObjectID]models.Category
}

func newFakeCategories(names ...string) *fakeCategories {
	f := &fakeCategories{categories: map[primitive.ObjectID]models.Category{}}
	for _, name := range names {
		c := models.Category{ID: primitive.NewObjectID(), Name: name}
		f.categories[c.ID] = c
	}
	return f
}

func (f *fakeCategories) idOf(name string) primitive.ObjectID {
	for id, c := range f.categories {
		if c.Name == name {
			return id
		}
	}
	return primitive.NilObjectID
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Category{}
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCategories) FindByName(_ context.Context, name string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == category.Name {
			return database.ErrDuplicate
		}
	}
	category.ID = primitive.NewObjectID()
	f.categories[category.ID] = *category
	return nil
}

func (f *fakeCategories) Update(_ context.Context, id primitive.ObjectID, name, description *string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	f.categories[id] = c
	return &c, nil
}

func (f *fakeCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeProducts struct {
	mu        sync.Mutex
	products  map[primitive.ObjectID]*models.Product
	listCalls int
	// onList runs inside List, after the read and before the result returns.
	onList func()
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[primitive.ObjectID]*models.Product{}}
}

func (f *fakeProducts) add(name string, price float64, stock int, category primitive.ObjectID) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Product{ID: primitive.NewObjectID(), Name: name, Price: price, Stock: stock, Category: category}
	f.products[p.ID] = p
	return p
}

func (f *fakeProducts) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func view(p *models.Product) models.ProductView {
	return models.ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
		Category:    &models.CategoryRef{ID: p.Category},
	}
}

// List applies the category and price filters and the sort; search is
// covered by the pipeline tests in package database.
func (f *fakeProducts) List(_ context.Context, q models.ProductQuery) ([]models.ProductView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.onList != nil {
		f.onList()
	}

	var matched []models.ProductView
	for _, p := range f.products {
		if q.CategoryID != nil && p.Category != *q.CategoryID {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		matched = append(matched, view(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		switch q.Sort {
		case models.SortPriceDesc:
			return matched[i].Price > matched[j].Price
		case models.SortPriceAsc:
			return matched[i].Price < matched[j].Price
		case models.SortNameDesc:
			return matched[i].Name > matched[j].Name
		default:
			return matched[i].Name < matched[j].Name
		}
	})

	total := int64(len(matched))
	start := int(q.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.ProductView{}, matched[start:end]...), total, nil
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProducts) FindView(_ context.Context, id primitive.ObjectID) (*models.ProductView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	v := view(p)
	return &v, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]*models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Name == product.Name {
			return database.ErrDuplicate
		}
	}
	product.ID = primitive.NewObjectID()
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id primitive.ObjectID, patch models.ProductPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return database.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(f.products, id)
	return p, nil
}

func (f *fakeProducts) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.products {
		if p.Category == categoryID {
			n++
		}
	}
	return n, nil
}

// fakeCarts mirrors the version compare-and-swap of the Mongo store.
// conflicts makes that many upcoming saves fail as if another request won.
type fakeCarts struct {
	mu        sync.Mutex
	carts     map[primitive.ObjectID]*models.Cart
	conflicts int
	saves     int
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[primitive.ObjectID]*models.Cart{}}
}

func copyCart(c *models.Cart) *models.Cart {
	out := *c
	out.Items = append([]models.CartItem{}, c.Items...)
	return &out
}

func (f *fakeCarts) Get(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return copyCart(c), nil
}

func (f *fakeCarts) Save(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.conflicts > 0 {
		f.conflicts--
		return database.ErrConflict
	}

	current, exists := f.carts[cart.User]
	if cart.ID.IsZero() {
		if exists {
			return database.ErrConflict
		}
		cart.ID = primitive.NewObjectID()
		cart.Version = 1
		f.carts[cart.User] = copyCart(cart)
		return nil
	}
	if !exists || current.Version != cart.Version {
		return database.ErrConflict
	}
	cart.Version++
	f.carts[cart.User] = copyCart(cart)
	return nil
}

func (f *fakeCarts) Delete(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

// fakeOrders places orders all-or-nothing against the fake products and carts.
type fakeOrders struct {
	mu       sync.Mutex
	orders   map[primitive.ObjectID]*models.Order
	products *fakeProducts
	carts    *fakeCarts
}

func newFakeOrders(products *fakeProducts, carts *fakeCarts) *fakeOrders {
	return &fakeOrders{orders: map[primitive.ObjectID]*models.Order{}, products: products, carts: carts}
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrders) PlaceOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products.mu.Lock()
	defer f.products.mu.Unlock()

	if order.Payment.SessionID != "" {
		for _, o := range f.orders {
			if o.Payment.SessionID == order.Payment.SessionID {
				return database.ErrDuplicate
			}
		}
	}
	for _, item := range order.Items {
		p, ok := f.products.products[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			return &database.StockError{ProductID: item.ProductID, Name: item.Name}
		}
	}
	for _, item := range order.Items {
		f.products.products[item.ProductID].Stock -= item.Quantity
	}
	order.ID = primitive.NewObjectID()
	cp := *order
	f.orders[order.ID] = &cp

	f.carts.mu.Lock()
	delete(f.carts.carts, order.User)
	f.carts.mu.Unlock()
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) FindBySession(_ context.Context, sessionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.Payment.SessionID == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if o.User == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) List(_ context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, restock bool) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return nil, database.ErrConflict
	}
	o.Status = to
	if restock {
		f.products.mu.Lock()
		for _, item := range o.Items {
			if p, ok := f.products.products[item.ProductID]; ok {
				p.Stock += item.Quantity
			}
		}
		f.products.mu.Unlock()
	}
	cp := *o
	return &cp, nil
}

type fakePayments struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: map[string]*models.Payment{}}
}

func (f *fakePayments) Create(_ context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[payment.SessionID]; ok {
		return database.ErrDuplicate
	}
	payment.ID = primitive.NewObjectID()
	cp := *payment
	f.payments[payment.SessionID] = &cp
	return nil
}

func (f *fakePayments) FindBySession(_ context.Context, sessionID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) MarkCompleted(_ context.Context, sessionID, intentID string, orderID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[sessionID]
	if !ok {
		return database.ErrNotFound
	}
	p.Status = models.PaymentRecordCompleted
	p.IntentID = intentID
	p.Order = &orderID
	return nil
}

func (f *fakePayments) MarkFailed(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[sessionID]
	if !ok {
		return database.ErrNotFound
	}
	p.Status = models.PaymentRecordFailed
	return nil
}

type fakeContacts struct {
	contacts []models.Contact
}

func (f *fakeContacts) Create(_ context.Context, contact *models.Contact) error {
	f.contacts = append(f.contacts, *contact)
	return nil
}

var errBadSignature = errors.New("webhook signature verification failed")

// fakeGateway accepts only the signature "valid" and replays event.
type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*models.CheckoutSession
	requests []models.CheckoutRequest
	event    *models.WebhookEvent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*models.CheckoutSession{}}
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	var amount int64
	for _, line := range req.Lines {
		amount += line.UnitAmountCent * line.Quantity
	}
	s := &models.CheckoutSession{
		ID:                "cs_test_" + primitive.NewObjectID().Hex(),
		URL:               "https://checkout.example/pay",
		PaymentStatus:     "unpaid",
		ClientReferenceID: req.UserID,
		AmountTotal:       amount,
		Currency:          req.Currency,
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeGateway) pay(sessionID string) *models.CheckoutSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[sessionID]
	s.PaymentStatus = "paid"
	s.PaymentIntentID = "pi_" + sessionID
	cp := *s
	return &cp
}

func (f *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (*models.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeGateway) ParseWebhook(_ []byte, signature string) (*models.WebhookEvent, error) {
	if signature != "valid" {
		return nil, errBadSignature
	}
	return f.event, nil
}

// fakeCache namespaces entries by generation like the Redis cache.
type fakeCache struct {
	mu            sync.Mutex
	gen           int
	entries       map[string][]byte
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, name string, dest interface{}) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d:%s", f.gen, name)
	raw, ok := f.entries[key]
	if !ok {
		return key, false, nil
	}
	return key, true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.invalidations++
	return nil
}

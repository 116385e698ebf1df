package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memData is the state held by fakeStore.
type memData struct {
	products   map[uuid.UUID]models.Product
	variants   map[uuid.UUID]models.ProductVariant
	images     map[uuid.UUID]models.ProductImage
	categories map[uuid.UUID]models.Category
	orders     map[uuid.UUID]models.Order
	admins     map[uuid.UUID]models.Admin
}

func (d *memData) clone() *memData {
	c := &memData{
		products:   make(map[uuid.UUID]models.Product, len(d.products)),
		variants:   make(map[uuid.UUID]models.ProductVariant, len(d.variants)),
		images:     make(map[uuid.UUID]models.ProductImage, len(d.images)),
		categories: make(map[uuid.UUID]models.Category, len(d.categories)),
		orders:     make(map[uuid.UUID]models.Order, len(d.orders)),
		admins:     make(map[uuid.UUID]models.Admin, len(d.admins)),
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.variants {
		c.variants[k] = v
	}
	for k, v := range d.images {
		c.images[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.orders {
		v.Items = append([]models.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range d.admins {
		c.admins[k] = v
	}
	return c
}

// fakeStore is an in-memory repository.Store. Transactions are serialized
// and roll back to a snapshot when fn fails, which stands in for row locks.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *memData

	dashboard repository.DashboardRepository
	now       func() time.Time

	// itemInsertErr fails order creation after the order row is written.
	itemInsertErr error
	// beforeGalleryLock runs before a gallery lock is granted.
	beforeGalleryLock func()
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: &memData{
			products:   map[uuid.UUID]models.Product{},
			variants:   map[uuid.UUID]models.ProductVariant{},
			images:     map[uuid.UUID]models.ProductImage{},
			categories: map[uuid.UUID]models.Category{},
			orders:     map[uuid.UUID]models.Order{},
			admins:     map[uuid.UUID]models.Admin{},
		},
		now: time.Now,
	}
}

func (s *fakeStore) Products() repository.ProductRepository { return fakeProducts{s} }
func (s *fakeStore) Variants() repository.VariantRepository { return fakeVariants{s} }
func (s *fakeStore) Images() repository.ImageRepository { return fakeImages{s} }
func (s *fakeStore) Categories() repository.CategoryRepository { return fakeCategories{s} }
func (s *fakeStore) Orders() repository.OrderRepository { return fakeOrders{s} }
func (s *fakeStore) Admins() repository.AdminRepository { return fakeAdmins{s} }
func (s *fakeStore) Dashboard() repository.DashboardRepository { return s.dashboard }

func (s *fakeStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// seed helpers

func (s *fakeStore) addProduct(name string, price string, quantity int) models.Product {
	p := models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		IsActive: true,
	}
	p.SyncStatus()
	s.mu.Lock()
	s.data.products[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *fakeStore) addVariant(product models.Product, color, size string, quantity int) models.ProductVariant {
	v := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		Color:     color,
		Size:      size,
		Quantity:  quantity,
		SKU:       BuildSKU(product.Name, color, size),
		IsActive:  true,
	}
	s.mu.Lock()
	s.data.variants[v.ID] = v
	s.mu.Unlock()
	return v
}

func (s *fakeStore) product(id uuid.UUID) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id]
}

func (s *fakeStore) variant(id uuid.UUID) models.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.variants[id]
}

func (s *fakeStore) order(id uuid.UUID) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.orders[id]
}

func (s *fakeStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *fakeStore) variantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.variants)
}

func (s *fakeStore) activeImages(productID uuid.UUID) []models.ProductImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProductImage
	for _, img := range s.data.images {
		if img.ProductID == productID && img.IsActive {
			out = append(out, img)
		}
	}
	models.SortImages(out)
	return out
}

func (s *fakeStore) addImage(productID uuid.UUID, url string, sortOrder int, primary bool) models.ProductImage {
	img := models.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		URL:       url,
		SortOrder: sortOrder,
		IsPrimary: primary,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.data.images[img.ID] = img
	s.mu.Unlock()
	return img
}

func stringOrNil(v interface{}) *string {
	switch t := v.(type) {
	case *string:
		return t
	case string:
		return &t
	default:
		return nil
	}
}

// products

type fakeProducts struct{ s *fakeStore }

func (r fakeProducts) withGallery(p models.Product) models.Product {
	p.Variants, p.Images = nil, nil
	for _, v := range r.s.data.variants {
		if v.ProductID == p.ID && v.IsActive {
			p.Variants = append(p.Variants, v)
		}
	}
	for _, img := range r.s.data.images {
		if img.ProductID == p.ID && img.IsActive {
			p.Images = append(p.Images, img)
		}
	}
	models.SortImages(p.Images)
	return p
}

func (r fakeProducts) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []models.Product
	for _, p := range r.s.data.products {
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, r.withGallery(p))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r fakeProducts) FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok || (!includeInactive && !p.IsActive) {
		return nil, gorm.ErrRecordNotFound
	}
	p = r.withGallery(p)
	return &p, nil
}

func (r fakeProducts) FindAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok && p.IsActive && p.Status == models.ProductStatusAvailable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakeProducts) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakeProducts) Create(ctx context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt, product.UpdatedAt = r.s.now(), r.s.now()
	r.s.data.products[product.ID] = *product
	return nil
}

func (r fakeProducts) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			p.Name = v.(string)
		case "description":
			p.Description = stringOrNil(v)
		case "price":
			p.Price = v.(decimal.Decimal)
		case "quantity":
			p.Quantity = v.(int)
		case "status":
			p.Status = models.ProductStatus(v.(string))
		case "image_url":
			p.ImageURL = stringOrNil(v)
		case "is_active":
			p.IsActive = v.(bool)
		case "category_id":
			if id, ok := v.(uuid.UUID); ok {
				p.CategoryID = &id
			} else {
				p.CategoryID = nil
			}
		}
	}
	r.s.data.products[id] = p
	return nil
}

func (r fakeProducts) DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok || p.Quantity < quantity {
		return false, nil
	}
	p.Quantity -= quantity
	p.SyncStatus()
	r.s.data.products[id] = p
	return true, nil
}

// variants

type fakeVariants struct{ s *fakeStore }

func (r fakeVariants) ListByProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.ProductVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ProductVariant
	for _, v := range r.s.data.variants {
		if v.ProductID == productID && (includeInactive || v.IsActive) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r fakeVariants) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.data.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r fakeVariants) FindByOption(ctx context.Context, productID uuid.UUID, color, size string) (*models.ProductVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.data.variants {
		if v.ProductID == productID && v.Color == color && v.Size == size {
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// conflicts reports a clash on the option or SKU unique index. Callers hold mu.
func (r fakeVariants) conflicts(variant *models.ProductVariant) bool {
	for _, v := range r.s.data.variants {
		if v.SKU == variant.SKU {
			return true
		}
		if v.ProductID == variant.ProductID && v.Color == variant.Color && v.Size == variant.Size {
			return true
		}
	}
	return false
}

func (r fakeVariants) CreateIfAbsent(ctx context.Context, variant *models.ProductVariant) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.conflicts(variant) {
		return false, nil
	}
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	r.s.data.variants[variant.ID] = *variant
	return true, nil
}

func (r fakeVariants) Create(ctx context.Context, variant *models.ProductVariant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.conflicts(variant) {
		return gorm.ErrDuplicatedKey
	}
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	r.s.data.variants[variant.ID] = *variant
	return nil
}

func (r fakeVariants) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.data.variants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, val := range updates {
		switch k {
		case "quantity":
			v.Quantity = val.(int)
		case "is_active":
			v.IsActive = val.(bool)
		}
	}
	r.s.data.variants[id] = v
	return nil
}

func (r fakeVariants) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ProductVariant
	for _, id := range ids {
		if v, ok := r.s.data.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeVariants) DeductStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.data.variants[id]
	if !ok || v.Quantity < quantity {
		return false, nil
	}
	v.Quantity -= quantity
	r.s.data.variants[id] = v
	return true, nil
}

// images

type fakeImages struct{ s *fakeStore }

func (r fakeImages) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	return r.s.activeImages(productID), nil
}

func (r fakeImages) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img, ok := r.s.data.images[id]
	if !ok || !img.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return &img, nil
}

func (r fakeImages) LockProductGallery(ctx context.Context, productID uuid.UUID) error {
	if r.s.beforeGalleryLock != nil {
		r.s.beforeGalleryLock()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[productID]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r fakeImages) NextSortOrder(ctx context.Context, productID uuid.UUID) (int, error) {
	next := 0
	for _, img := range r.s.activeImages(productID) {
		if img.SortOrder+1 > next {
			next = img.SortOrder + 1
		}
	}
	return next, nil
}

func (r fakeImages) CountActive(ctx context.Context, productID uuid.UUID) (int64, error) {
	return int64(len(r.s.activeImages(productID))), nil
}

func (r fakeImages) Create(ctx context.Context, image *models.ProductImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	image.CreatedAt = r.s.now()
	r.s.data.images[image.ID] = *image
	return nil
}

func (r fakeImages) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img, ok := r.s.data.images[id]
	if !ok || !img.IsActive {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "alt_text":
			img.AltText = stringOrNil(v)
		case "sort_order":
			img.SortOrder = v.(int)
		case "is_primary":
			img.IsPrimary = v.(bool)
		case "is_active":
			img.IsActive = v.(bool)
		}
	}
	r.s.data.images[id] = img
	return nil
}

func (r fakeImages) ClearPrimary(ctx context.Context, productID, exceptID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, img := range r.s.data.images {
		if img.ProductID == productID && id != exceptID && img.IsPrimary {
			img.IsPrimary = false
			r.s.data.images[id] = img
		}
	}
	return nil
}

// categories

type fakeCategories struct{ s *fakeStore }

func (r fakeCategories) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Category
	for _, c := range r.s.data.categories {
		if includeInactive || c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeCategories) FindByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.categories[id]
	if !ok || (!includeInactive && !c.IsActive) {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r fakeCategories) nameTaken(name string, except uuid.UUID) bool {
	for id, c := range r.s.data.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r fakeCategories) Create(ctx context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(category.Name, uuid.Nil) {
		return gorm.ErrDuplicatedKey
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.s.data.categories[category.ID] = *category
	return nil
}

func (r fakeCategories) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.categories[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			if r.nameTaken(v.(string), id) {
				return gorm.ErrDuplicatedKey
			}
			c.Name = v.(string)
		case "description":
			c.Description = stringOrNil(v)
		case "is_active":
			c.IsActive = v.(bool)
		}
	}
	r.s.data.categories[id] = c
	return nil
}

// orders

type fakeOrders struct{ s *fakeStore }

func (r fakeOrders) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Order
	for _, o := range r.s.data.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), strings.ToLower(filter.Search)) &&
			!strings.Contains(o.CustomerEmail, strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return &o, nil
}

func (r fakeOrders) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.data.orders {
		if o.OrderNumber == orderNumber {
			o.Items = append([]models.OrderItem(nil), o.Items...)
			return &o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeOrders) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, id)
}

func (r fakeOrders) Create(ctx context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.data.orders {
		if o.OrderNumber == order.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt, order.UpdatedAt = r.s.now(), r.s.now()
	if r.s.itemInsertErr != nil {
		r.s.data.orders[order.ID] = models.Order{ID: order.ID, OrderNumber: order.OrderNumber}
		return r.s.itemInsertErr
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.s.data.orders[order.ID] = stored
	return nil
}

func (r fakeOrders) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			o.Status = models.OrderStatus(v.(string))
		case "stock_deducted":
			o.StockDeducted = v.(bool)
		case "paid_at":
			t := v.(time.Time)
			o.PaidAt = &t
		case "updated_at":
			o.UpdatedAt = v.(time.Time)
		}
	}
	r.s.data.orders[id] = o
	return nil
}

// admins

type fakeAdmins struct{ s *fakeStore }

func (r fakeAdmins) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeAdmins) FindByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.admins[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r fakeAdmins) Create(ctx context.Context, admin *models.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.admins {
		if a.Email == admin.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	r.s.data.admins[admin.ID] = *admin
	return nil
}

func (r fakeAdmins) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.admins[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.LastLoginAt = &at
	r.s.data.admins[id] = a
	return nil
}

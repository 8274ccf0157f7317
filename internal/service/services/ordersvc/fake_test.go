package ordersvc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memState struct {
	orders map[uuid.UUID]order.Order
	items  []orderitem.OrderItem
	outbox []outbox.OutboxMessage
}

func (m *memState) clone() *memState {
	c := &memState{
		orders: make(map[uuid.UUID]order.Order, len(m.orders)),
		items:  append([]orderitem.OrderItem(nil), m.items...),
		outbox: append([]outbox.OutboxMessage(nil), m.outbox...),
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}

	return c
}

// fakeStore is an in-memory database shared by every unit of work of a test.
type fakeStore struct {
	mu         sync.Mutex
	state      *memState
	audit      map[string]auditlog.AuditLogOrder
	collisions int
	commits    int
	rollbacks  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state: &memState{orders: map[uuid.UUID]order.Order{}},
		audit: map[string]auditlog.AuditLogOrder{},
	}
}

func (f *fakeStore) SaveAuditLog(_ context.Context, entry auditlog.AuditLogOrder) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.audit[entry.MessageID]; ok {
		return false, nil
	}
	f.audit[entry.MessageID] = entry

	return true, nil
}

func (f *fakeStore) outboxTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]string, 0, len(f.state.outbox))
	for _, m := range f.state.outbox {
		types = append(types, m.RoutingKey)
	}

	return types
}

type fakeUOW struct {
	store *fakeStore
	tx    *memState
}

func (u *fakeUOW) current() *memState {
	if u.tx != nil {
		return u.tx
	}

	return u.store.state
}

func (u *fakeUOW) Begin(context.Context) error {
	u.store.mu.Lock()
	u.tx = u.store.state.clone()

	return nil
}

func (u *fakeUOW) Commit() error {
	if u.tx == nil {
		return nil
	}
	u.store.state = u.tx
	u.store.commits++
	u.tx = nil
	u.store.mu.Unlock()

	return nil
}

func (u *fakeUOW) Rollback() error {
	if u.tx == nil {
		return nil
	}
	u.store.rollbacks++
	u.tx = nil
	u.store.mu.Unlock()

	return nil
}

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return &memOrderRepo{uow: u}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &memItemRepo{uow: u}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &memOutboxRepo{uow: u}
}

type memOrderRepo struct {
	uow *fakeUOW
}

func (r *memOrderRepo) Insert(_ context.Context, o order.Order) error {
	st := r.uow.current()
	if r.uow.store.collisions > 0 {
		r.uow.store.collisions--

		return iorderrepo.ErrNumberTaken
	}
	for _, existing := range st.orders {
		if existing.Number == o.Number {
			return iorderrepo.ErrNumberTaken
		}
	}
	o.Items = nil
	st.orders[o.ID] = o

	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id uuid.UUID, _ bool) (order.Order, error) {
	o, ok := r.uow.current().orders[id]
	if !ok {
		return order.Order{}, apperr.NotFound("order %s not found", id)
	}

	return o, nil
}

func (r *memOrderRepo) GetByNumber(_ context.Context, number string, _ bool) (order.Order, error) {
	for _, o := range r.uow.current().orders {
		if o.Number == number {
			return o, nil
		}
	}

	return order.Order{}, apperr.NotFound("order %s not found", number)
}

func (r *memOrderRepo) Update(_ context.Context, o order.Order) error {
	st := r.uow.current()
	if _, ok := st.orders[o.ID]; !ok {
		return apperr.NotFound("order %s not found", o.ID)
	}
	if o.Payment.Proof != "" {
		for id, other := range st.orders {
			if id != o.ID && other.Payment.Method == o.Payment.Method && other.Payment.Proof == o.Payment.Proof {
				return apperr.Conflict("this payment proof is already attached to another order")
			}
		}
	}
	o.Items = nil
	st.orders[o.ID] = o

	return nil
}

func (r *memOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	st := r.uow.current()
	if _, ok := st.orders[id]; !ok {
		return apperr.NotFound("order %s not found", id)
	}
	delete(st.orders, id)

	kept := st.items[:0]
	for _, item := range st.items {
		if item.OrderID != id {
			kept = append(kept, item)
		}
	}
	st.items = kept

	return nil
}

func (r *memOrderRepo) filtered(filter *order.QueryOrdersModel) []order.Order {
	var result []order.Order
	for _, o := range r.uow.current().orders {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		if len(filter.PaymentStatuses) > 0 && !containsPaymentStatus(filter.PaymentStatuses, o.Payment.Status) {
			continue
		}
		if filter.Email != "" && filter.Email != o.Customer.Email {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

func (r *memOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	result := r.filtered(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []order.Order{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r *memOrderRepo) Count(_ context.Context, filter *order.QueryOrdersModel) (int, error) {
	return len(r.filtered(filter)), nil
}

func (r *memOrderRepo) Stats(context.Context) (order.Stats, error) {
	stats := order.Stats{ByStatus: map[order.Status]int{}, Revenue: decimal.Zero}
	for _, o := range r.uow.current().orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		switch o.Payment.Status {
		case payment.StatusCompleted:
			stats.PaidOrders++
			stats.Revenue = stats.Revenue.Add(o.Totals.Total)
		case payment.StatusPending, payment.StatusProcessing:
			stats.PendingPayments++
		}
	}

	return stats, nil
}

type memItemRepo struct {
	uow *fakeUOW
}

func (r *memItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) error {
	st := r.uow.current()
	for _, item := range items {
		item.ID = int64(len(st.items) + 1)
		st.items = append(st.items, item)
	}

	return nil
}

func (r *memItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range filter.OrderIds {
		wanted[id] = true
	}

	var result []orderitem.OrderItem
	for _, item := range r.uow.current().items {
		if len(wanted) == 0 || wanted[item.OrderID] {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

type memOutboxRepo struct {
	uow *fakeUOW
}

func (r *memOutboxRepo) Insert(_ context.Context, msgs ...outbox.OutboxMessage) error {
	st := r.uow.current()
	for _, m := range msgs {
		m.ID = int64(len(st.outbox) + 1)
		st.outbox = append(st.outbox, m)
	}

	return nil
}

func (r *memOutboxRepo) GetPendingMessages(context.Context, int) ([]outbox.OutboxMessage, error) {
	return r.uow.current().outbox, nil
}

func (r *memOutboxRepo) Delete(context.Context, ...int64) error {
	return nil
}

func (r *memOutboxRepo) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

func containsStatus(list []order.Status, s order.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func containsPaymentStatus(list []payment.Status, s payment.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

type fakeCatalog map[string]product.Product

func newFakeCatalog() fakeCatalog {
	return fakeCatalog{
		"bpc-157": {
			ID: "bpc-157", Name: "BPC-157", Price: decimal.RequireFromString("89.99"),
			Specs: product.Specs{Dosage: "5mg"}, Stock: 100, IsAvailable: true,
		},
		"tb-500": {
			ID: "tb-500", Name: "TB-500", Price: decimal.RequireFromString("94.99"),
			Specs: product.Specs{Dosage: "5mg"}, Stock: 3, IsAvailable: true,
		},
		"dsip": {
			ID: "dsip", Name: "DSIP", Price: decimal.RequireFromString("54.99"),
			Stock: 0, IsAvailable: false,
		},
	}
}

func (c fakeCatalog) GetByIDs(_ context.Context, ids []string) (map[string]product.Product, error) {
	found := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := c[id]; ok {
			found[id] = p
		}
	}

	return found, nil
}

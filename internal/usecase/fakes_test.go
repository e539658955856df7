package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"payrecon/internal/domain/model"
	repo "payrecon/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// in-memory DB（ユニーク制約 + ロールバックをまねる）
// =====================

type memState struct {
	payments   map[string]model.Payment
	orders     map[string]model.Order
	items      map[string][]model.OrderItem
	activities []model.ActivityRecord
}

func newMemState() *memState {
	return &memState{
		payments: map[string]model.Payment{},
		orders:   map[string]model.Order{},
		items:    map[string][]model.OrderItem{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]model.OrderItem(nil), v...)
	}
	c.activities = append([]model.ActivityRecord(nil), s.activities...)
	return c
}

func (s *memState) paymentByExternalID(externalID string) (model.Payment, bool) {
	for _, p := range s.payments {
		if p.ExternalTransactionID == externalID {
			return p, true
		}
	}
	return model.Payment{}, false
}

func (s *memState) orderConflict(o model.Order) error {
	for _, ex := range s.orders {
		if ex.ID == o.ID {
			continue
		}
		if ex.OrderNumber == o.OrderNumber {
			return repo.ErrOrderNumberTaken
		}
		if ex.PaymentID == o.PaymentID {
			return repo.ErrOrderExistsForPayment
		}
	}
	return nil
}

// memDB は TransactionManager の実装。
// Txはスナップショットで動き、コミット時にユニーク制約を再検査する（先にコミットした方が勝つ）。
type memDB struct {
	mu        sync.Mutex
	committed *memState

	// 故障注入
	failItems   error
	failPayment error
	failLookups error

	txCount atomic.Int64
}

func newMemDB() *memDB {
	return &memDB{committed: newMemState()}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	db.txCount.Add(1)

	db.mu.Lock()
	tx := &memTx{db: db, view: db.committed.clone(), updated: map[string]bool{}}
	db.mu.Unlock()

	if err := fn(tx); err != nil {
		//rollback: viewを捨てる
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	return tx.commitLocked()
}

func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.committed.clone()
}

func (db *memDB) seedOrder(o model.Order) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.committed.orders[o.ID] = o
}

type memTx struct {
	db   *memDB
	view *memState

	newPayments   []string
	updated       map[string]bool
	newOrders     []string
	newActivities []model.ActivityRecord
}

func (tx *memTx) commitLocked() error {
	c := tx.db.committed
	for _, id := range tx.newPayments {
		p := tx.view.payments[id]
		if _, ok := c.paymentByExternalID(p.ExternalTransactionID); ok {
			return repo.ErrPaymentExists
		}
	}
	for _, id := range tx.newOrders {
		if err := c.orderConflict(tx.view.orders[id]); err != nil {
			return err
		}
	}

	for _, id := range tx.newPayments {
		c.payments[id] = tx.view.payments[id]
	}
	for id := range tx.updated {
		c.payments[id] = tx.view.payments[id]
	}
	for _, id := range tx.newOrders {
		c.orders[id] = tx.view.orders[id]
		c.items[id] = tx.view.items[id]
	}
	c.activities = append(c.activities, tx.newActivities...)
	return nil
}

func (tx *memTx) Payments() repo.PaymentRepository     { return memPayments{tx} }
func (tx *memTx) Orders() repo.OrderRepository         { return memOrders{tx} }
func (tx *memTx) OrderItems() repo.OrderItemRepository { return memOrderItems{tx} }
func (tx *memTx) Activities() repo.ActivityRepository  { return memActivities{tx} }

type memPayments struct{ tx *memTx }

func (r memPayments) FindByExternalID(ctx context.Context, externalID string) (model.Payment, error) {
	if r.tx.db.failLookups != nil {
		return model.Payment{}, r.tx.db.failLookups
	}
	p, ok := r.tx.view.paymentByExternalID(externalID)
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memPayments) FindByExternalIDForUpdate(ctx context.Context, externalID string) (model.Payment, error) {
	return r.FindByExternalID(ctx, externalID)
}

func (r memPayments) Create(ctx context.Context, p model.Payment) error {
	if r.tx.db.failPayment != nil {
		return r.tx.db.failPayment
	}
	if _, ok := r.tx.view.paymentByExternalID(p.ExternalTransactionID); ok {
		return repo.ErrPaymentExists
	}
	r.tx.view.payments[p.ID] = p
	r.tx.newPayments = append(r.tx.newPayments, p.ID)
	return nil
}

func (r memPayments) MarkCompleted(ctx context.Context, paymentID string, amount decimal.Decimal, description string) error {
	p, ok := r.tx.view.payments[paymentID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = model.PaymentStatusCompleted
	p.Amount = amount
	p.Description = description
	r.tx.view.payments[paymentID] = p
	r.tx.updated[paymentID] = true
	return nil
}

type memOrders struct{ tx *memTx }

func (r memOrders) FindByPaymentID(ctx context.Context, paymentID string) (model.Order, bool, error) {
	for _, o := range r.tx.view.orders {
		if o.PaymentID == paymentID {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r memOrders) Create(ctx context.Context, order model.Order) error {
	if err := r.tx.view.orderConflict(order); err != nil {
		return err
	}
	r.tx.view.orders[order.ID] = order
	r.tx.newOrders = append(r.tx.newOrders, order.ID)
	return nil
}

func (r memOrders) ListNeedingReview(ctx context.Context, limit int) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range r.tx.view.orders {
		if o.NeedsReview {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memOrderItems struct{ tx *memTx }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	if r.tx.db.failItems != nil {
		return r.tx.db.failItems
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	r.tx.view.items[orderID] = append(r.tx.view.items[orderID], items...)
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	return append([]model.OrderItem{}, r.tx.view.items[orderID]...), nil
}

type memActivities struct{ tx *memTx }

func (r memActivities) Create(ctx context.Context, rec model.ActivityRecord) error {
	r.tx.view.activities = append(r.tx.view.activities, rec)
	r.tx.newActivities = append(r.tx.newActivities, rec)
	return nil
}

func (r memActivities) ListByReference(ctx context.Context, referenceID string) ([]model.ActivityRecord, error) {
	out := []model.ActivityRecord{}
	for _, rec := range r.tx.view.activities {
		if rec.ReferenceID == referenceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// =====================
// usecaseに渡す部品
// =====================

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("id-%d", g.n.Add(1))
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 決めた番号を順に返し、尽きたら連番
type scriptedNumbers struct {
	mu     sync.Mutex
	script []string
	n      int
}

func (g *scriptedNumbers) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if len(g.script) > 0 {
		next := g.script[0]
		g.script = g.script[1:]
		return next
	}
	return fmt.Sprintf("ORD-SEQ%d", g.n)
}

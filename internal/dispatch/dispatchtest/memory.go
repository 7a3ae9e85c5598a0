// Package dispatchtest provides in-memory ports for exercising the dispatch
// and reconciliation layers without a database or live carriers.
package dispatchtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
)

// MemoryStore is an in-memory order and carrier-configuration store.
type MemoryStore struct {
	mu      sync.Mutex
	orders  map[string]*shipper.Order
	order   []string
	configs map[string]shipper.CarrierConfig
	checked map[string]time.Time

	// Updates counts UpdateCourierInfo calls per order.
	Updates map[string]int
	// ListErr, when set, fails ListOpenBindings.
	ListErr error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  make(map[string]*shipper.Order),
		configs: make(map[string]shipper.CarrierConfig),
		checked: make(map[string]time.Time),
		Updates: make(map[string]int),
	}
}

// PutOrder stores a copy of o. Insertion order is the listing order.
func (m *MemoryStore) PutOrder(o *shipper.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		m.order = append(m.order, o.ID)
	}
	m.orders[o.ID] = clone(o)
}

// PutConfig stores a carrier configuration.
func (m *MemoryStore) PutConfig(cfg shipper.CarrierConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[configKey(cfg.TenantID, cfg.ID)] = cfg
}

// GetOrder implements dispatch.OrderStore.
func (m *MemoryStore) GetOrder(_ context.Context, orderID string) (*shipper.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	return clone(o), nil
}

// UpdateCourierInfo implements dispatch.OrderStore.
func (m *MemoryStore) UpdateCourierInfo(_ context.Context, orderID string, info shipper.OrderCourierInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	o.Courier = &info
	m.Updates[orderID]++
	return nil
}

// CarrierConfig implements dispatch.ConfigStore.
func (m *MemoryStore) CarrierConfig(_ context.Context, tenantID string, carrier shipper.Carrier) (shipper.CarrierConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[configKey(tenantID, carrier)]
	if !ok {
		return shipper.CarrierConfig{}, fmt.Errorf("%w: %s for tenant %s", shipper.ErrCarrierNotFound, carrier, tenantID)
	}
	return cfg, nil
}

// ListOpenBindings returns bound, non-terminal orders. Unchecked orders come
// first in insertion order, then the least recently checked.
func (m *MemoryStore) ListOpenBindings(_ context.Context, limit int) ([]*shipper.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var ids []string
	for _, id := range m.order {
		o := m.orders[id]
		if o.HasCourierBinding() && !o.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return m.checked[ids[i]].Before(m.checked[ids[j]])
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*shipper.Order, len(ids))
	for i, id := range ids {
		out[i] = clone(m.orders[id])
	}
	return out, nil
}

// MarkChecked implements reconcile.Lister.
func (m *MemoryStore) MarkChecked(_ context.Context, orderID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	m.checked[orderID] = at
	return nil
}

// Courier returns the stored binding of an order.
func (m *MemoryStore) Courier(orderID string) *shipper.OrderCourierInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Courier == nil {
		return nil
	}
	info := *o.Courier
	return &info
}

// Opener opens pre-built adapters and honors the Enabled flag.
type Opener struct {
	mu       sync.Mutex
	shippers map[shipper.Carrier]shipper.Shipper
	opened   []shipper.Carrier
}

// NewOpener creates an Opener serving the given adapters by Name.
func NewOpener(shippers ...shipper.Shipper) *Opener {
	o := &Opener{shippers: make(map[shipper.Carrier]shipper.Shipper)}
	for _, s := range shippers {
		o.shippers[shipper.Carrier(s.Name())] = s
	}
	return o
}

// Open implements dispatch.Opener.
func (o *Opener) Open(cfg shipper.CarrierConfig) (shipper.Shipper, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: %s", shipper.ErrCarrierDisabled, cfg.ID)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.shippers[cfg.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrCarrierNotFound, cfg.ID)
	}
	o.opened = append(o.opened, cfg.ID)
	return s, nil
}

// Opened lists the carriers opened so far, sorted.
func (o *Opener) Opened() []shipper.Carrier {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]shipper.Carrier(nil), o.opened...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func configKey(tenantID string, carrier shipper.Carrier) string {
	return tenantID + "/" + string(carrier)
}

func clone(o *shipper.Order) *shipper.Order {
	c := *o
	c.Items = append([]shipper.OrderItem(nil), o.Items...)
	if o.Courier != nil {
		info := *o.Courier
		c.Courier = &info
	}
	return &c
}

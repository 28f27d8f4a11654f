package events

import "sync"

// PendingOrders tracks orders that left for hosted checkout and whose
// payment outcome is only known through order events.
type PendingOrders struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewPendingOrders() *PendingOrders {
	return &PendingOrders{ids: make(map[string]struct{})}
}

func (p *PendingOrders) Add(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[orderID] = struct{}{}
}

// Remove reports whether orderID was pending.
func (p *PendingOrders) Remove(orderID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ids[orderID]; !ok {
		return false
	}
	delete(p.ids, orderID)
	return true
}

func (p *PendingOrders) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}

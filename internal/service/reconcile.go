package service

import "sync"

// Reconciler tracks applications whose paired user update failed after the
// application row was already decided. The decision stands (the application
// is the source of truth); the user sync is replayed later instead of
// failing the whole operation.
type Reconciler struct {
	mu      sync.Mutex
	pending map[uint]struct{}
}

func NewReconciler() *Reconciler {
	return &Reconciler{pending: make(map[uint]struct{})}
}

func (r *Reconciler) Record(applicationID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[applicationID] = struct{}{}
}

func (r *Reconciler) Resolve(applicationID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, applicationID)
}

func (r *Reconciler) Pending() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	return ids
}

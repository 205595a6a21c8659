package pathfinding

import (
	"container/heap"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
)

// Priority orders PathRequests within the scheduler's queue.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// DefaultQueueCap is the hard cap on pending requests (spec §4.3.3).
const DefaultQueueCap = 500

// DefaultBatchSize bounds how many requests are drained per tick.
const DefaultBatchSize = 64

// recentResultTTL: a result stored within this window is returned without
// re-queuing a duplicate request for the same entity.
const recentResultTTL = time.Second

// resultTTL: stored per-entity results older than this are dropped during
// cleanup.
const resultTTL = 10 * time.Second

// asyncThreshold: queue depth at or above which batches dispatch to the
// worker pool instead of running inline.
const asyncThreshold = 32

// DefaultPressureThreshold: at or above this pool pressure ratio, only
// urgent (Critical) requests run; the rest are re-queued.
const DefaultPressureThreshold = 0.8

// Callback receives the resolved path (nil on any failure/rejection) and
// the terminal status.
type Callback func(waypoints []entities.Vec2, status Status)

// Request is one pending path query.
type Request struct {
	EntityID    entities.Handle
	Start, Goal entities.Vec2
	SizeClass   SizeClass
	Priority    Priority
	RequestedAt time.Time
	Callback    Callback

	index int // heap bookkeeping
}

// requestHeap is a max-heap on Priority, FIFO within a priority tier.
type requestHeap []*Request

func (h requestHeap) Len() int { return len(h) }
func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].RequestedAt.Before(h[j].RequestedAt)
}
func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *requestHeap) Push(x any) {
	r := x.(*Request)
	r.index = len(*h)
	*h = append(*h, r)
}
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

type storedResult struct {
	waypoints []entities.Vec2
	status    Status
	at        time.Time
}

// Pool is the subset of workerpool.Pool the scheduler needs to dispatch
// batches asynchronously. Defined here (rather than imported) so
// pathfinding has no dependency on the workerpool package's concrete type.
type Pool interface {
	Submit(func()) bool
	PressureRatio() float64
}

// Scheduler is the PathfindingScheduler: a priority queue of requests, a
// per-entity throttle, a recent-result cache, and batch dispatch to an
// optional worker pool.
type Scheduler struct {
	mu sync.Mutex

	queue   requestHeap
	pending map[entities.Handle]struct{}
	results map[entities.Handle]storedResult

	planner *Planner
	cache   *Cache
	pool    Pool

	reference entities.Vec2

	sf singleflight.Group

	log *slog.Logger
}

// NewScheduler builds a Scheduler over the given planner and cache. pool
// may be nil, in which case batches always run inline.
func NewScheduler(planner *Planner, cache *Cache, pool Pool, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		pending: make(map[entities.Handle]struct{}),
		results: make(map[entities.Handle]storedResult),
		planner: planner,
		cache:   cache,
		pool:    pool,
		log:     log,
	}
}

// SetReferencePoint updates the point (typically the active player's
// position) used for priority adjustment and congestion eviction.
func (s *Scheduler) SetReferencePoint(p entities.Vec2) {
	s.mu.Lock()
	s.reference = p
	s.mu.Unlock()
}

// Submit enqueues a path request, applying cache lookups, throttling, and
// priority adjustment per spec §4.3.3. Every rejected path still invokes
// the callback with an empty waypoint list so callers can fall back.
func (s *Scheduler) Submit(req Request) {
	if positive, found, ok := s.cache.Lookup(req.Start, req.Goal); found {
		if ok {
			req.Callback(positive, Success)
		} else {
			req.Callback(nil, Blocked)
		}
		return
	}

	s.mu.Lock()

	if _, busy := s.pending[req.EntityID]; busy {
		s.mu.Unlock()
		req.Callback(nil, Blocked)
		return
	}

	if r, ok := s.results[req.EntityID]; ok && time.Since(r.at) < recentResultTTL {
		s.mu.Unlock()
		req.Callback(r.waypoints, r.status)
		return
	}

	if len(s.queue) >= DefaultQueueCap {
		s.mu.Unlock()
		req.Callback(nil, Blocked)
		return
	}

	req.Priority = adjustPriority(req.Priority, req.Start, s.reference)
	req.RequestedAt = time.Now()
	s.pending[req.EntityID] = struct{}{}
	heap.Push(&s.queue, &req)
	s.mu.Unlock()
}

// adjustPriority adjusts a request's priority by distance to the reference
// point (spec §4.3.3 step 5): within 800 px it is raised to at least High,
// up to 3200 px it is left as is, and beyond 3200 px it is set to Low.
func adjustPriority(p Priority, start, reference entities.Vec2) Priority {
	dx, dy := start.X-reference.X, start.Y-reference.Y
	distSq := dx*dx + dy*dy
	switch {
	case distSq <= 800*800:
		if p < PriorityHigh {
			return PriorityHigh
		}
	case distSq <= 1600*1600:
		// unchanged
	case distSq <= 3200*3200:
		if p < PriorityLow {
			return PriorityLow
		}
	default:
		return PriorityLow
	}
	return p
}

// RunBatch drains up to DefaultBatchSize requests, dispatching to the
// worker pool when the queue is deep and pool pressure allows. When the
// queue is deep but pool pressure is high, only Critical requests run and
// the rest are re-queued; otherwise the batch runs inline. Call once per
// tick.
func (s *Scheduler) RunBatch() {
	batch := s.drainBatch(DefaultBatchSize)
	if len(batch) == 0 {
		return
	}

	sortByMortonOfStart(batch)

	if s.pool != nil && len(batch) >= asyncThreshold {
		if s.pool.PressureRatio() < DefaultPressureThreshold {
			s.dispatchAsync(batch)
			return
		}
		var urgent []*Request
		s.mu.Lock()
		for _, req := range batch {
			if req.Priority == PriorityCritical {
				urgent = append(urgent, req)
			} else {
				heap.Push(&s.queue, req)
			}
		}
		s.mu.Unlock()
		s.runInline(urgent)
		return
	}
	s.runInline(batch)
}

func (s *Scheduler) drainBatch(n int) []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]*Request, 0, n)
	for len(s.queue) > 0 && len(batch) < n {
		batch = append(batch, heap.Pop(&s.queue).(*Request))
	}
	return batch
}

func sortByMortonOfStart(batch []*Request) {
	sort.Slice(batch, func(i, j int) bool {
		return morton2D(batch[i].Start) < morton2D(batch[j].Start)
	})
}

// morton2D interleaves the quantized x/y bits of p to improve cache
// locality across the A* planner's scratch maps when a batch is processed
// in sequence (spec §4.3.3 step 2).
func morton2D(p entities.Vec2) uint64 {
	x := uint32(p.X / CellSize)
	y := uint32(p.Y / CellSize)
	return interleave(x)<<1 | interleave(y)
}

func interleave(x uint32) uint64 {
	v := uint64(x)
	v = (v | (v << 16)) & 0x0000FFFF0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555
	return v
}

func (s *Scheduler) runInline(batch []*Request) {
	for _, req := range batch {
		s.execute(req)
	}
}

// dispatchAsync runs urgent requests inline and hands the rest to the
// worker pool in one submission; if the pool rejects the submission (shut
// down, queue full), it falls back to inline execution for safety.
func (s *Scheduler) dispatchAsync(batch []*Request) {
	var urgent, rest []*Request
	for _, req := range batch {
		if req.Priority == PriorityCritical {
			urgent = append(urgent, req)
		} else {
			rest = append(rest, req)
		}
	}
	s.runInline(urgent)

	if len(rest) == 0 {
		return
	}
	submitted := s.pool.Submit(func() {
		var g errgroup.Group
		for _, req := range rest {
			req := req
			g.Go(func() error {
				s.execute(req)
				return nil
			})
		}
		_ = g.Wait()
	})
	if !submitted {
		s.runInline(rest)
	}
}

// execute runs A* for req (throttled per-entity via singleflight so a
// duplicate in-flight search for the same entity is never run twice),
// stores the result, and invokes the callback.
func (s *Scheduler) execute(req *Request) {
	key := req.EntityID.String()
	v, _, _ := s.sf.Do(key, func() (any, error) {
		waypoints, status := s.planner.FindPath(req.Start, req.Goal, req.SizeClass)
		if status == Success {
			s.cache.Store(req.Start, req.Goal, waypoints)
		} else {
			s.cache.StoreNegative(req.Start, req.Goal)
		}
		return struct {
			waypoints []entities.Vec2
			status    Status
		}{waypoints, status}, nil
	})
	result := v.(struct {
		waypoints []entities.Vec2
		status    Status
	})

	s.mu.Lock()
	delete(s.pending, req.EntityID)
	s.results[req.EntityID] = storedResult{waypoints: result.waypoints, status: result.status, at: time.Now()}
	s.mu.Unlock()

	req.Callback(result.waypoints, result.status)
}

// Cleanup drops stale per-entity results, runs PathCache age cleanup, and
// runs congestion eviction around the reference point (spec §4.3.3 step
// 4). Call periodically, not necessarily every tick.
func (s *Scheduler) Cleanup(congestionRadius float32, congestionThreshold int, query CongestionQuery) {
	now := time.Now()
	s.mu.Lock()
	for id, r := range s.results {
		if now.Sub(r.at) > resultTTL {
			delete(s.results, id)
		}
	}
	reference := s.reference
	s.mu.Unlock()

	s.cache.AgeCleanup(DefaultMaxAge, DefaultMinUseCount)
	if query != nil {
		s.cache.CongestionEvict(reference, congestionRadius, congestionThreshold, 6, query)
	}
}

// HandleObstacleChanged invalidates cached paths crossing the changed
// region. Wire this as the Scheduler's subscriber to
// events.CollisionObstacleChanged.
func (s *Scheduler) HandleObstacleChanged(ev events.CollisionObstacleChanged) {
	s.cache.InvalidateObstacle(ev)
}

// QueueDepth reports the current pending-request count (diagnostic /
// metrics use).
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

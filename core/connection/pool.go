package connection

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tychoish/grip"
	"golang.org/x/sync/semaphore"

	"github.com/mongocore/driver/core/addr"
	"github.com/mongocore/driver/internal/atomiccell"
)

// ErrPoolClosed is returned from an attempt to use a closed pool.
var ErrPoolClosed = PoolError("pool is closed")

// ErrSizeLargerThanCapacity is returned from an attempt to create a pool with
// a size larger than the capacity.
var ErrSizeLargerThanCapacity = PoolError("size is larger than capacity")

// ErrPoolConnected is returned from an attempt to connect an already
// connected pool.
var ErrPoolConnected = PoolError("pool is connected")

// ErrPoolDisconnected is returned from an attempt to disconnect an already
// disconnected or disconnecting pool.
var ErrPoolDisconnected = PoolError("pool is disconnected or disconnecting")

// These constants represent the connection states of a pool.
const (
	disconnected int32 = iota
	disconnecting
	connected
)

// Pool is used to pool Connections to a server.
type Pool interface {
	// Get returns a connection that has completed its handshake, either a
	// pooled one or a newly dialed one.
	Get(context.Context) (Connection, error)
	// Connect initializes the Pool and allows connections to be retrieved
	// and pooled. Implementations must return an error if Connect is called
	// more than once before calling Disconnect.
	Connect(context.Context) error
	// Disconnect closes connections managed by this Pool. Implementations
	// must either wait until all of the connections in use have been
	// returned and closed or until the context expires before returning. If
	// the context expires, in-use connections are closed regardless.
	Disconnect(context.Context) error
	// Drain expires every connection currently handed out by the pool, so
	// each is closed instead of reused when it comes back.
	Drain() error
}

type factory func(ctx context.Context, address addr.Addr, opts ...Option) (Connection, error)

type pool struct {
	address    addr.Addr
	instance   uuid.UUID
	opts       []Option
	conns      chan *pooledConnection
	generation *atomiccell.Cell
	sem        *semaphore.Weighted
	connected  int32
	nextid     uint64
	capacity   uint64
	inflight   map[uint64]*pooledConnection
	dial       factory

	sync.Mutex
}

// NewPool creates a new pool that will hold size number of idle connections
// and will create a max of capacity connections. It will use the provided
// options when dialing new connections.
func NewPool(address addr.Addr, size, capacity uint64, opts ...Option) (Pool, error) {
	return newPool(address, size, capacity, New, opts...)
}

func newPool(address addr.Addr, size, capacity uint64, f factory, opts ...Option) (*pool, error) {
	if size > capacity {
		return nil, ErrSizeLargerThanCapacity
	}
	return &pool{
		address:    address,
		instance:   uuid.New(),
		opts:       opts,
		conns:      make(chan *pooledConnection, size),
		generation: &atomiccell.Cell{},
		sem:        semaphore.NewWeighted(int64(capacity)),
		connected:  disconnected,
		capacity:   capacity,
		inflight:   make(map[uint64]*pooledConnection),
		dial:       f,
	}, nil
}

func (p *pool) Drain() error {
	g := p.bumpGeneration()
	grip.Debugf("pool %s drained at generation %d", p.instance, g)
	return nil
}

// bumpGeneration advances the pool's generation counter and returns the new
// value.
func (p *pool) bumpGeneration() int64 {
	for {
		g := p.generation.Get()
		if p.generation.CompareAndSet(g, g+1) {
			return g + 1
		}
	}
}

func (p *pool) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.connected, disconnected, connected) {
		return ErrPoolConnected
	}
	p.bumpGeneration()
	return nil
}

func (p *pool) Disconnect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.connected, connected, disconnecting) {
		return ErrPoolDisconnected
	}

loop:
	for {
		select {
		case pc := <-p.conns:
			// The semaphore release happens inside closeConnection.
			_ = p.closeConnection(pc)
		default:
			break loop
		}
	}
	err := p.sem.Acquire(ctx, int64(p.capacity))
	if err != nil {
		p.Lock()
		toClose := make([]*pooledConnection, 0, len(p.inflight))
		for _, pc := range p.inflight {
			toClose = append(toClose, pc)
		}
		p.Unlock()
		for _, pc := range toClose {
			_ = p.closeConnection(pc)
		}
	} else {
		p.sem.Release(int64(p.capacity))
	}
	atomic.StoreInt32(&p.connected, disconnected)
	grip.Debugf("pool %s disconnected", p.instance)
	return nil
}

func (p *pool) Get(ctx context.Context) (Connection, error) {
	if atomic.LoadInt32(&p.connected) != connected {
		return nil, ErrPoolClosed
	}

	return p.get(ctx)
}

func (p *pool) get(ctx context.Context) (Connection, error) {
	g := p.generation.Get()
	select {
	case pc := <-p.conns:
		if pc.Expired() {
			go func() { _ = p.closeConnection(pc) }()
			return p.get(ctx)
		}

		return pc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		c, err := p.dial(ctx, p.address, p.opts...)
		if err != nil {
			p.sem.Release(1)
			return nil, errors.Wrapf(err, "pool %s unable to dial %s", p.instance, p.address)
		}

		pc := &pooledConnection{
			Connection: c,
			p:          p,
			generation: g,
			id:         atomic.AddUint64(&p.nextid, 1),
		}
		p.Lock()
		defer p.Unlock()
		p.inflight[pc.id] = pc
		return pc, nil
	}
}

func (p *pool) closeConnection(pc *pooledConnection) error {
	if !atomic.CompareAndSwapInt32(&pc.closed, 0, 1) {
		return nil
	}
	p.sem.Release(1)
	p.Lock()
	delete(p.inflight, pc.id)
	p.Unlock()
	return pc.Connection.Close()
}

func (p *pool) returnConnection(pc *pooledConnection) error {
	if atomic.LoadInt32(&p.connected) != connected || pc.Expired() {
		return p.closeConnection(pc)
	}

	select {
	case p.conns <- pc:
		return nil
	default:
		return p.closeConnection(pc)
	}
}

func (p *pool) isExpired(generation int64) bool {
	return generation < p.generation.Get()
}

type pooledConnection struct {
	Connection
	p          *pool
	generation int64
	id         uint64
	closed     int32
}

// Close returns the connection to its pool instead of closing the network
// socket. The pool decides whether to keep it.
func (pc *pooledConnection) Close() error {
	return pc.p.returnConnection(pc)
}

func (pc *pooledConnection) Expired() bool {
	return pc.Connection.Expired() || pc.p.isExpired(pc.generation)
}

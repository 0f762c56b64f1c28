package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory store with transactional semantics. Transactions
// are fully serialized, which is stricter than row locking but gives the same
// observable outcome for the properties under test.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seats      map[int64]*entity.Seat
	holds      map[int64]*entity.Hold
	nextSeatID int64
	nextHoldID int64

	// failures injected by tests, keyed by operation name
	failures    map[string]error
	failOnCall  map[string]int
	callCounter map[string]int
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats:       map[int64]*entity.Seat{},
		holds:       map[int64]*entity.Hold{},
		failures:    map[string]error{},
		failOnCall:  map[string]int{},
		callCounter: map[string]int{},
	}
}

func (f *fakeStore) repository() *repository.Repository {
	return &repository.Repository{
		Tx:   f,
		Seat: &fakeSeatRepo{f},
		Hold: &fakeHoldRepo{f},
	}
}

// failAt makes the n-th call (1-based) of op return err.
func (f *fakeStore) failAt(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
	f.failOnCall[op] = n
}

// check must be called with mu held.
func (f *fakeStore) check(op string) error {
	f.callCounter[op]++
	if err, ok := f.failures[op]; ok && f.callCounter[op] == f.failOnCall[op] {
		return err
	}
	return nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	seats, holds := f.snapshot()
	nextSeat, nextHold := f.nextSeatID, f.nextHoldID
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.mu.Lock()
		f.seats, f.holds = seats, holds
		f.nextSeatID, f.nextHoldID = nextSeat, nextHold
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) snapshot() (map[int64]*entity.Seat, map[int64]*entity.Hold) {
	seats := make(map[int64]*entity.Seat, len(f.seats))
	for id, s := range f.seats {
		cp := *s
		seats[id] = &cp
	}
	holds := make(map[int64]*entity.Hold, len(f.holds))
	for id, h := range f.holds {
		cp := *h
		holds[id] = &cp
	}
	return seats, holds
}

func (f *fakeStore) addSeat(number string, status entity.SeatStatus) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSeatID++
	f.seats[f.nextSeatID] = &entity.Seat{
		Base:       entity.Base{ID: f.nextSeatID},
		SeatNumber: number,
		Price:      decimal.NewFromInt(150),
		Status:     status,
	}
	return f.nextSeatID
}

func (f *fakeStore) addHold(seatID int64, status entity.HoldStatus, expiry time.Time) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHoldID++
	f.holds[f.nextHoldID] = &entity.Hold{
		ID:         f.nextHoldID,
		SeatID:     seatID,
		HoldTime:   expiry.Add(-DefaultHoldTTL),
		ExpiryTime: expiry,
		Status:     status,
	}
	return f.nextHoldID
}

func (f *fakeStore) seat(id int64) entity.Seat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.seats[id]
}

func (f *fakeStore) hold(id int64) entity.Hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.holds[id]
}

func (f *fakeStore) holdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.holds)
}

// requireConsistent asserts the seat/hold relationship holds for every seat.
func (f *fakeStore) requireConsistent(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	active := map[int64]int{}
	latest := map[int64]*entity.Hold{}
	for _, h := range f.holds {
		if h.Status == entity.HoldStatusActive {
			active[h.SeatID]++
		}
		if cur, ok := latest[h.SeatID]; !ok || h.ID > cur.ID {
			latest[h.SeatID] = h
		}
	}

	for id, s := range f.seats {
		require.LessOrEqual(t, active[id], 1, "seat %d has more than one active hold", id)
		switch s.Status {
		case entity.SeatStatusHeld:
			require.Equal(t, 1, active[id], "held seat %d needs exactly one active hold", id)
		case entity.SeatStatusAvailable:
			require.Zero(t, active[id], "available seat %d must not have an active hold", id)
		case entity.SeatStatusBooked:
			require.Zero(t, active[id], "booked seat %d must not have an active hold", id)
			require.NotNil(t, latest[id], "booked seat %d has no hold", id)
			require.Equal(t, entity.HoldStatusCompleted, latest[id].Status)
		}
	}
}

type fakeSeatRepo struct{ f *fakeStore }

func (r *fakeSeatRepo) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.check("seat.CreateBatch"); err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(r.f.seats)+len(seats))
	for _, s := range r.f.seats {
		taken[s.SeatNumber] = struct{}{}
	}
	for _, s := range seats {
		if _, ok := taken[s.SeatNumber]; ok {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_seats_seat_number"}
		}
		taken[s.SeatNumber] = struct{}{}
	}
	for _, s := range seats {
		r.f.nextSeatID++
		s.ID = r.f.nextSeatID
		cp := *s
		r.f.seats[s.ID] = &cp
	}
	return nil
}

func (r *fakeSeatRepo) FindByID(_ context.Context, id int64) (*entity.Seat, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.seats[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSeatRepo) LockByID(ctx context.Context, id int64) (*entity.Seat, error) {
	r.f.mu.Lock()
	err := r.f.check("seat.LockByID")
	r.f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *fakeSeatRepo) FindAll(_ context.Context) ([]*entity.Seat, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	seats := make([]*entity.Seat, 0, len(r.f.seats))
	for _, s := range r.f.seats {
		cp := *s
		seats = append(seats, &cp)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return seats, nil
}

func (r *fakeSeatRepo) LockAll(ctx context.Context) ([]*entity.Seat, error) {
	return r.FindAll(ctx)
}

func (r *fakeSeatRepo) Save(_ context.Context, seat *entity.Seat) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.check("seat.Save"); err != nil {
		return err
	}
	if _, ok := r.f.seats[seat.ID]; !ok {
		return fmt.Errorf("seat %d not found", seat.ID)
	}
	cp := *seat
	r.f.seats[seat.ID] = &cp
	return nil
}

func (r *fakeSeatRepo) SaveAll(ctx context.Context, seats []*entity.Seat) error {
	for _, s := range seats {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSeatRepo) UpdateStatus(_ context.Context, id int64, status entity.SeatStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.check("seat.UpdateStatus"); err != nil {
		return err
	}
	s, ok := r.f.seats[id]
	if !ok {
		return fmt.Errorf("seat %d not found", id)
	}
	s.Status = status
	return nil
}

// LockInventory only records the call; fakeStore transactions are already
// serialized.
func (r *fakeSeatRepo) LockInventory(_ context.Context) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.check("seat.LockInventory")
}

func (r *fakeSeatRepo) CountByStatus(_ context.Context, status entity.SeatStatus) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for _, s := range r.f.seats {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeHoldRepo struct{ f *fakeStore }

func (r *fakeHoldRepo) Create(_ context.Context, hold *entity.Hold) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.check("hold.Create"); err != nil {
		return err
	}
	r.f.nextHoldID++
	hold.ID = r.f.nextHoldID
	cp := *hold
	r.f.holds[hold.ID] = &cp
	return nil
}

func (r *fakeHoldRepo) UpdateStatus(_ context.Context, id int64, status entity.HoldStatus) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.check("hold.UpdateStatus"); err != nil {
		return err
	}
	h, ok := r.f.holds[id]
	if !ok {
		return fmt.Errorf("hold %d not found", id)
	}
	h.Status = status
	return nil
}

func (r *fakeHoldRepo) DeleteAll(_ context.Context) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	n := int64(len(r.f.holds))
	r.f.holds = map[int64]*entity.Hold{}
	return n, nil
}

func (r *fakeHoldRepo) FindByIDsForUpdate(_ context.Context, ids []int64) ([]*entity.Hold, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	seen := map[int64]bool{}
	holds := []*entity.Hold{}
	for _, id := range ids {
		h, ok := r.f.holds[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		cp := *h
		holds = append(holds, &cp)
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].ID < holds[j].ID })
	return holds, nil
}

func (r *fakeHoldRepo) FindActiveExpiredBefore(_ context.Context, ts time.Time) ([]*entity.Hold, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	holds := []*entity.Hold{}
	for _, h := range r.f.holds {
		if h.Status == entity.HoldStatusActive && h.ExpiryTime.Before(ts) {
			cp := *h
			holds = append(holds, &cp)
		}
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].ID < holds[j].ID })
	return holds, nil
}

// manualClock is a test clock that only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(t time.Time) *manualClock {
	return &manualClock{now: t}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

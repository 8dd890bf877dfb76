// Package memory keeps users, sensors and readings in process memory. It
// honours the same contracts as the postgres repositories (uniqueness,
// ownership scoping, cascades) and backs the "memory" database driver and
// the test suites.
package memory

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/models"
)

// ErrTxDone is returned when a transaction is finished twice
var ErrTxDone = stderrors.New("memory: transaction has already been committed or rolled back")

// Store is the shared state behind the memory repositories
type Store struct {
	mu   sync.RWMutex
	data tables
	// serializes transactions; a rollback restores the snapshot taken at begin
	txMu sync.Mutex
}

type tables struct {
	users       map[int64]models.User
	sensors     map[int64]models.Sensor
	readings    map[int64]models.Reading
	nextUser    int64
	nextSensor  int64
	nextReading int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: tables{
		users:    map[int64]models.User{},
		sensors:  map[int64]models.Sensor{},
		readings: map[int64]models.Reading{},
	}}
}

// Users returns the user repository view of the store
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Sensors returns the sensor repository view of the store
func (s *Store) Sensors() *SensorRepo { return &SensorRepo{s: s} }

// Readings returns the reading repository view of the store
func (s *Store) Readings() *ReadingRepo { return &ReadingRepo{s: s} }

func (t tables) clone() tables {
	c := t
	c.users = make(map[int64]models.User, len(t.users))
	for k, v := range t.users {
		c.users[k] = v
	}
	c.sensors = make(map[int64]models.Sensor, len(t.sensors))
	for k, v := range t.sensors {
		c.sensors[k] = v
	}
	c.readings = make(map[int64]models.Reading, len(t.readings))
	for k, v := range t.readings {
		c.readings[k] = v
	}
	return c
}

type memTx struct {
	store    *Store
	snapshot tables
	done     bool
}

// BeginTx starts a transaction. Transactions are serialized with each other;
// plain calls outside a transaction are not blocked.
func (s *Store) BeginTx(ctx context.Context) (database.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	s.mu.RLock()
	snap := s.data.clone()
	s.mu.RUnlock()
	return &memTx{store: s, snapshot: snap}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.mu.Lock()
	t.store.data = t.snapshot
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

// normalizeTimestamp matches the microsecond precision of TIMESTAMPTZ
func normalizeTimestamp(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Microsecond)
}

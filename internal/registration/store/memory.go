package store

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/internal/registration/service"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
)

var _ service.Repository = (*InMemory)(nil)

// numShards bounds lock contention between transactions on different
// identifiers. Transactions on the same identifier always share a shard.
const numShards = 128

const defaultTxTimeout = 5 * time.Second

type locationRow struct {
	uri          string
	registrantID domain.RegistrantID
	isFailover   bool
	lastModified time.Time
	seq          uint64
}

// InMemory is a map-backed registry store used by tests and by STORE=memory.
type InMemory struct {
	mu      sync.RWMutex
	rows    map[string][]locationRow
	seq     uint64
	shards  [numShards]sync.Mutex
	now     func() time.Time
	timeout time.Duration
}

type MemoryOption func(*InMemory)

// WithClock overrides the clock used to stamp last_modified.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemory) {
		s.now = now
	}
}

// WithTxTimeout bounds transactions started without a deadline.
func WithTxTimeout(d time.Duration) MemoryOption {
	return func(s *InMemory) {
		s.timeout = d
	}
}

func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		rows:    make(map[string][]locationRow),
		now:     time.Now,
		timeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) HasAnyLocation(_ context.Context, identifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[identifier]) > 0, nil
}

func (s *InMemory) HasFailoverLocationOwnedBy(_ context.Context, identifier string, registrantID domain.RegistrantID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasFailoverOwnedBy(s.rows[identifier], registrantID), nil
}

func (s *InMemory) ListLocations(_ context.Context, identifier string, includeFailover bool) ([]*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toLocations(s.rows[identifier], includeFailover), nil
}

func (s *InMemory) InsertLocations(_ context.Context, identifier string, uris []string, registrantID domain.RegistrantID, isFailover bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[identifier] = s.appendRows(s.rows[identifier], uris, registrantID, isFailover)
	return nil
}

func (s *InMemory) DeleteLocationsOwnedBy(_ context.Context, identifier string, registrantID domain.RegistrantID, isFailover bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRows(identifier, withoutOwned(s.rows[identifier], registrantID, isFailover))
	return nil
}

func (s *InMemory) FindIdentifiersByLocation(_ context.Context, uri string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var identifiers []string
	for identifier, rows := range s.rows {
		for _, r := range rows {
			if r.uri == uri {
				identifiers = append(identifiers, identifier)
				break
			}
		}
	}
	sort.Strings(identifiers)
	return identifiers, nil
}

// RunInTx serializes transactions on identifier and runs fn against a staged
// copy of the touched identifiers. The copy is published only when fn
// returns nil, so a failing callback leaves no partial writes.
func (s *InMemory) RunInTx(ctx context.Context, identifier string, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := &s.shards[shardFor(identifier)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	staged := &stagedStore{base: s, rows: make(map[string][]locationRow)}
	if err := fn(staged); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ident, rows := range staged.rows {
		s.setRows(ident, rows)
	}
	return nil
}

// Reset clears every location.
func (s *InMemory) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[string][]locationRow)
}

// Ping always succeeds.
func (s *InMemory) Ping(context.Context) error {
	return nil
}

// appendRows must be called with mu held for writing, or from a staged store
// whose stamps are taken under mu.
func (s *InMemory) appendRows(rows []locationRow, uris []string, registrantID domain.RegistrantID, isFailover bool) []locationRow {
	now := s.now()
	for _, uri := range uris {
		if containsRow(rows, uri, registrantID, isFailover) {
			continue
		}
		s.seq++
		rows = append(rows, locationRow{
			uri:          uri,
			registrantID: registrantID,
			isFailover:   isFailover,
			lastModified: now,
			seq:          s.seq,
		})
	}
	return rows
}

func (s *InMemory) setRows(identifier string, rows []locationRow) {
	if len(rows) == 0 {
		delete(s.rows, identifier)
		return
	}
	s.rows[identifier] = rows
}

// stagedStore buffers one transaction's writes per identifier. Reads of an
// identifier not yet touched fall through to the base store.
type stagedStore struct {
	base *InMemory
	rows map[string][]locationRow
}

func (t *stagedStore) view(identifier string) []locationRow {
	if rows, ok := t.rows[identifier]; ok {
		return rows
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	return append([]locationRow(nil), t.base.rows[identifier]...)
}

func (t *stagedStore) HasAnyLocation(_ context.Context, identifier string) (bool, error) {
	return len(t.view(identifier)) > 0, nil
}

func (t *stagedStore) HasFailoverLocationOwnedBy(_ context.Context, identifier string, registrantID domain.RegistrantID) (bool, error) {
	return hasFailoverOwnedBy(t.view(identifier), registrantID), nil
}

func (t *stagedStore) ListLocations(_ context.Context, identifier string, includeFailover bool) ([]*models.Location, error) {
	return toLocations(t.view(identifier), includeFailover), nil
}

func (t *stagedStore) InsertLocations(_ context.Context, identifier string, uris []string, registrantID domain.RegistrantID, isFailover bool) error {
	rows := t.view(identifier)
	t.base.mu.Lock()
	rows = t.base.appendRows(rows, uris, registrantID, isFailover)
	t.base.mu.Unlock()
	t.rows[identifier] = rows
	return nil
}

func (t *stagedStore) DeleteLocationsOwnedBy(_ context.Context, identifier string, registrantID domain.RegistrantID, isFailover bool) error {
	t.rows[identifier] = withoutOwned(t.view(identifier), registrantID, isFailover)
	return nil
}

func (t *stagedStore) FindIdentifiersByLocation(ctx context.Context, uri string) ([]string, error) {
	return t.base.FindIdentifiersByLocation(ctx, uri)
}

func hasFailoverOwnedBy(rows []locationRow, registrantID domain.RegistrantID) bool {
	for _, r := range rows {
		if r.isFailover && r.registrantID == registrantID {
			return true
		}
	}
	return false
}

func containsRow(rows []locationRow, uri string, registrantID domain.RegistrantID, isFailover bool) bool {
	for _, r := range rows {
		if r.uri == uri && r.registrantID == registrantID && r.isFailover == isFailover {
			return true
		}
	}
	return false
}

func withoutOwned(rows []locationRow, registrantID domain.RegistrantID, isFailover bool) []locationRow {
	kept := make([]locationRow, 0, len(rows))
	for _, r := range rows {
		if r.registrantID == registrantID && r.isFailover == isFailover {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func toLocations(rows []locationRow, includeFailover bool) []*models.Location {
	locations := make([]*models.Location, 0, len(rows))
	for _, r := range rows {
		if r.isFailover && !includeFailover {
			continue
		}
		locations = append(locations, &models.Location{
			URI:          r.uri,
			IsFailover:   r.isFailover,
			RegistrantID: r.registrantID,
			LastModified: r.lastModified,
		})
	}
	return locations
}

func shardFor(identifier string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return int(h.Sum32() % numShards)
}

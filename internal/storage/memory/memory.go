// Package memory is an in-memory Store used by tests. It keeps the same
// contract as the MySQL stores, including the atomic sale (one winner per
// item) and the unsold-item cascade.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

// Store holds the shared state. Items(), Users() and Transactions() expose
// the per-entity store views.
type Store struct {
	mu           sync.Mutex
	users        map[int64]models.User
	items        map[string]models.Item
	transactions map[string]models.Transaction
	nextUserID   int64

	// FailCascades makes the next N DeleteUnsoldItems calls fail, for
	// exercising the bounded retry.
	FailCascades int
}

func NewStore() *Store {
	return &Store{
		users:        map[int64]models.User{},
		items:        map[string]models.Item{},
		transactions: map[string]models.Transaction{},
		nextUserID:   1,
	}
}

func (s *Store) Items() storage.ItemStore               { return &itemStore{s} }
func (s *Store) Users() storage.UserStore               { return &userStore{s} }
func (s *Store) Transactions() storage.TransactionStore { return &transactionStore{s} }

// SeedUser inserts a user directly, assigning an id.
func (s *Store) SeedUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.nextUserID
	}
	if user.ID >= s.nextUserID {
		s.nextUserID = user.ID + 1
	}
	s.users[user.ID] = user
	return user
}

// SeedItem inserts an item directly.
func (s *Store) SeedItem(item models.Item) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.Images == nil {
		item.Images = []string{}
	}
	s.items[item.ID] = item
	return item
}

// Item returns the current stored copy, or nil.
func (s *Store) Item(id string) *models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil
	}
	return &item
}

// User returns the current stored copy, or nil.
func (s *Store) User(id int64) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	return &user
}

// TransactionCount reports how many transactions exist for the item.
func (s *Store) TransactionCount(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.transactions {
		if t.ItemID == itemID {
			count++
		}
	}
	return count
}

// --- ItemStore ---

type itemStore struct{ s *Store }

func (m *itemStore) List(ctx context.Context) ([]models.Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	items := []models.Item{}
	for _, item := range m.s.items {
		if item.IsListable() {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *itemStore) Get(ctx context.Context, id string) (*models.Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	item, ok := m.s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &item, nil
}

func (m *itemStore) Search(ctx context.Context, plan *search.Plan) ([]models.Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	matched := []models.Item{}
	for _, item := range m.s.items {
		if matchesAll(item, plan.Predicates) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range plan.Orders {
			cmp := compareColumn(matched[i], matched[j], o.Column)
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return matched, nil
}

func (m *itemStore) Create(ctx context.Context, item *models.Item) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.items[item.ID] = *item
	return nil
}

func (m *itemStore) Update(ctx context.Context, item *models.Item) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.items[item.ID]; !ok {
		return storage.ErrNotFound
	}
	m.s.items[item.ID] = *item
	return nil
}

func (m *itemStore) UpdateImages(ctx context.Context, id string, images []string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	item, ok := m.s.items[id]
	if !ok {
		return storage.ErrNotFound
	}
	item.Images = images
	m.s.items[id] = item
	return nil
}

func (m *itemStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.s.items, id)
	return nil
}

// --- UserStore ---

type userStore struct{ s *Store }

func (m *userStore) List(ctx context.Context) ([]models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	users := []models.User{}
	for _, user := range m.s.users {
		if user.IsActive() {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *userStore) Get(ctx context.Context, id int64) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (m *userStore) Create(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user.ID = m.s.nextUserID
	m.s.nextUserID++
	m.s.users[user.ID] = *user
	return nil
}

func (m *userStore) Update(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	m.s.users[user.ID] = *user
	return nil
}

func (m *userStore) MarkDeleted(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user, ok := m.s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.IsDeleted = true
	m.s.users[id] = user
	return nil
}

func (m *userStore) DeleteUnsoldItems(ctx context.Context, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.FailCascades > 0 {
		m.s.FailCascades--
		return errors.New("cascade failed")
	}

	transacted := map[string]bool{}
	for _, t := range m.s.transactions {
		transacted[t.ItemID] = true
	}
	for id, item := range m.s.items {
		if item.UserID == userID && !transacted[id] {
			delete(m.s.items, id)
		}
	}
	return nil
}

// --- TransactionStore ---

type transactionStore struct{ s *Store }

func (m *transactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	transactions := []models.Transaction{}
	for _, t := range m.s.transactions {
		transactions = append(transactions, t)
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions, nil
}

func (m *transactionStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t, ok := m.s.transactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (m *transactionStore) HasForItem(ctx context.Context, itemID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range m.s.transactions {
		if t.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

// CreateAndMarkSold mirrors the MySQL store: the state re-check, the unique
// item_id constraint and the flip happen under one lock.
func (m *transactionStore) CreateAndMarkSold(ctx context.Context, t *models.Transaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	item, ok := m.s.items[t.ItemID]
	if !ok {
		return storage.ErrNotFound
	}
	if item.State == models.ItemStateSold {
		return storage.ErrItemSold
	}
	for _, existing := range m.s.transactions {
		if existing.ItemID == t.ItemID {
			return storage.ErrItemSold
		}
	}

	m.s.transactions[t.ID] = *t
	item.State = models.ItemStateSold
	m.s.items[t.ItemID] = item
	return nil
}

// --- plan evaluation ---

func matchesAll(item models.Item, predicates []search.Predicate) bool {
	for _, p := range predicates {
		if !matches(item, p) {
			return false
		}
	}
	return true
}

func matches(item models.Item, p search.Predicate) bool {
	value := columnValue(item, p.Column)
	switch p.Op {
	case search.OpEq:
		return equals(value, p.Value)
	case search.OpNotEq:
		return !equals(value, p.Value)
	case search.OpGte:
		a, aok := asNumber(value)
		b, bok := asNumber(p.Value)
		return aok && bok && a >= b
	case search.OpLte:
		a, aok := asNumber(value)
		b, bok := asNumber(p.Value)
		return aok && bok && a <= b
	case search.OpContains:
		s, ok := value.(string)
		needle, nok := p.Value.(string)
		return ok && nok && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	default:
		return false
	}
}

func columnValue(item models.Item, column string) any {
	switch column {
	case "userId":
		return item.UserID
	case "title":
		return item.Title
	case "description":
		return item.Description
	case "price":
		return item.Price
	case "category":
		return item.Category
	case "location":
		return item.Location
	case "state":
		return string(item.State)
	case "condition":
		return item.Condition
	case "publishDate":
		return item.PublishDate
	default:
		return nil
	}
}

func equals(a, b any) bool {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return an == bn
		}
		return false
	}
	return a == b
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareColumn(a, b models.Item, column string) int {
	av := columnValue(a, column)
	bv := columnValue(b, column)
	if an, ok := asNumber(av); ok {
		bn, _ := asNumber(bv)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	as, _ := av.(string)
	bs, _ := bv.(string)
	return strings.Compare(as, bs)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func strPtr(v string) *string { return &v }

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

type planRepoStub struct {
	plans     map[string]models.LessonPlan
	order     []string
	deleted   []string
	updateErr error
}

func newPlanRepoStub(plans ...models.LessonPlan) *planRepoStub {
	stub := &planRepoStub{plans: make(map[string]models.LessonPlan)}
	for _, plan := range plans {
		stub.plans[plan.ID] = plan
		stub.order = append(stub.order, plan.ID)
	}
	return stub
}

func (s *planRepoStub) List(ctx context.Context) ([]models.LessonPlan, error) {
	out := make([]models.LessonPlan, 0, len(s.order))
	for _, id := range s.order {
		if plan, ok := s.plans[id]; ok {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (s *planRepoStub) FindByID(ctx context.Context, id string) (*models.LessonPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &plan, nil
}

func (s *planRepoStub) Create(ctx context.Context, plan *models.LessonPlan) error {
	if plan.ID == "" {
		plan.ID = "plan-" + plan.Name
	}
	s.plans[plan.ID] = *plan
	s.order = append(s.order, plan.ID)
	return nil
}

func (s *planRepoStub) Update(ctx context.Context, plan *models.LessonPlan) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.plans[plan.ID]; !ok {
		return sql.ErrNoRows
	}
	s.plans[plan.ID] = *plan
	return nil
}

func (s *planRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, ok := s.plans[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.plans, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type blockRepoStub struct {
	blocks    []models.TimeBlock
	writes    []string
	created   []models.TimeBlock
	assignErr error
}

func (s *blockRepoStub) List(ctx context.Context) ([]models.TimeBlock, error) {
	out := make([]models.TimeBlock, len(s.blocks))
	copy(out, s.blocks)
	return out, nil
}

func (s *blockRepoStub) Count(ctx context.Context) (int, error) {
	return len(s.blocks), nil
}

func (s *blockRepoStub) BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.TimeBlock) error {
	for i := range blocks {
		if blocks[i].ID == "" {
			blocks[i].ID = "generated"
		}
	}
	s.created = append(s.created, blocks...)
	s.blocks = append(s.blocks, blocks...)
	return nil
}

func (s *blockRepoStub) SetAssignment(ctx context.Context, exec sqlx.ExtContext, blockID string, planID *string) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	for i := range s.blocks {
		if s.blocks[i].ID == blockID {
			s.blocks[i].LessonPlanID = planID
			s.writes = append(s.writes, blockID)
			return nil
		}
	}
	return sql.ErrNoRows
}

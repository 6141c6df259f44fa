package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"decom/internal/model"
	"decom/internal/schedule"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var today = schedule.NewDate(2026, time.March, 19)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Tables()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedCommittee(t *testing.T, db *gorm.DB, name string) *model.Committee {
	t.Helper()
	c := &model.Committee{Name: name, Color: "#336699"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedUser(t *testing.T, db *gorm.DB, email, role, password string) *model.User {
	t.Helper()
	u, err := NewUserService(db).create(context.Background(), model.CreateUserPayload{
		Email: email, FullName: strings.Split(email, "@")[0], Role: role, Password: password,
	})
	require.NoError(t, err)
	return u
}

func requestPayload(committeeID uint, eventDate string) model.CreateRequestPayload {
	return model.CreateRequestPayload{
		CommitteeID:   committeeID,
		RequesterName: "Ana Pérez",
		EventName:     "Retiro de jóvenes",
		EventDate:     eventDate,
		MaterialType:  model.MaterialFlyer,
		ContactPhone:  "8112345678",
	}
}

func historyCount(t *testing.T, db *gorm.DB, requestID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.RequestHistory{}).Where("request_id = ?", requestID).Count(&n).Error)
	return n
}

type recordingSyncer struct {
	mu       sync.Mutex
	requests []model.Request
	history  []model.RequestHistory
	done     chan struct{}
}

func newRecordingSyncer() *recordingSyncer {
	return &recordingSyncer{done: make(chan struct{}, 16)}
}

func (r *recordingSyncer) SyncRequest(_ context.Context, req model.Request) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
}

func (r *recordingSyncer) SyncHistory(_ context.Context, h model.RequestHistory) {
	r.mu.Lock()
	r.history = append(r.history, h)
	r.mu.Unlock()
	r.done <- struct{}{}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(b, dst)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

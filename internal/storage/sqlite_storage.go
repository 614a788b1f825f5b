package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lottery/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SqliteStorage keeps balances, the lottery record and play history in one sqlite file.
// A single connection plus writerMu serializes atomic units, so no two units can
// read-then-write the same balance concurrently.
type SqliteStorage struct {
	db       *gorm.DB
	writerMu sync.Mutex
}

func NewSqliteStorage(path string) (*SqliteStorage, error) {

	logger.Debug("initializing database...", zap.String("path", path))
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&Balance{},
		&LotteryState{},
		&PlayRecord{},
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	logger.Debug("initializing database... done")
	return &SqliteStorage{
		db: db,
	}, nil
}

func (s *SqliteStorage) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sqliteTx{db: tx})
	})
}

func (s *SqliteStorage) GetPlaysByPlayer(ctx context.Context, player string) ([]*PlayRecord, error) {
	logger.Debug("getting plays by player...", zap.String("player", player))

	var plays []*PlayRecord
	err := s.db.WithContext(ctx).
		Where("player = ?", player).
		Order("played_at desc").
		Order("id").
		Find(&plays).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("getting plays by player... done", zap.Int("count", len(plays)))
	return plays, nil
}

func (s *SqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqliteTx struct {
	db *gorm.DB
}

func (t *sqliteTx) GetBalance(address string) (uint64, error) {
	var balance Balance
	result := t.db.Where("address = ?", address).Limit(1).Find(&balance)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	return balance.Lamports, nil
}

func (t *sqliteTx) SetBalance(address string, lamports uint64) error {
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"lamports"}),
	}).Create(&Balance{Address: address, Lamports: lamports}).Error
}

func (t *sqliteTx) GetLotteryState(address string) (*LotteryState, error) {
	var state LotteryState
	err := t.db.Where("address = ?", address).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (t *sqliteTx) CreateLotteryState(state *LotteryState) error {
	logger.Debug("creating lottery state...", zap.String("address", state.Address))

	if err := t.db.Create(state).Error; err != nil {
		return err
	}

	logger.Debug("creating lottery state... done")
	return nil
}

func (t *sqliteTx) CreatePlay(play *PlayRecord) error {
	return t.db.Create(play).Error
}

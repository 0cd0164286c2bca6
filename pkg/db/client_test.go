package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type bin struct {
	ID       int
	Location string `gorm:"uniqueIndex"`
}

func openBins(t *testing.T, logg *logger.Logger, slow time.Duration) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:dbclient_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 newQueryLogger(logg, slow),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&bin{}))
	return conn
}

func countBins(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&bin{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	conn := openBins(t, nil, 0)
	client := NewFromGorm(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&bin{Location: "A-01"}).Error
	}))
	assert.EqualValues(t, 1, countBins(t, conn))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&bin{Location: "A-02"}).Error; err != nil {
			return err
		}
		return errors.New("shelf full")
	})
	assert.EqualError(t, err, "shelf full")
	assert.EqualValues(t, 1, countBins(t, conn))
}

func TestWithTxCodesConstraintViolations(t *testing.T) {
	conn := openBins(t, nil, 0)
	client := NewFromGorm(conn)
	require.NoError(t, conn.Create(&bin{Location: "D-01"}).Error)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&bin{Location: "D-01"}).Error
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIntegrity))
	assert.True(t, IsUniqueViolation(err, ""))

	coded := pkgerrors.New(pkgerrors.CodeStateConflict, "bin sealed")
	err = client.WithTx(context.Background(), func(*gorm.DB) error { return coded })
	assert.Same(t, coded, err)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := openBins(t, nil, 0)
	client := NewFromGorm(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&bin{Location: "B-01"}).Error; err != nil {
				return err
			}
			panic("forklift")
		})
	})
	assert.EqualValues(t, 0, countBins(t, conn))
}

func TestPing(t *testing.T) {
	assert.NoError(t, NewFromGorm(openBins(t, nil, 0)).Ping(context.Background()))
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          "file:dbnew_" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 2,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", client.DB().Dialector.Name())
	assert.NoError(t, client.Close())

	_, err = New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite}, nil)
	assert.Error(t, err)
}

func TestDialectorForSelectsDriver(t *testing.T) {
	assert.Equal(t, "sqlite", dialectorFor(config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file::memory:"}).Name())
	assert.Equal(t, "postgres", dialectorFor(config.DBConfig{Driver: config.DBDriverPostgres, DSN: "postgres://localhost/autoshop"}).Name())
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	conn := openBins(t, logg, time.Nanosecond)
	buf.Reset()

	require.NoError(t, conn.Create(&bin{Location: "C-01"}).Error)
	assert.Contains(t, buf.String(), `"message":"db.slow_query"`)
	assert.Contains(t, buf.String(), `"sql":`)
}

func TestQueryLoggerIgnoresRecordNotFound(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Level: logger.ParseLevel("debug")})
	conn := openBins(t, logg, time.Hour)
	buf.Reset()

	err := conn.First(&bin{}, "location = ?", "missing").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "db.query_failed")
}

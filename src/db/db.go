package db

import (
	"esm/src/config"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// GetDb lazily opens the shared pool. TranslateError surfaces unique
// violations as gorm.ErrDuplicatedKey, which the booking number allocator
// relies on to retry collisions.
func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	_db, err := gorm.Open(postgres.Open(config.GetDSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Printf("Error connecting to marketplace database: %s\n", err.Error())
		panic(err)
	}
	sqlDB, err := _db.DB()
	if err != nil {
		log.Fatalf("Error configuring the database pool: %s\n", err.Error())
	}
	// Checkout traffic holds connections only briefly; a small pool with
	// recycled connections is enough.
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	db = _db
	return _db
}

// NewDB swaps the shared handle, letting tests install a sqlmock-backed
// connection.
func NewDB(newdb *gorm.DB) {
	db = newdb
}

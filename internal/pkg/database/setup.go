package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var DB *gorm.DB

// GetDB returns the shared connection, nil before SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// Driver returns the configured SQL dialect, mysql unless DB_DRIVER says postgres.
func Driver() string {
	switch strings.ToLower(env.GetEnv("DB_DRIVER", DriverMySQL)) {
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres
	default:
		return DriverMySQL
	}
}

// Dialector builds the GORM dialector for the configured driver.
func Dialector(driver string) gorm.Dialector {
	if driver == DriverPostgres {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_NAME", ""),
			env.GetEnv("DB_PORT", "5432"),
			env.GetEnv("DB_SSLMODE", "disable"),
		)
		return postgres.New(postgres.Config{DSN: dsn})
	}

	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
	return mysql.New(mysql.Config{
		DSN:                       dsn,   // data source name
		DefaultStringSize:         256,   // default size for string fields
		DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
		DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
		DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
		SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
	})
}

// Models lists every table owned by the application.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscription{},
		&models.Payment{},
		&models.Product{},
		&models.BillingWebhookEvent{},
	}
}

func SetupDatabase() {
	var err error
	driver := Driver()

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(Dialector(driver), &gorm.Config{})
		if err == nil {
			if err = DB.AutoMigrate(Models()...); err != nil {
				log.Errorf("Auto migration failed: %v", err)
			}
			log.Infof("Connected to %s database", driver)
			return
		}

		log.Warnf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

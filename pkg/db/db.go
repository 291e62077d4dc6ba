package db

import (
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// migration order matters: freezers and profiles own the foreign keys of the rest
var tables = []any{
	&models.Freezer{},
	&models.ThresholdProfile{},
	&models.DeviceThresholdAssignment{},
	&models.Reading{},
	&models.CorrectiveAction{},
}

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLogger()
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		// sqlite serializes writers anyway; one connection keeps the shared memory db alive
		// and makes the pragmas below apply to every statement
		sqlDB, err := conn.DB()
		if err != nil {
			log.Fatal("Failed to access sql.DB:", err)
		}
		sqlDB.SetMaxOpenConns(1)

		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			log.Fatal("Failed to enable sqlite foreign key support", err)
		}

		instance = &DB{Conn: conn}

		if err = instance.Conn.AutoMigrate(tables...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")

		if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			log.Fatal("Failed to set sqlite journal mode", err)
		}
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyMonitorDbPath); !found {
		dbPath = "coldchain.db"
	}
	return sqlite.Open(dbPath + "?_foreign_keys=on")
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared&_foreign_keys=on")
}

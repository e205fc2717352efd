package db

import (
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens dsn with gorm. A "mysql://" prefix selects the MySQL driver
// (user:pass@tcp(host:3306)/db?parseTime=true after the prefix); anything
// else is a SQLite path or URI.
func Connect(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if rest, ok := strings.CutPrefix(dsn, "mysql://"); ok {
		return gorm.Open(mysql.Open(rest), cfg)
	}
	return gorm.Open(gormsqlite.Open(dsn), cfg)
}

// Package database opens the MySQL handle every repository shares.  The
// seat state store relies on FOR UPDATE row locks and compare-and-swap
// updates, so all connections parse DATETIME columns into time.Time and
// pin the session location to UTC: a status transition compared against
// a local-time cutoff would silently widen or shrink the reservation
// window.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Params carries the connection coordinates plus the pool limits tuned
// from the environment.
type Params struct {
	User         string
	Pass         string
	Host         string
	Port         string
	Name         string
	MaxConns     int           // cap on open connections; idle cap follows it
	ConnLifetime time.Duration // recycle age, keeps the pool ahead of server-side timeouts
}

// Open connects to MySQL, applies the pool limits and verifies the
// connection with a bounded ping before returning the handle.
func Open(p Params) (*sql.DB, error) {
	conf := mysql.NewConfig()
	conf.User = p.User
	conf.Passwd = p.Pass
	conf.Net = "tcp"
	conf.Addr = net.JoinHostPort(p.Host, p.Port)
	conf.DBName = p.Name
	conf.ParseTime = true
	conf.Loc = time.UTC
	conf.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", conf.FormatDSN())
	if err != nil {
		return nil, err
	}

	if p.MaxConns <= 0 {
		p.MaxConns = 25
	}
	if p.ConnLifetime <= 0 {
		p.ConnLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(p.MaxConns)
	db.SetMaxIdleConns(p.MaxConns)
	db.SetConnMaxLifetime(p.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

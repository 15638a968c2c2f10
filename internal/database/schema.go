package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// mysqlSchema creates the tables used by the repositories.  Statements are
// idempotent and executed one by one because the MySQL driver rejects
// multi-statement strings by default.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL DEFAULT 'USER',
		reset_token_hash CHAR(64) NULL,
		reset_token_expires_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_users_email (email),
		KEY ix_users_reset_token (reset_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		poster VARCHAR(512) NOT NULL,
		language VARCHAR(64) NOT NULL,
		genre VARCHAR(128) NOT NULL,
		tmdb_id VARCHAR(32) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_movies_tmdb_id (tmdb_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		seats INT NOT NULL,
		show_date VARCHAR(32) NOT NULL,
		show_time VARCHAR(32) NOT NULL,
		movie_id VARCHAR(32) NOT NULL,
		movie_title VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL,
		KEY ix_bookings_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id VARCHAR(32) NOT NULL,
		author VARCHAR(255) NOT NULL,
		comment TEXT NOT NULL,
		rating TINYINT NULL,
		created_at DATETIME NOT NULL,
		KEY ix_reviews_movie (movie_id),
		CONSTRAINT ck_reviews_rating CHECK (rating IS NULL OR rating BETWEEN 1 AND 10)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		booking_id BIGINT UNSIGNED NOT NULL,
		UNIQUE KEY uq_user_bookings (user_id, booking_id),
		CONSTRAINT fk_user_bookings_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_user_bookings_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS movie_bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id BIGINT UNSIGNED NOT NULL,
		booking_id BIGINT UNSIGNED NOT NULL,
		UNIQUE KEY uq_movie_bookings (movie_id, booking_id),
		CONSTRAINT fk_movie_bookings_movie FOREIGN KEY (movie_id) REFERENCES movies(id) ON DELETE CASCADE,
		CONSTRAINT fk_movie_bookings_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER',
		reset_token_hash TEXT NULL,
		reset_token_expires_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_users_reset_token ON users (reset_token_hash)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		poster TEXT NOT NULL,
		language TEXT NOT NULL,
		genre TEXT NOT NULL,
		tmdb_id TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		seats INTEGER NOT NULL,
		show_date TEXT NOT NULL,
		show_time TEXT NOT NULL,
		movie_id TEXT NOT NULL,
		movie_title TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		movie_id TEXT NOT NULL,
		author TEXT NOT NULL,
		comment TEXT NOT NULL,
		rating INTEGER NULL CHECK (rating IS NULL OR rating BETWEEN 1 AND 10),
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_reviews_movie ON reviews (movie_id)`,
	`CREATE TABLE IF NOT EXISTS user_bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		booking_id INTEGER NOT NULL,
		UNIQUE (user_id, booking_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movie_bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		movie_id INTEGER NOT NULL,
		booking_id INTEGER NOT NULL,
		UNIQUE (movie_id, booking_id)
	)`,
}

// Migrate creates any missing tables for the given driver.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	stmts := mysqlSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

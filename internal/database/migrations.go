package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/venue-reservation/internal/logger"
)

// Schema is applied in order; every statement is idempotent.
var Schema = []string{
	createUsersTable,
	createUserInfosTable,
	createCategoriesTable,
	createPlacesTable,
	createServicesTable,
	createPlaceServicesTable,
	createReservationsTable,
	createBillsTable,
	createPaymentsTable,
	createPlaceServiceReservationsTable,
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    email      VARCHAR(255) NOT NULL,
    role       ENUM('USER','CORPORATIVE_USER','WORKER','ADMIN') NOT NULL DEFAULT 'USER',
    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createUserInfosTable = `
CREATE TABLE IF NOT EXISTS user_infos (
    user_id  BIGINT UNSIGNED PRIMARY KEY,
    name     VARCHAR(120) NOT NULL,
    lastname VARCHAR(120) NOT NULL,
    address  VARCHAR(255) NULL,
    CONSTRAINT fk_user_infos_user FOREIGN KEY (user_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
    id   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(120) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPlacesTable = `
CREATE TABLE IF NOT EXISTS places (
    id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    user_id        BIGINT UNSIGNED NOT NULL,
    category_id    BIGINT UNSIGNED NOT NULL,
    name           VARCHAR(160) NOT NULL,
    address        VARCHAR(255) NULL,
    price_per_hour DECIMAL(12,2) NOT NULL,
    status         ENUM('REVIEW','APPROVED','REJECTED') NOT NULL DEFAULT 'REVIEW',
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_places_owner (user_id),
    KEY idx_places_category (category_id),
    CONSTRAINT fk_places_user FOREIGN KEY (user_id) REFERENCES users(id),
    CONSTRAINT fk_places_category FOREIGN KEY (category_id) REFERENCES categories(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createServicesTable = `
CREATE TABLE IF NOT EXISTS services (
    id       BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    name     VARCHAR(120) NOT NULL,
    icon_url VARCHAR(512) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPlaceServicesTable = `
CREATE TABLE IF NOT EXISTS place_services (
    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    place_id   BIGINT UNSIGNED NOT NULL,
    service_id BIGINT UNSIGNED NOT NULL,
    price      DECIMAL(12,2) NOT NULL,
    is_active  BOOLEAN NOT NULL DEFAULT TRUE,
    KEY idx_place_services_place (place_id, is_active),
    CONSTRAINT fk_place_services_place FOREIGN KEY (place_id) REFERENCES places(id),
    CONSTRAINT fk_place_services_service FOREIGN KEY (service_id) REFERENCES services(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    place_id         BIGINT UNSIGNED NOT NULL,
    user_id          BIGINT UNSIGNED NOT NULL,
    start_time       DATETIME(3) NOT NULL,
    end_time         DATETIME(3) NOT NULL,
    reservation_date DATETIME(3) NOT NULL,
    is_confirmed     BOOLEAN NOT NULL DEFAULT TRUE,
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    KEY idx_reservations_window (place_id, is_active, start_time, end_time),
    KEY idx_reservations_user (user_id),
    KEY idx_reservations_date (reservation_date),
    CONSTRAINT fk_reservations_place FOREIGN KEY (place_id) REFERENCES places(id),
    CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users(id),
    CONSTRAINT chk_reservations_window CHECK (start_time < end_time)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createBillsTable = `
CREATE TABLE IF NOT EXISTS bills (
    id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    reservation_id BIGINT UNSIGNED NOT NULL,
    sub_total      DECIMAL(12,2) NOT NULL,
    iva            DECIMAL(12,2) NOT NULL,
    service_tax    DECIMAL(12,2) NOT NULL,
    total          DECIMAL(12,2) NOT NULL,
    UNIQUE KEY uq_bills_reservation (reservation_id),
    CONSTRAINT fk_bills_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    bill_id        BIGINT UNSIGNED NOT NULL,
    reference_code VARCHAR(32) NOT NULL,
    card_number    VARCHAR(32) NOT NULL,
    full_name      VARCHAR(200) NOT NULL,
    UNIQUE KEY uq_payments_bill (bill_id),
    UNIQUE KEY uq_payments_reference (reference_code),
    CONSTRAINT fk_payments_bill FOREIGN KEY (bill_id) REFERENCES bills(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const createPlaceServiceReservationsTable = `
CREATE TABLE IF NOT EXISTS place_service_reservations (
    id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    reservation_id   BIGINT UNSIGNED NOT NULL,
    place_service_id BIGINT UNSIGNED NOT NULL,
    UNIQUE KEY uq_psr (reservation_id, place_service_id),
    CONSTRAINT fk_psr_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id),
    CONSTRAINT fk_psr_place_service FOREIGN KEY (place_service_id) REFERENCES place_services(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// RunMigrations applies Schema in order and stops at the first failure.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	log := logger.WithContext(ctx)
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	log.Info("database schema ready", "statements", len(Schema))
	return nil
}

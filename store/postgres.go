package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fleet-dispatch-system/config"
	"fleet-dispatch-system/models"
)

// PostgresStore persists the fleet in postgres.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to postgres with the DSN built from config and
// verifies the connection.
func OpenPostgres(cfg config.DBConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

const driverCols = "id, name, latitude, longitude, hex_id, status, created_at, updated_at"

func scanDriver(row interface{ Scan(...any) error }) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(&d.ID, &d.Name, &d.Latitude, &d.Longitude, &d.HexID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) ResetDrivers(ctx context.Context, drivers []*models.Driver) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM drivers`); err != nil {
		return err
	}
	for _, d := range drivers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO drivers (`+driverCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.ID, d.Name, d.Latitude, d.Longitude, d.HexID, d.Status, d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+driverCols+` FROM drivers WHERE id=$1`, id)
	d, err := scanDriver(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *PostgresStore) listDrivers(ctx context.Context, query string, args ...any) ([]*models.Driver, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListDrivers(ctx context.Context) ([]*models.Driver, error) {
	return s.listDrivers(ctx, `SELECT `+driverCols+` FROM drivers ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListDriversByStatus(ctx context.Context, status string) ([]*models.Driver, error) {
	return s.listDrivers(ctx, `SELECT `+driverCols+` FROM drivers WHERE status=$1`, status)
}

func (s *PostgresStore) UpdateDriver(ctx context.Context, d *models.Driver) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE drivers SET latitude=$1, longitude=$2, hex_id=$3, status=$4, updated_at=$5 WHERE id=$6`,
		d.Latitude, d.Longitude, d.HexID, d.Status, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

const orderCols = `id, driver_id, pickup_latitude, pickup_longitude,
	destination_latitude, destination_longitude, pickup_distance,
	delivery_distance, total_distance, average_speed, eta_minutes,
	status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	var driverID sql.NullString
	var pickupDist sql.NullFloat64
	err := row.Scan(
		&o.ID, &driverID, &o.PickupLatitude, &o.PickupLongitude,
		&o.DestLatitude, &o.DestLongitude, &pickupDist,
		&o.DeliveryDistance, &o.TotalDistance, &o.AverageSpeed, &o.ETAMinutes,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		o.DriverID = &driverID.String
	}
	if pickupDist.Valid {
		o.PickupDistance = &pickupDist.Float64
	}
	return &o, nil
}

func orderArgs(o *models.Order) []any {
	var driverID any
	if o.DriverID != nil {
		driverID = *o.DriverID
	}
	var pickupDist any
	if o.PickupDistance != nil {
		pickupDist = *o.PickupDistance
	}
	return []any{
		o.ID, driverID, o.PickupLatitude, o.PickupLongitude,
		o.DestLatitude, o.DestLongitude, pickupDist,
		o.DeliveryDistance, o.TotalDistance, o.AverageSpeed, o.ETAMinutes,
		o.Status, o.CreatedAt, o.UpdatedAt,
	}
}

const insertOrderSQL = `INSERT INTO orders (` + orderCols + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func (s *PostgresStore) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.db.ExecContext(ctx, insertOrderSQL, orderArgs(o)...)
	if pgErr, ok := err.(*pq.Error); ok && strings.Contains(pgErr.Message, "duplicate key") {
		return ErrDuplicateID
	}
	return err
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *PostgresStore) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit > 0 {
		return s.listOrders(ctx,
			`SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	}
	return s.listOrders(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderCols+` FROM orders WHERE status=$1 ORDER BY created_at ASC`, status)
}

const updateOrderSQL = `UPDATE orders SET driver_id=$2, pickup_distance=$7,
	delivery_distance=$8, total_distance=$9, average_speed=$10,
	eta_minutes=$11, status=$12, updated_at=$14 WHERE id=$1`

func (s *PostgresStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	res, err := s.db.ExecContext(ctx, updateOrderSQL, orderArgs(o)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// AssignOrder writes the order and the driver in one transaction so a
// half-applied assignment can never be observed.
func (s *PostgresStore) AssignOrder(ctx context.Context, o *models.Order, d *models.Driver) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		if _, err := tx.ExecContext(ctx, updateOrderSQL, orderArgs(o)...); err != nil {
			return err
		}
	} else {
		if _, err := tx.ExecContext(ctx, insertOrderSQL, orderArgs(o)...); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE drivers SET latitude=$1, longitude=$2, hex_id=$3, status=$4, updated_at=$5 WHERE id=$6`,
		d.Latitude, d.Longitude, d.HexID, d.Status, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *PostgresStore) Close() error { return s.db.Close() }

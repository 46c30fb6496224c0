package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"parcelsales/internal/config"
	"parcelsales/internal/types"

	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

const (
	DriverOracle = "oracle"
	DriverSQLite = "sqlite"

	ReportTable = "PARCEL_SALES_REPORT"
)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.QueryEscape(username), url.QueryEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password),
		Host:     host + ":" + port,
		Path:     "/" + service,
		RawQuery: "ssl=true", // ADB requires TCPS
	}).String()
}

// Database holds the report connection and the SQL dialect it speaks.
type Database struct {
	db     *sql.DB
	driver string
}

// Open connects with the configured driver and checks the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*Database, error) {
	var source string
	switch cfg.Driver {
	case DriverOracle:
		source = dsn(cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Service, cfg.WalletLocation)
	case DriverSQLite:
		source = cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, cfg.Driver), nil
}

// New wraps an existing connection.
func New(db *sql.DB, driver string) *Database {
	return &Database{db: db, driver: driver}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// bind returns the n-th (1-based) placeholder for the dialect.
func (d *Database) bind(n int) string {
	if d.driver == DriverOracle {
		return fmt.Sprintf(":%d", n)
	}
	return "?"
}

func (d *Database) binds(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.bind(i + 1)
	}
	return strings.Join(ps, ", ")
}

var reportColumns = []string{
	"PARCELID", "S_T_R", "SALE_S_T_R", "SOLD_DATE", "SOLD_PRICE", "DEED_TYPE", "ACRE_AREA",
	"HAS_HOUSE", "OWNER_STATE", "LAND_VALUE", "SALE_TO_LAND_VALUE_RATIO", "OUT_OF_STATE_OWNER", "SALE_YEAR",
}

func (d *Database) createTableSQL() string {
	text, num, integer := "TEXT", "REAL", "INTEGER"
	if d.driver == DriverOracle {
		text, num, integer = "VARCHAR2(64)", "NUMBER", "NUMBER(4)"
	}
	return fmt.Sprintf(`CREATE TABLE %s (
		PARCELID %[2]s NOT NULL,
		S_T_R %[2]s,
		SALE_S_T_R %[2]s,
		SOLD_DATE %[2]s,
		SOLD_PRICE %[3]s,
		DEED_TYPE %[2]s,
		ACRE_AREA %[3]s,
		HAS_HOUSE %[4]s,
		OWNER_STATE %[2]s,
		LAND_VALUE %[3]s,
		SALE_TO_LAND_VALUE_RATIO %[3]s,
		OUT_OF_STATE_OWNER %[4]s,
		SALE_YEAR %[4]s
	)`, ReportTable, text, num, integer)
}

// EnsureSchema creates the report table when it does not exist yet.
func (d *Database) EnsureSchema(ctx context.Context) error {
	stmt := d.createTableSQL()
	if d.driver == DriverSQLite {
		stmt = strings.Replace(stmt, "CREATE TABLE", "CREATE TABLE IF NOT EXISTS", 1)
	}
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		// ORA-00955: name is already used by an existing object
		if d.driver == DriverOracle && strings.Contains(err.Error(), "ORA-00955") {
			return nil
		}
		return fmt.Errorf("failed to create %s: %w", ReportTable, err)
	}
	return nil
}

// ReplaceReport swaps the table contents for rows in one transaction.
func (d *Database) ReplaceReport(ctx context.Context, rows []types.ReportRow) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+ReportTable); err != nil {
		return fmt.Errorf("failed to clear %s: %w", ReportTable, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ReportTable, strings.Join(reportColumns, ", "), d.binds(len(reportColumns)))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, args(r)...); err != nil {
			return fmt.Errorf("failed to insert parcel %s: %w", r.Parcel.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

func args(r types.ReportRow) []any {
	var soldDate sql.NullString
	if !r.SoldAt.IsZero() {
		soldDate = sql.NullString{String: r.SoldAt.Format(time.DateOnly), Valid: true}
	}
	var year sql.NullInt64
	if y := r.SaleYear(); y != 0 {
		year = sql.NullInt64{Int64: int64(y), Valid: true}
	}
	return []any{
		r.Parcel.ID,
		r.Parcel.Group,
		r.SaleGroup,
		soldDate,
		r.Sale.SoldPrice,
		r.Sale.DeedType,
		r.Sale.Acreage,
		boolInt(r.Sale.HasHouse),
		r.Sale.OwnerState,
		sql.NullFloat64{Float64: r.LandValue, Valid: r.HasLandValue},
		sql.NullFloat64{Float64: r.Ratio, Valid: r.HasRatio},
		boolInt(r.OutOfState),
		year,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// QueryByParcel returns the stored report row for a parcel, or nil when there is none.
func (d *Database) QueryByParcel(ctx context.Context, parcelID string) (*types.ReportRow, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE PARCELID = %s",
		strings.Join(reportColumns, ", "), ReportTable, d.bind(1))

	var (
		r                     types.ReportRow
		group, saleGroup      sql.NullString
		deed, state, soldDate sql.NullString
		price, acres          sql.NullFloat64
		land, ratio           sql.NullFloat64
		house, outOfState     sql.NullInt64
		year                  sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx, query, parcelID).Scan(
		&r.Parcel.ID, &group, &saleGroup, &soldDate, &price, &deed, &acres,
		&house, &state, &land, &ratio, &outOfState, &year,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %s: %w", parcelID, err)
	}

	r.Parcel.Group = group.String
	r.SaleGroup = saleGroup.String
	r.Sale = types.Sale{
		ParcelID:   r.Parcel.ID,
		SoldDate:   soldDate.String,
		SoldPrice:  price.Float64,
		DeedType:   deed.String,
		Acreage:    acres.Float64,
		HasHouse:   house.Int64 != 0,
		OwnerState: state.String,
	}
	if soldDate.Valid {
		if t, err := time.Parse(time.DateOnly, soldDate.String); err == nil {
			r.SoldAt = t
		}
	}
	r.LandValue, r.HasLandValue = land.Float64, land.Valid
	r.Ratio, r.HasRatio = ratio.Float64, ratio.Valid
	r.OutOfState = outOfState.Int64 != 0
	return &r, nil
}

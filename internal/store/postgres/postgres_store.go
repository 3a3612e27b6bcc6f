package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Credentials holds the connection settings for the POS database.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Store implements store.Catalog, store.CheckoutStore and store.Ledger on
// PostgreSQL. Conflict detection is optimistic: every product row carries a
// version column, and checkout commits update rows conditionally on the
// version they were read at.
type Store struct {
	db *sql.DB
}

// NewStore opens and pings the database.
func NewStore(cred *Credentials) (*Store, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing handle, used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// RunMigrations applies the schema migrations from cred.MigrationsDirPath.
func (s *Store) RunMigrations(cred *Credentials) error {
	driver, err := migratepg.WithInstance(s.db, &migratepg.Config{
		MigrationsTable: "pos_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *Store) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT barcode, name, price, stock, version, updated_at
	          FROM products WHERE barcode = $1`

	var p domain.Product
	err := s.db.QueryRowContext(ctx, query, barcode).Scan(
		&p.Barcode,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.Version,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (s *Store) UpsertProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (barcode, name, price, stock, version, updated_at)
	          VALUES ($1, $2, $3, $4, 1, NOW())
	          ON CONFLICT (barcode) DO UPDATE
	          SET name = EXCLUDED.name,
	              price = EXCLUDED.price,
	              stock = EXCLUDED.stock,
	              version = products.version + 1,
	              updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query,
		product.Barcode,
		product.Name,
		product.Price,
		product.Stock,
	); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT barcode, name, price, stock, version, updated_at
	          FROM products ORDER BY barcode`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(
			&p.Barcode,
			&p.Name,
			&p.Price,
			&p.Stock,
			&p.Version,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// CommitSale applies every stock write and inserts the sale in one SQL
// transaction. Each update is predicated on the version the engine read;
// zero rows affected means another checkout got there first, and the whole
// transaction rolls back with store.ErrVersionConflict.
func (s *Store) CommitSale(ctx context.Context, writes []store.StockWrite, sale *domain.Sale) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `UPDATE products
	                SET stock = $1, version = version + 1, updated_at = NOW()
	                WHERE barcode = $2 AND version = $3`

	for _, w := range writes {
		result, execErr := tx.ExecContext(ctx, updateQuery, w.NewStock, w.Barcode, w.ExpectedVersion)
		if execErr != nil {
			return fmt.Errorf("update stock for %s: %w", w.Barcode, execErr)
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			return fmt.Errorf("rows affected for %s: %w", w.Barcode, raErr)
		}
		if affected == 0 {
			return store.ErrVersionConflict
		}
	}

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("marshal sale items: %w", err)
	}

	insertQuery := `INSERT INTO sales (id, items, total_amount, created_at)
	                VALUES ($1, $2, $3, NOW())
	                RETURNING created_at`

	if err := tx.QueryRowContext(ctx, insertQuery,
		sale.ID,
		itemsJSON,
		sale.TotalAmount,
	).Scan(&sale.CreatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout transaction: %w", err)
	}
	return nil
}

func (s *Store) SalesInRange(ctx context.Context, from, to time.Time) ([]*domain.Sale, error) {
	query := `SELECT id, items, total_amount, created_at
	          FROM sales WHERE created_at >= $1 AND created_at < $2
	          ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		var sale domain.Sale
		var itemsJSON []byte
		if err := rows.Scan(
			&sale.ID,
			&itemsJSON,
			&sale.TotalAmount,
			&sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, fmt.Errorf("unmarshal sale items: %w", err)
		}
		sales = append(sales, &sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sales, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

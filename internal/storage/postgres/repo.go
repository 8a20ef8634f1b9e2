// Package postgres stores shops and users in PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

const shopColumns = `id, uuid, name, country, city, address, latitude, longitude, phone, website,
  business_type, hours, place_id, rating, reviews_count, created_by, created_at, updated_at, scraped_at`

const userColumns = `id, username, email, is_admin, created_at`

type Repo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func New(db *pgxpool.Pool, timeout time.Duration) *Repo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repo{db: db, timeout: timeout}
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanShop(row pgx.Row) (domain.Shop, error) {
	var (
		s         domain.Shop
		id        int64
		btype     *string
		createdBy *string
	)
	err := row.Scan(
		&id, &s.UUID, &s.Name, &s.Country, &s.City,
		&s.Address, &s.Latitude, &s.Longitude, &s.Phone, &s.Website,
		&btype, &s.Hours, &s.PlaceID, &s.Rating, &s.ReviewsCount,
		&createdBy, &s.CreatedAt, &s.UpdatedAt, &s.ScrapedAt,
	)
	if err != nil {
		return domain.Shop{}, err
	}
	s.ID = strconv.FormatInt(id, 10)
	s.CreatedBy = createdBy
	if btype != nil {
		if bt, ok := domain.ParseBusinessType(*btype); ok {
			s.BusinessType = &bt
		}
	}
	return s, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeArg(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

func listShopsQuery(q domain.ShopQuery) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.Country != "" {
		add("country ILIKE $%d", likeArg(q.Country))
	}
	if q.City != "" {
		add("city ILIKE $%d", likeArg(q.City))
	}
	if q.CreatedBy != "" {
		add("created_by::text = $%d", q.CreatedBy)
	}
	var b strings.Builder
	b.WriteString("SELECT " + shopColumns + " FROM motorcycle_shops")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.OrderBy == domain.OrderNewestFirst {
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	} else {
		b.WriteString(" ORDER BY id")
	}
	return b.String(), args
}

func (r *Repo) ListShops(ctx context.Context, q domain.ShopQuery) ([]domain.Shop, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	query, args := listShopsQuery(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Shop{}
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) GetShop(ctx context.Context, id string) (domain.Shop, error) {
	n, err := parseID(id)
	if err != nil {
		return domain.Shop{}, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	s, err := scanShop(r.db.QueryRow(ctx, `SELECT `+shopColumns+` FROM motorcycle_shops WHERE id = $1`, n))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Shop{}, domain.ErrNotFound
	}
	return s, err
}

func (r *Repo) ListCountries(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT DISTINCT country FROM motorcycle_shops WHERE country <> '' ORDER BY country`)
}

func (r *Repo) ListCities(ctx context.Context, country string) ([]string, error) {
	return r.column(ctx, `SELECT DISTINCT city FROM motorcycle_shops WHERE country = $1 AND city <> '' ORDER BY city`, country)
}

func (r *Repo) column(ctx context.Context, query string, args ...any) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if out == nil {
		out = []string{}
	}
	return out, err
}

const insertShop = `
INSERT INTO motorcycle_shops
  (uuid, name, country, city, address, latitude, longitude, phone, website,
   business_type, hours, place_id, rating, reviews_count, created_by, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func insertArgs(s domain.NewShop) []any {
	id := s.UUID
	if id == "" {
		id = uuid.NewString()
	}
	var bt *string
	if s.BusinessType != nil {
		v := string(*s.BusinessType)
		bt = &v
	}
	return []any{
		id, s.Name, s.Country, s.City, s.Address, s.Latitude, s.Longitude, s.Phone, s.Website,
		bt, s.Hours, s.PlaceID, s.Rating, s.ReviewsCount, s.CreatedBy, s.ScrapedAt,
	}
}

func (r *Repo) CreateShop(ctx context.Context, s domain.NewShop) (domain.Shop, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := scanShop(r.db.QueryRow(ctx, insertShop+` RETURNING `+shopColumns, insertArgs(s)...))
	if err != nil {
		return domain.Shop{}, err
	}
	return out, nil
}

func (r *Repo) UpsertShopByPlaceID(ctx context.Context, s domain.NewShop) error {
	if s.PlaceID == nil || *s.PlaceID == "" {
		return fmt.Errorf("upsert without place_id: %w", domain.ErrInvalid)
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(ctx, insertShop+`
ON CONFLICT (place_id) DO UPDATE SET
  name = EXCLUDED.name, country = EXCLUDED.country, city = EXCLUDED.city,
  address = EXCLUDED.address, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
  phone = EXCLUDED.phone, website = EXCLUDED.website, business_type = EXCLUDED.business_type,
  hours = EXCLUDED.hours, rating = EXCLUDED.rating, reviews_count = EXCLUDED.reviews_count,
  scraped_at = EXCLUDED.scraped_at, updated_at = now()`, insertArgs(s)...)
	return err
}

func (r *Repo) UpdateShop(ctx context.Context, id string, in domain.ShopInput) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	var bt *string
	if in.BusinessType != nil {
		v := string(*in.BusinessType)
		bt = &v
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `
UPDATE motorcycle_shops SET
  name = $1, country = $2, city = $3, address = $4, latitude = $5, longitude = $6,
  phone = $7, website = $8, business_type = $9, hours = $10, place_id = $11,
  rating = $12, reviews_count = $13, updated_at = now()
WHERE id = $14`,
		in.Name, in.Country, in.City, in.Address, in.Latitude, in.Longitude,
		in.Phone, in.Website, bt, in.Hours, in.PlaceID, in.Rating, in.ReviewsCount, n)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteShop(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM motorcycle_shops WHERE id = $1`, n)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, domain.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) SetAdmin(ctx context.Context, id string, admin bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_admin = $1 WHERE id = $2`, admin, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) PasswordHash(ctx context.Context, email string) (string, []byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var id string
	var hash []byte
	err := r.db.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE email = $1`, strings.ToLower(email)).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, domain.ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return id, hash, nil
}

func (r *Repo) CreateUser(ctx context.Context, u domain.User, hash []byte) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Email != nil {
		e := strings.ToLower(*u.Email)
		u.Email = &e
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := scanUser(r.db.QueryRow(ctx, `
INSERT INTO users (id, username, email, password_hash, is_admin)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns, u.ID, u.Username, u.Email, hash, u.IsAdmin))
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("shop id %q: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

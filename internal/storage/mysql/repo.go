package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
func valType(p *domain.BusinessType) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

// Repo implements the shop, user and credential ports on MySQL.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface{ Scan(dest ...any) error }

func scanShop(sc scanner) (domain.Shop, error) {
	var (
		s                         domain.Shop
		id                        int64
		address, phone, website   sql.NullString
		btype, hours, placeID     sql.NullString
		createdBy                 sql.NullString
		lat, lon, rating          sql.NullFloat64
		reviews                   sql.NullInt64
		createdAt, updatedAt, scr sql.NullTime
	)
	if err := sc.Scan(
		&id, &s.UUID, &s.Name, &s.Country, &s.City,
		&address, &lat, &lon, &phone, &website,
		&btype, &hours, &placeID, &rating, &reviews,
		&createdBy, &createdAt, &updatedAt, &scr,
	); err != nil {
		return domain.Shop{}, err
	}
	s.ID = strconv.FormatInt(id, 10)
	s.Address, s.Phone, s.Website = nullStr(address), nullStr(phone), nullStr(website)
	s.Hours, s.PlaceID, s.CreatedBy = nullStr(hours), nullStr(placeID), nullStr(createdBy)
	s.Latitude, s.Longitude, s.Rating = nullF64(lat), nullF64(lon), nullF64(rating)
	if reviews.Valid {
		n := int(reviews.Int64)
		s.ReviewsCount = &n
	}
	if btype.Valid {
		if bt, ok := domain.ParseBusinessType(btype.String); ok {
			s.BusinessType = &bt
		}
	}
	s.CreatedAt, s.UpdatedAt, s.ScrapedAt = nullTime(createdAt), nullTime(updatedAt), nullTime(scr)
	return s, nil
}

func scanUser(sc scanner) (domain.User, error) {
	var (
		u               domain.User
		username, email sql.NullString
		isAdmin         sql.NullBool
		createdAt       sql.NullTime
	)
	if err := sc.Scan(&u.ID, &username, &email, &isAdmin, &createdAt); err != nil {
		return domain.User{}, err
	}
	u.Username, u.Email = nullStr(username), nullStr(email)
	if isAdmin.Valid {
		b := isAdmin.Bool
		u.IsAdmin = &b
	}
	u.CreatedAt = nullTime(createdAt)
	return u, nil
}

// listShopsQuery builds the filtered select. Filters are case-insensitive
// substring matches with LIKE wildcards in the input escaped.
func listShopsQuery(q domain.ShopQuery) (string, []any) {
	var where []string
	var args []any
	if q.Country != "" {
		where = append(where, "LOWER(country) LIKE ?")
		args = append(args, likeArg(q.Country))
	}
	if q.City != "" {
		where = append(where, "LOWER(city) LIKE ?")
		args = append(args, likeArg(q.City))
	}
	if q.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, q.CreatedBy)
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

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeArg(s string) string { return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%" }

func (r *Repo) ListShops(ctx context.Context, q domain.ShopQuery) ([]domain.Shop, error) {
	query, args := listShopsQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	s, err := scanShop(r.db.QueryRowContext(ctx, getShopSQL, n))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, domain.ErrNotFound
	}
	return s, err
}

func (r *Repo) ListCountries(ctx context.Context) ([]string, error) {
	return r.column(ctx, listCountriesSQL)
}

func (r *Repo) ListCities(ctx context.Context, country string) ([]string, error) {
	return r.column(ctx, listCitiesSQL, country)
}

func (r *Repo) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func insertArgs(s domain.NewShop) []any {
	id := s.UUID
	if id == "" {
		id = uuid.NewString()
	}
	var scraped any
	if s.ScrapedAt != nil {
		scraped = s.ScrapedAt.UTC()
	}
	return []any{
		id, s.Name, s.Country, s.City,
		valStr(s.Address), valF64(s.Latitude), valF64(s.Longitude),
		valStr(s.Phone), valStr(s.Website), valType(s.BusinessType),
		valStr(s.Hours), valStr(s.PlaceID), valF64(s.Rating), valInt(s.ReviewsCount),
		valStr(s.CreatedBy), scraped,
	}
}

func (r *Repo) CreateShop(ctx context.Context, s domain.NewShop) (domain.Shop, error) {
	res, err := r.db.ExecContext(ctx, insertShopSQL, insertArgs(s)...)
	if err != nil {
		return domain.Shop{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Shop{}, err
	}
	return r.GetShop(ctx, strconv.FormatInt(id, 10))
}

func (r *Repo) UpsertShopByPlaceID(ctx context.Context, s domain.NewShop) error {
	if s.PlaceID == nil || *s.PlaceID == "" {
		return fmt.Errorf("upsert without place_id: %w", domain.ErrInvalid)
	}
	_, err := r.db.ExecContext(ctx, upsertShopByPlaceSQL, insertArgs(s)...)
	return err
}

func (r *Repo) UpdateShop(ctx context.Context, id string, in domain.ShopInput) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateShopSQL,
		in.Name, in.Country, in.City,
		valStr(in.Address), valF64(in.Latitude), valF64(in.Longitude),
		valStr(in.Phone), valStr(in.Website), valType(in.BusinessType),
		valStr(in.Hours), valStr(in.PlaceID), valF64(in.Rating), valInt(in.ReviewsCount),
		n,
	)
	if err != nil {
		return err
	}
	return r.affected(ctx, res, shopExistsSQL, n)
}

func (r *Repo) DeleteShop(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, deleteShopSQL, n)
	if err != nil {
		return err
	}
	if c, err := res.RowsAffected(); err != nil {
		return err
	} else if c == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// affected maps zero affected rows to ErrNotFound. MySQL reports zero for an
// update that changed nothing, so existence is checked before deciding.
func (r *Repo) affected(ctx context.Context, res sql.Result, existsSQL string, id any) error {
	c, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if c > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, existsSQL, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersSQL)
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
	res, err := r.db.ExecContext(ctx, setAdminSQL, admin, id)
	if err != nil {
		return err
	}
	return r.affected(ctx, res, userExistsSQL, id)
}

func (r *Repo) PasswordHash(ctx context.Context, email string) (string, []byte, error) {
	var id string
	var hash []byte
	err := r.db.QueryRowContext(ctx, passwordHashSQL, strings.ToLower(email)).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
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
	if _, err := r.db.ExecContext(ctx, insertUserSQL, u.ID, valStr(u.Username), valStr(u.Email), hash, valBool(u.IsAdmin)); err != nil {
		return domain.User{}, err
	}
	return r.GetUser(ctx, u.ID)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("shop id %q: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
	mysqlrepo "github.com/sabawaheed27/motofix-europe/internal/storage/mysql"
)

var shopCols = []string{
	"id", "uuid", "name", "country", "city", "address", "latitude", "longitude", "phone", "website",
	"business_type", "hours", "place_id", "rating", "reviews_count", "created_by", "created_at", "updated_at", "scraped_at",
}

func newMock(t *testing.T) (*mysqlrepo.Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return mysqlrepo.New(db), mock
}

func TestListShops_FiltersEscapedAndLowercased(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycle_shops WHERE LOWER(country) LIKE ? AND LOWER(city) LIKE ? ORDER BY id")).
		WithArgs("%germany%", `%100\%%`).
		WillReturnRows(sqlmock.NewRows(shopCols).
			AddRow(int64(7), "u-7", "Moto", "Germany", "Berlin", nil, 0.0, 13.4, nil, nil,
				"Dealership", nil, nil, 4.5, int64(3), nil, now, now, nil))

	shops, err := repo.ListShops(context.Background(), domain.ShopQuery{Country: "GERMANY", City: "100%"})
	if err != nil {
		t.Fatalf("ListShops: %v", err)
	}
	if len(shops) != 1 {
		t.Fatalf("expected 1 shop, got %d", len(shops))
	}
	s := shops[0]
	if s.ID != "7" || s.Address != nil || s.Latitude == nil || *s.Latitude != 0 {
		t.Fatalf("unexpected shop: %+v", s)
	}
	if s.BusinessType == nil || *s.BusinessType != domain.Dealership || *s.ReviewsCount != 3 {
		t.Fatalf("unexpected typed fields: %+v", s)
	}
	if _, ok := s.Coords(); !ok {
		t.Fatalf("zero latitude must still be mappable")
	}
}

func TestListShops_NewestFirstAndOwner(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE created_by = ? ORDER BY created_at DESC, id DESC")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(shopCols))

	shops, err := repo.ListShops(context.Background(), domain.ShopQuery{CreatedBy: "user-1", OrderBy: domain.OrderNewestFirst})
	if err != nil || shops == nil || len(shops) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", shops, err)
	}
}

func TestGetShop_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetShop(context.Background(), "9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetShop(context.Background(), "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("non-numeric id must be not found, got %v", err)
	}
}

func TestUpdateShop_NullsAndExistence(t *testing.T) {
	repo, mock := newMock(t)
	in := domain.ShopInput{Name: "Moto", Country: "Germany", City: "Berlin"}

	// unchanged row: zero affected but it exists
	mock.ExpectExec(regexp.QuoteMeta("UPDATE motorcycle_shops SET")).
		WithArgs("Moto", "Germany", "Berlin", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := repo.UpdateShop(context.Background(), "5", in); err != nil {
		t.Fatalf("UpdateShop: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE motorcycle_shops SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(6)).
		WillReturnError(sql.ErrNoRows)

	if err := repo.UpdateShop(context.Background(), "6", in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteShop_ExactlyOne(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := repo.DeleteShop(ctx, "3"); err != nil {
		t.Fatalf("DeleteShop: %v", err)
	}
	if err := repo.DeleteShop(ctx, "3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateShop_InsertsThenReads(t *testing.T) {
	repo, mock := newMock(t)
	creator := "user-1"
	bt := domain.RepairShop
	ns := domain.NewShop{
		ShopInput: domain.ShopInput{Name: "Moto", Country: "Austria", City: "Wien", BusinessType: &bt},
		UUID:      "u-1",
		CreatedBy: &creator,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO motorcycle_shops")).
		WithArgs("u-1", "Moto", "Austria", "Wien", nil, nil, nil, nil, nil, "Repair Shop", nil, nil, nil, nil, "user-1", nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM motorcycle_shops WHERE id = ?")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(shopCols).
			AddRow(int64(11), "u-1", "Moto", "Austria", "Wien", nil, nil, nil, nil, nil,
				"Repair Shop", nil, nil, nil, nil, "user-1", time.Now(), time.Now(), nil))

	s, err := repo.CreateShop(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	if s.ID != "11" || s.CreatedBy == nil || *s.CreatedBy != "user-1" {
		t.Fatalf("unexpected shop: %+v", s)
	}
}

func TestUpsertShopByPlaceID_RequiresPlaceID(t *testing.T) {
	repo, mock := newMock(t)
	if err := repo.UpsertShopByPlaceID(context.Background(), domain.NewShop{}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	pid := "ChIJ1"
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	ns := domain.NewShop{ShopInput: domain.ShopInput{Name: "A", Country: "B", City: "C", PlaceID: &pid}}
	if err := repo.UpsertShopByPlaceID(context.Background(), ns); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestUsers_AdminFlagAndCredentials(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "is_admin", "created_at"}).
			AddRow("u1", nil, "a@b.c", nil, time.Now()))
	u, err := repo.GetUser(ctx, "u1")
	if err != nil || u.IsAdmin != nil || u.Admin() {
		t.Fatalf("null is_admin must stay nil: %+v %v", u, err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_admin = ? WHERE id = ?")).
		WithArgs(true, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetAdmin(ctx, "u1", true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, password_hash FROM users WHERE email = ?")).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u1", []byte("hash")))
	id, hash, err := repo.PasswordHash(ctx, "A@B.C")
	if err != nil || id != "u1" || string(hash) != "hash" {
		t.Fatalf("PasswordHash: %s %s %v", id, hash, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, password_hash FROM users WHERE email = ?")).
		WithArgs("nobody@b.c").
		WillReturnError(sql.ErrNoRows)
	if _, _, err := repo.PasswordHash(ctx, "nobody@b.c"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

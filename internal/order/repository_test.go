package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrJSON(t *testing.T, a ShippingAddress) []byte {
	t.Helper()
	b, err := json.Marshal(a)
	require.NoError(t, err)
	return b
}

func TestRepositoryCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	o := &Order{
		ID:              "order-123",
		UserID:          "user-1",
		Total:           decimal.NewFromFloat(25.5),
		ShippingAddress: ShippingAddress{Name: "Ada", Street: "1 Main St"},
		CreatedAt:       now,
		Items: []Item{
			{ProductID: "p1", Quantity: 1, Price: decimal.NewFromFloat(10.0), Size: "M", Color: "black"},
			{ProductID: "p2", Quantity: 2, Price: decimal.NewFromFloat(7.75), Size: "L", Color: "white"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(o.ID, o.UserID, o.Total, "PENDING", "PENDING",
			sql.NullString{}, addrJSON(t, o.ShippingAddress), o.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), o.ID, "p1", 1, decimal.NewFromFloat(10.0), "M", "black").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), o.ID, "p2", 2, decimal.NewFromFloat(7.75), "L", "white").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

// nonZeroTime matches any time argument except the zero value.
type nonZeroTime struct{}

func (nonZeroTime) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	return ok && !ts.IsZero()
}

// Callers building fresh orders leave CreatedAt unset; the repository must
// stamp it rather than write the zero value over the column default.
func TestRepositoryCreate_DefaultsCreatedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		UserID:          "user-1",
		Total:           decimal.NewFromFloat(59.98),
		ShippingAddress: ShippingAddress{Name: "Ada", Street: "1 Main St"},
		Items:           []Item{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromFloat(29.99)}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(sqlmock.AnyArg(), o.UserID, o.Total, "PENDING", "PENDING",
			sql.NullString{}, addrJSON(t, o.ShippingAddress), nonZeroTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p1", 2, decimal.NewFromFloat(29.99), "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.False(t, o.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreatePending_DefaultsCreatedAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		UserID:    "user-1",
		Total:     decimal.NewFromFloat(59.99),
		PaymentID: "order_remote_1",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(sqlmock.AnyArg(), o.UserID, o.Total, "PENDING", "PENDING",
			sql.NullString{String: "order_remote_1", Valid: true},
			addrJSON(t, o.ShippingAddress), nonZeroTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreatePending(context.Background(), o))
	assert.False(t, o.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_OrderInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		UserID: "user-1",
		Total:  decimal.NewFromInt(20),
		Items:  []Item{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(10)}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err = repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_ItemInsertErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		ID:     "order-1",
		UserID: "user-1",
		Total:  decimal.NewFromInt(10),
		Items:  []Item{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(10)}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order_item")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreatePending_NoItemsPersisted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		ID:        "order-1",
		UserID:    "user-1",
		Total:     decimal.NewFromFloat(59.99),
		PaymentID: "pay_remote_1",
		CreatedAt: time.Now(),
		// Items intentionally present on the struct: CreatePending must not
		// write them, they are persisted only after payment confirmation.
		Items: []Item{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromFloat(59.99)}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(o.ID, o.UserID, o.Total, "PENDING", "PENDING",
			sql.NullString{String: "pay_remote_1", Valid: true},
			addrJSON(t, o.ShippingAddress), o.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreatePending(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func orderColumns() []string {
	return []string{"id", "user_id", "total", "status", "payment_status", "payment_id", "shipping_address", "created_at"}
}

func TestRepositoryGetByID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()
	addr := `{"name":"Ada","street":"1 Main St"}`

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderSQL)).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("order-1", "user-1", "20.00", "PROCESSING", "COMPLETED", "pay_1", []byte(addr), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, product_id, quantity, price, size, color`)).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "quantity", "price", "size", "color"}).
			AddRow("order-1", "p1", 2, "10.00", "M", "black"))

	o, err := repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, "pay_1", o.PaymentID)
	assert.Equal(t, "Ada", o.ShippingAddress.Name)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].Price.Equal(decimal.NewFromInt(10)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderSQL)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	o, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, o)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderByPaymentSQL)).
		WithArgs("order_remote_1").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("order-1", "user-1", "59.99", "PENDING", "PENDING", "order_remote_1", []byte(`{}`), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, product_id, quantity, price, size, color`)).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "quantity", "price", "size", "color"}))

	o, err := repo.GetByPaymentID(context.Background(), "order_remote_1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, "order_remote_1", o.PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByPaymentID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderByPaymentSQL)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	o, err := repo.GetByPaymentID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, o)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByUser_StatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status = $2`)).
		WithArgs("user-1", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id, user_id, total, status, payment_status, payment_id, shipping_address, created_at`).
		WithArgs("user-1", "PENDING").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o1", "user-1", "15.00", "PENDING", "PENDING", nil, []byte(`{}`), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT order_id, product_id, quantity, price, size, color`)).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "quantity", "price", "size", "color"}))

	orders, total, err := repo.ListByUser(context.Background(), "user-1", ListFilter{Page: 1, Limit: 10, Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Empty(t, orders[0].PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkPaidTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET payment_status = $1, status = $2, payment_id = $3 WHERE id = $4`)).
		WithArgs("COMPLETED", "PROCESSING", "pay_9", "order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.MarkPaidTx(context.Background(), tx, "order-1", "pay_9"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMarkPaidTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET payment_status = $1, status = $2, payment_id = $3 WHERE id = $4`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.MarkPaidTx(context.Background(), tx, "missing", "pay_9")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCancel_OnlyPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $1 WHERE id = $2 AND user_id = $3 AND status = $4`)).
		WithArgs("CANCELLED", "order-1", "user-1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Cancel(context.Background(), "order-1", "user-1")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

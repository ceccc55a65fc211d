package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	products   repo.ProductRepository
	coupons    repo.CouponRepository
	addresses  repo.AddressRepository
	carriers   repo.CarrierRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) Coupons() repo.CouponRepository       { return r.coupons }
func (r *txReposGorm) Addresses() repo.AddressRepository    { return r.addresses }
func (r *txReposGorm) Carriers() repo.CarrierRepository     { return r.carriers }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			cartItems:  NewCartItemGormRepository(tx),
			products:   NewProductGormRepository(tx),
			coupons:    NewCouponGormRepository(tx),
			addresses:  NewAddressGormRepository(tx),
			carriers:   NewCarrierGormRepository(tx),
		}
		return fn(r)
	})
}

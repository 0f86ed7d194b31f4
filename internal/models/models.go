package models

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Role         string    `gorm:"not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	Token     string    `gorm:"unique;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Used      bool      `gorm:"default:false"   json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Slug         string    `gorm:"uniqueIndex;not null"     json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	ParentID     *uint     `gorm:"index"                    json:"parent_id"`
	IsActive     bool      `gorm:"default:true"             json:"is_active"`
	DisplayOrder int       `gorm:"default:0"                json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"    json:"id"`
	CategoryID    uint           `gorm:"index;not null"              json:"category_id"`
	Name          string         `gorm:"not null"                    json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null"        json:"slug"`
	Description   string         `json:"description"`
	Price         float64        `gorm:"not null"                    json:"price"`
	ComparePrice  *float64       `json:"compare_price"`
	StockQuantity int            `gorm:"default:0"                   json:"stock_quantity"`
	SKU           string         `json:"sku"`
	Status        string         `gorm:"default:active"              json:"status"`
	SoldCount     int            `gorm:"default:0"                   json:"sold_count"`
	ViewCount     int            `gorm:"default:0"                   json:"view_count"`
	Images        []ProductImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ProductImage struct {
	ID           uint   `gorm:"primaryKey"     json:"id"`
	ProductID    uint   `gorm:"index;not null" json:"product_id"`
	ImageURL     string `gorm:"not null"       json:"image_url"`
	AltText      string `json:"alt_text"`
	IsPrimary    bool   `gorm:"default:false"  json:"is_primary"`
	DisplayOrder int    `gorm:"default:0"      json:"display_order"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"default:1;check:quantity>0"                 json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint        `gorm:"index;not null"           json:"user_id"`
	OrderNumber     string      `gorm:"uniqueIndex;not null"     json:"order_number"`
	CustomerName    string      `gorm:"not null"                 json:"customer_name"`
	CustomerPhone   string      `gorm:"not null"                 json:"customer_phone"`
	CustomerEmail   string      `json:"customer_email"`
	ShippingAddress string      `gorm:"not null"                 json:"shipping_address"`
	Notes           string      `json:"notes"`
	Subtotal        float64     `gorm:"not null"                 json:"subtotal"`
	ShippingFee     float64     `gorm:"default:0"                json:"shipping_fee"`
	TotalAmount     float64     `gorm:"not null"                 json:"total_amount"`
	Status          string      `gorm:"default:pending;index"    json:"status"`
	PaymentStatus   string      `gorm:"default:unpaid"           json:"payment_status"`
	PaymentMethod   string      `gorm:"default:COD"              json:"payment_method"`
	Items           []OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is a snapshot of the product taken at order time. It is never
// updated afterwards, even if the product changes or is deleted.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey"     json:"id"`
	OrderID      uint    `gorm:"index;not null" json:"order_id"`
	ProductID    uint    `gorm:"not null"       json:"product_id"`
	ProductName  string  `gorm:"not null"       json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `gorm:"not null"       json:"quantity"`
	UnitPrice    float64 `gorm:"not null"       json:"unit_price"`
	TotalPrice   float64 `gorm:"not null"       json:"total_price"`
}

// OrderStatusHistory is append-only. OldStatus is nil for the row written
// at order creation.
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	OldStatus *string   `json:"old_status"`
	NewStatus string    `gorm:"not null"       json:"new_status"`
	Notes     string    `json:"notes"`
	ChangedBy uint      `json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model registered for migration.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&PasswordResetToken{},
		&Category{},
		&Product{},
		&ProductImage{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
	}
}

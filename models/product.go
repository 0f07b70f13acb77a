package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is the authoritative catalog entry. Column and JSON names follow
// the storefront's existing "products" table. Optional text columns are
// pointers so that NULL stays distinguishable from "".
type Product struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string          `gorm:"column:producto;type:text;not null" json:"producto"`
	DetailedDescription *string         `gorm:"column:descripcion_detallada;type:text" json:"descripcion_detallada"`
	BenefitsAndUses     *string         `gorm:"column:beneficios_usos;type:text" json:"beneficios_usos"`
	Keywords            *string         `gorm:"column:palabras_clave;type:text" json:"palabras_clave"`
	Supplier            *string         `gorm:"column:proveedor;type:text" json:"proveedor"`
	Specification       *string         `gorm:"column:especificacion;type:text" json:"especificacion"`
	QuantityDescription *string         `gorm:"column:cantidad;type:text" json:"cantidad"`
	Price               decimal.Decimal `gorm:"column:precio;type:numeric(10,2);not null;default:0" json:"precio"`
	ImageURL            *string         `gorm:"column:image_url;type:text" json:"image_url"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// UnitAmountMinor returns the price in minor currency units, rounded half
// away from zero.
func (p *Product) UnitAmountMinor() int64 {
	return p.Price.Mul(hundred).Round(0).IntPart()
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name                string          `json:"producto" binding:"required"`
	DetailedDescription *string         `json:"descripcion_detallada"`
	BenefitsAndUses     *string         `json:"beneficios_usos"`
	Keywords            *string         `json:"palabras_clave"`
	Supplier            *string         `json:"proveedor"`
	Specification       *string         `json:"especificacion"`
	QuantityDescription *string         `json:"cantidad"`
	Price               decimal.Decimal `json:"precio"`
	ImageURL            *string         `json:"image_url"`
}

// Apply copies the input onto p, leaving ID and timestamps untouched.
func (in *ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.DetailedDescription = in.DetailedDescription
	p.BenefitsAndUses = in.BenefitsAndUses
	p.Keywords = in.Keywords
	p.Supplier = in.Supplier
	p.Specification = in.Specification
	p.QuantityDescription = in.QuantityDescription
	p.Price = in.Price
	p.ImageURL = in.ImageURL
}

// ProductQuery filters the public catalog listing.
type ProductQuery struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// ImageUpload is a presigned URL the admin client PUTs an image to.
type ImageUpload struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	ImageURL  string            `json:"image_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}

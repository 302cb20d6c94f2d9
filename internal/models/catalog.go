package models

const (
	GenderFemale = 1
	GenderMale   = 2
	GenderUnisex = 3
)

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Gender    int    `json:"gender"`
	Colors    []int  `json:"colors"`
	Materials []int  `json:"materials"`
}

type Color struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"color"`
}

type Material struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Size struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	CategoryID  int     `json:"category_id"`
	Rate        float64 `json:"rate"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Price       int     `json:"price"` // в минимальных единицах валюты
	MaterialID  int     `json:"material_id"`

	Material  *Material          `json:"material,omitempty"`
	Album     []ProductImage     `json:"album,omitempty"`
	Instances []*ProductInstance `json:"instances,omitempty"`
}

// ProductInstance — конкретный вариант товара (цвет+размер) со своим остатком.
type ProductInstance struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	ColorID   int    `json:"color_id"`
	SizeID    int    `json:"size_id"`
	Stock     int    `json:"stock"`
	SKU       string `json:"sku"`

	Color   *Color   `json:"color,omitempty"`
	Size    *Size    `json:"size,omitempty"`
	Product *Product `json:"product,omitempty"`
}

type ProductImage struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	File      string `json:"file"`
}

// ProductFilter — параметры выборки товаров (категория, цена, атрибуты).
type ProductFilter struct {
	CategoryID int
	MinPrice   int
	MaxPrice   int
	Colors     []int
	Materials  []int
	HasStock   *bool
	Search     string
}

// PriceRange для фильтров категории.
type PriceRange struct {
	Min int `json:"min_price"`
	Max int `json:"max_price"`
}

type CategoryFilters struct {
	Colors     []*Color    `json:"colors"`
	Materials  []*Material `json:"materials"`
	PriceRange PriceRange  `json:"price_range"`
}

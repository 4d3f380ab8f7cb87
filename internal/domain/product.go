package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
)

const (
	nameMinLength        = 3
	nameMaxLength        = 100
	descriptionMinLength = 1
	descriptionMaxLength = 500
	categoryMinLength    = 2
)

// timestampPrecision matches what SQL timestamp columns keep, so a stored
// product reads back with the same timestamps.
const timestampPrecision = time.Microsecond

// clock is replaced in tests to control timestamps.
var clock = time.Now

func now() time.Time {
	return clock().UTC().Truncate(timestampPrecision)
}

// Product represents a catalog item. Fields are only changed through its
// methods, which keep every validation rule true after construction.
type Product struct {
	id          string
	name        string
	description string
	price       float64
	category    string
	stock       int
	createdAt   time.Time
	updatedAt   time.Time
}

// CreateProductProps holds the caller supplied fields of a new product.
type CreateProductProps struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
}

// ReconstructProductProps holds every persisted field of a product.
type ReconstructProductProps struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct validates props and returns a product with a fresh ID whose
// timestamps are both set to the current time.
func NewProduct(props CreateProductProps) (*Product, error) {
	ts := now()
	return build(ReconstructProductProps{
		ID:          uuid.New().String(),
		Name:        props.Name,
		Description: props.Description,
		Price:       props.Price,
		Category:    props.Category,
		Stock:       props.Stock,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
}

// ReconstructProduct rehydrates a stored product, keeping its ID and
// timestamps. Stored data is validated like new input.
func ReconstructProduct(props ReconstructProductProps) (*Product, error) {
	return build(props)
}

func build(props ReconstructProductProps) (*Product, error) {
	name, err := validateName(props.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(props.Description)
	if err != nil {
		return nil, err
	}
	price, err := validatePrice(props.Price)
	if err != nil {
		return nil, err
	}
	category, err := validateCategory(props.Category)
	if err != nil {
		return nil, err
	}
	stock, err := validateStock(props.Stock)
	if err != nil {
		return nil, err
	}

	return &Product{
		id:          props.ID,
		name:        name,
		description: description,
		price:       price,
		category:    category,
		stock:       stock,
		createdAt:   props.CreatedAt,
		updatedAt:   props.UpdatedAt,
	}, nil
}

func (p *Product) ID() string           { return p.id }
func (p *Product) Name() string         { return p.name }
func (p *Product) Description() string  { return p.description }
func (p *Product) Price() float64       { return p.price }
func (p *Product) Category() string     { return p.category }
func (p *Product) Stock() int           { return p.stock }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// UpdateName replaces the name with its trimmed form.
func (p *Product) UpdateName(name string) error {
	v, err := validateName(name)
	if err != nil {
		return err
	}
	p.name = v
	p.touch()
	return nil
}

// UpdateDescription replaces the description with its trimmed form.
func (p *Product) UpdateDescription(description string) error {
	v, err := validateDescription(description)
	if err != nil {
		return err
	}
	p.description = v
	p.touch()
	return nil
}

// UpdatePrice replaces the price.
func (p *Product) UpdatePrice(price float64) error {
	v, err := validatePrice(price)
	if err != nil {
		return err
	}
	p.price = v
	p.touch()
	return nil
}

// UpdateCategory replaces the category with its trimmed form.
func (p *Product) UpdateCategory(category string) error {
	v, err := validateCategory(category)
	if err != nil {
		return err
	}
	p.category = v
	p.touch()
	return nil
}

// AddStock increases the stock by quantity, which must be positive.
func (p *Product) AddStock(quantity int) error {
	if quantity <= 0 {
		return errs.Validation("Quantity must be positive")
	}
	p.stock += quantity
	p.touch()
	return nil
}

// RemoveStock decreases the stock by quantity. It fails when quantity is not
// positive or exceeds the current stock.
func (p *Product) RemoveStock(quantity int) error {
	if quantity <= 0 {
		return errs.Validation("Quantity must be positive")
	}
	if quantity > p.stock {
		return errs.Validation("Insufficient stock")
	}
	p.stock -= quantity
	p.touch()
	return nil
}

// touch refreshes updatedAt. The new value is always strictly later than the
// previous one at timestampPrecision, even on coarse clocks.
func (p *Product) touch() {
	ts := now()
	if !ts.After(p.updatedAt) {
		ts = p.updatedAt.Add(timestampPrecision)
	}
	p.updatedAt = ts
}

// ProductSnapshot is a plain copy of every product field, used for transport
// and persistence.
type ProductSnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Snapshot returns the product's current fields.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:          p.id,
		Name:        p.name,
		Description: p.description,
		Price:       p.price,
		Category:    p.category,
		Stock:       p.stock,
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
	}
}

// Props converts the snapshot back into reconstruction input.
func (s ProductSnapshot) Props() ReconstructProductProps {
	return ReconstructProductProps(s)
}

// MarshalJSON encodes the snapshot.
func (p *Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Snapshot())
}

// Clone returns an independent copy.
func (p *Product) Clone() *Product {
	c := *p
	return &c
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < nameMinLength {
		return "", errs.Validation("Name must be at least 3 characters long")
	}
	if n > nameMaxLength {
		return "", errs.Validation("Name must be at most 100 characters long")
	}
	return trimmed, nil
}

func validateDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	n := utf8.RuneCountInString(trimmed)
	if n < descriptionMinLength {
		return "", errs.Validation("Description must be at least 1 characters long")
	}
	if n > descriptionMaxLength {
		return "", errs.Validation("Description must be at most 500 characters long")
	}
	return trimmed, nil
}

func validatePrice(price float64) (float64, error) {
	// NaN fails the comparison too.
	if !(price > 0) || math.IsInf(price, 1) {
		return 0, errs.Validation("Price must be greater than zero")
	}
	return price, nil
}

func validateCategory(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if utf8.RuneCountInString(trimmed) < categoryMinLength {
		return "", errs.Validation("Category must be at least 2 characters long")
	}
	return trimmed, nil
}

func validateStock(stock int) (int, error) {
	if stock < 0 {
		return 0, errs.Validation("Stock cannot be negative")
	}
	return stock, nil
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food     Category = "Food"
	Beverage Category = "Beverage"
	Snack    Category = "Snack"
	Dessert  Category = "Dessert"

	Cash          PaymentMethod = "Cash"
	CreditCard    PaymentMethod = "Credit Card"
	DebitCard     PaymentMethod = "Debit Card"
	MobilePayment PaymentMethod = "Mobile Payment"

	Regular CustomerType = "Regular"
	New     CustomerType = "New"
	VIP     CustomerType = "VIP"
	Student CustomerType = "Student"
	Senior  CustomerType = "Senior"
)

// DateLayout is the layout used for dates in sheets, exports and reports.
const DateLayout = "2006-01-02"

type (
	Category      string
	PaymentMethod string
	CustomerType  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one sale line item.
	Transaction struct {
		Date          Date
		SoldAt        time.Time // time of day, informational only
		ProductName   string
		Category      Category
		Quantity      int
		UnitPrice     decimal.Decimal
		TotalAmount   Money
		PaymentMethod PaymentMethod
		CustomerType  CustomerType
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyProduct     = errors.New("empty product name")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrInvalidCustomer  = errors.New("invalid customer type")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidUnitPrice = errors.New("unit price must be positive")
	ErrTotalMismatch    = errors.New("total amount does not match quantity times unit price")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrEmptyDataSet     = errors.New("empty data set")
	ErrMalformedRow     = errors.New("malformed row")
)

var (
	categories     = []Category{Food, Beverage, Snack, Dessert}
	paymentMethods = []PaymentMethod{Cash, CreditCard, DebitCard, MobilePayment}
	customerTypes  = []CustomerType{Regular, New, VIP, Student, Senior}
)

// Categories returns the fixed category set in display order.
func Categories() []Category { return append([]Category(nil), categories...) }

// PaymentMethods returns the fixed payment method set in display order.
func PaymentMethods() []PaymentMethod { return append([]PaymentMethod(nil), paymentMethods...) }

// CustomerTypes returns the fixed customer type set in display order.
func CustomerTypes() []CustomerType { return append([]CustomerType(nil), customerTypes...) }

func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	for _, v := range paymentMethods {
		if v == p {
			return true
		}
	}
	return false
}

func (c CustomerType) Valid() bool {
	for _, v := range customerTypes {
		if v == c {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location and returns it as a UTC Date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time component.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewTransaction builds a transaction and derives TotalAmount from quantity and unit price.
func NewTransaction(date Date, product string, cat Category, qty int, unitPrice decimal.Decimal, pm PaymentMethod, ct CustomerType) Transaction {
	return Transaction{
		Date:          date,
		ProductName:   product,
		Category:      cat,
		Quantity:      qty,
		UnitPrice:     unitPrice,
		TotalAmount:   LineTotal(qty, unitPrice),
		PaymentMethod: pm,
		CustomerType:  ct,
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.ProductName) == "" {
		return ErrEmptyProduct
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if !t.UnitPrice.IsPositive() {
		return ErrInvalidUnitPrice
	}
	if t.TotalAmount != LineTotal(t.Quantity, t.UnitPrice) {
		return ErrTotalMismatch
	}
	// A sub-cent price can round a line down to nothing.
	if err := t.TotalAmount.Validate(); err != nil {
		return err
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPayment, t.PaymentMethod)
	}
	if !t.CustomerType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCustomer, t.CustomerType)
	}
	return nil
}

// RowError describes a row rejected during ingestion of external data.
type RowError struct {
	Row   int // 1-based row number in the source sheet
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}

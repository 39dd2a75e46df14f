package domain

import (
	"errors"
	"strconv"
	"time"
)

var ErrPriceOutOfRange = errors.New("price below the first histogram boundary")

// Transaction is a single product sale record
type Transaction struct {
	ID                 string    `json:"_id"`
	SourceID           *int64    `json:"sourceId,omitempty"`
	DateOfSale         time.Time `json:"dateOfSale"`
	ProductTitle       string    `json:"productTitle"`
	ProductDescription string    `json:"productDescription"`
	Price              float64   `json:"price"`
	IsSold             bool      `json:"isSold"`
	Category           string    `json:"category"`
	Image              string    `json:"image,omitempty"`
}

// FormatPrice renders a price the way search patterns see it
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// ListQuery - parameters of the transaction listing
type ListQuery struct {
	FilterParams
	Page    int
	PerPage int
}

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Skip returns the number of matching documents before the requested page
func (q ListQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.PerPage)
}

type TransactionPage struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int64          `json:"total"`
	Page         int            `json:"page"`
	PerPage      int            `json:"perPage"`
}

type Statistics struct {
	TotalSaleAmount   float64 `json:"totalSaleAmount"`
	TotalSoldItems    int64   `json:"totalSoldItems"`
	TotalNotSoldItems int64   `json:"totalNotSoldItems"`
}

// PriceBucket is one bar of the price histogram. ID is the lower bound,
// or OverflowBucketID for the open-ended last bucket.
type PriceBucket struct {
	ID    any    `json:"_id"`
	Range string `json:"range"`
	Count int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"_id"`
	Count    int64  `json:"count"`
}

type CombinedReport struct {
	Statistics *Statistics      `json:"statistics"`
	BarChart   []PriceBucket    `json:"barChart"`
	PieChart   []*CategoryCount `json:"pieChart"`
}

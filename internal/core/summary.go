package core

// DailySummary aggregates all transactions sharing one calendar date.
type DailySummary struct {
	Date               Date
	TotalSales         Money
	TotalTransactions  int
	AverageSale        Money
	TotalQuantity      int
	BestSellingProduct string
}

// ProductSummary aggregates all transactions for one product name.
type ProductSummary struct {
	ProductName   string
	TotalQuantity int
	TotalRevenue  Money
	AvgSaleValue  Money
	FirstSaleDate Date
	LastSaleDate  Date
	SaleCount     int
}

// CategoryTotal is revenue aggregated by category.
type CategoryTotal struct {
	Category    Category
	TotalAmount Money
}

// PaymentTotal is revenue and volume aggregated by payment method.
type PaymentTotal struct {
	PaymentMethod    PaymentMethod
	TotalAmount      Money
	TransactionCount int
}

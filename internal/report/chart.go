package report

// ChartKind names how a descriptor is meant to be drawn.
type ChartKind string

const (
	KindLine       ChartKind = "line"
	KindBar        ChartKind = "bar"
	KindPie        ChartKind = "pie"
	KindGroupedBar ChartKind = "grouped_bar" // one panel per series, shared labels
)

// Chart identifiers double as output file names.
const (
	ChartDailySalesTrend      = "daily_sales_trend"
	ChartProductPerformance   = "product_performance"
	ChartCategoryDistribution = "category_distribution"
	ChartPaymentMethods       = "payment_methods"
)

// TopProducts is how many products the performance chart shows.
const TopProducts = 10

// Series is one sequence of values aligned with ChartDescriptor.Labels.
type Series struct {
	Name       string
	Title      string // panel title for grouped charts
	YAxisTitle string
	Values     []float64
}

// ChartDescriptor is a declarative chart definition; it carries data, not pixels.
type ChartDescriptor struct {
	ID         string
	Kind       ChartKind
	Title      string
	XAxisTitle string
	YAxisTitle string
	Labels     []string
	Series     []Series
}

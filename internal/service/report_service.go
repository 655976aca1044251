package service

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ReportService builds sales reports and dashboard figures from recorded
// sales. Every report type has a closed, explicit schema.
type ReportService struct {
	store            *store.Store
	monthlyTarget    int64
	topProductsLimit int
	logger           *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store, monthlyTarget int64, topProductsLimit int) *ReportService {
	return &ReportService{
		store:            store,
		monthlyTarget:    monthlyTarget,
		topProductsLimit: topProductsLimit,
		logger:           util.GetLogger(),
	}
}

// SalesReport builds the report for completed sales within [from, to).
func (rs *ReportService) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.SalesReport")
	defer span.End()

	if !to.After(from) {
		return nil, fmt.Errorf("report period end must be after start")
	}

	totals, err := rs.store.GetSalesTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	topProducts, err := rs.store.GetTopProducts(ctx, from, to, rs.topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	lowStock, err := rs.store.GetLowStockProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}

	daily, err := rs.store.GetDailySales(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily sales: %w", err)
	}

	report := &models.SalesReport{
		From:              from,
		To:                to,
		TotalSales:        totals.TotalSales,
		TotalTax:          totals.TotalTax,
		TotalTransactions: totals.TotalTransactions,
		TotalProfit:       totals.TotalProfit,
		TopProducts:       topProducts,
		LowStockProducts:  lowStock,
		DailySales:        daily,
	}

	rs.logger.Debug("Sales report built",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("transactions", totals.TotalTransactions))

	return report, nil
}

// DashboardStats builds the landing dashboard figures relative to now.
func (rs *ReportService) DashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.DashboardStats")
	defer span.End()

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := rs.store.GetSalesTotals(ctx, dayStart, now)
	if err != nil {
		return nil, err
	}

	month, err := rs.store.GetSalesTotals(ctx, monthStart, now)
	if err != nil {
		return nil, err
	}

	products, err := rs.store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := rs.store.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}

	lowStock, err := rs.store.CountLowStockProducts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TodaySales:        today.TotalSales,
		TotalProducts:     products,
		ActiveCustomers:   customers,
		LowStockItems:     lowStock,
		CurrentMonthSales: month.TotalSales,
		MonthlyTarget:     rs.monthlyTarget,
	}, nil
}

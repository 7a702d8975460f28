package services

import (
	"gorm.io/gorm"

	"uzpay-service/internal/models"
)

// GatewaySummary is one gateway's aggregate payment figures.
type GatewaySummary struct {
	Gateway        string  `json:"gateway"`
	TotalRequests  int64   `json:"total_requests"`
	Completed      int64   `json:"completed"`
	Failed         int64   `json:"failed"`
	Queued         int64   `json:"queued"`
	SuccessRate    float64 `json:"success_rate"`
	CompletedTiyin int64   `json:"completed_amount_tiyin"`
	CompletedUZS   float64 `json:"completed_amount_uzs"`
}

// SummaryService aggregates payment request counts and volume per gateway.
type SummaryService struct {
	DB *gorm.DB
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{DB: db}
}

type summaryRow struct {
	Gateway string
	Status  string
	Count   int64
	Amount  int64
}

// Summarize returns aggregates for every gateway with at least one payment
// request.
func (s *SummaryService) Summarize() ([]GatewaySummary, error) {
	var rows []summaryRow
	err := s.DB.Model(&models.PaymentRequest{}).
		Select("gateway, status, COUNT(*) AS count, COALESCE(SUM(amount_tiyin), 0) AS amount").
		Group("gateway, status").
		Order("gateway").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byGateway := map[string]*GatewaySummary{}
	order := []string{}
	for _, row := range rows {
		sum, ok := byGateway[row.Gateway]
		if !ok {
			sum = &GatewaySummary{Gateway: row.Gateway}
			byGateway[row.Gateway] = sum
			order = append(order, row.Gateway)
		}
		sum.TotalRequests += row.Count
		switch row.Status {
		case models.StatusCompleted:
			sum.Completed += row.Count
			sum.CompletedTiyin += row.Amount
		case models.StatusFailed:
			sum.Failed += row.Count
		case models.StatusQueued:
			sum.Queued += row.Count
		}
	}

	result := make([]GatewaySummary, 0, len(order))
	for _, gw := range order {
		sum := byGateway[gw]
		if sum.TotalRequests > 0 {
			sum.SuccessRate = float64(sum.Completed) / float64(sum.TotalRequests)
		}
		sum.CompletedUZS = float64(sum.CompletedTiyin) / 100
		result = append(result, *sum)
	}
	return result, nil
}

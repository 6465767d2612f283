package ai

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"greencart.dev/storefront/pkg/models"
)

type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// OrderDigest aggregates the orders a seller can see.
type OrderDigest struct {
	OrderCount    int                `json:"orderCount"`
	Units         int                `json:"units"`
	Revenue       float64            `json:"revenue"`
	ByPaymentType map[string]float64 `json:"byPaymentType"`
	PaidOnline    int                `json:"paidOnline"`
	AwaitingCash  int                `json:"awaitingCash"`
	TopProducts   []ProductSales     `json:"topProducts"`
}

type AIReportResponse struct {
	Status      string     `json:"status"`
	Data        ReportData `json:"data"`
	GeneratedAt time.Time  `json:"generated_at"`
	AIEnabled   bool       `json:"ai_enabled"`
}

type ReportData struct {
	RawData    OrderDigest `json:"raw_data"`
	AIInsights string      `json:"ai_insights,omitempty"`
	Summary    string      `json:"summary"`
	Error      string      `json:"error,omitempty"`
}

// Summarize builds the digest. Product revenue uses the line's current offer price, so it can
// differ from stored order amounts, which include tax.
func Summarize(orders []models.OrderView, topN int) OrderDigest {
	d := OrderDigest{ByPaymentType: map[string]float64{}}
	revenue := decimal.Zero
	byType := map[string]decimal.Decimal{}
	products := map[string]*ProductSales{}
	productRevenue := map[string]decimal.Decimal{}

	for _, o := range orders {
		d.OrderCount++
		amount := decimal.NewFromFloat(o.Amount)
		revenue = revenue.Add(amount)
		byType[string(o.PaymentType)] = byType[string(o.PaymentType)].Add(amount)
		if o.PaymentType == models.PaymentOnline && o.IsPaid {
			d.PaidOnline++
		}
		if o.PaymentType == models.PaymentCOD && !o.IsPaid {
			d.AwaitingCash++
		}

		d.Units += o.GetItemCount()
		for _, item := range o.Items {
			if item.Product == nil {
				continue
			}
			id := item.Product.ID.Hex()
			ps, ok := products[id]
			if !ok {
				ps = &ProductSales{ProductID: id, Name: item.Product.Name}
				products[id] = ps
			}
			ps.Units += item.Quantity
			line := decimal.NewFromFloat(item.Product.OfferPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
			productRevenue[id] = productRevenue[id].Add(line)
		}
	}

	d.Revenue = revenue.Round(2).InexactFloat64()
	for k, v := range byType {
		d.ByPaymentType[k] = v.Round(2).InexactFloat64()
	}

	for id, ps := range products {
		ps.Revenue = productRevenue[id].Round(2).InexactFloat64()
		d.TopProducts = append(d.TopProducts, *ps)
	}
	sort.Slice(d.TopProducts, func(i, j int) bool {
		a, b := d.TopProducts[i], d.TopProducts[j]
		if a.Units != b.Units {
			return a.Units > b.Units
		}
		return a.ProductID < b.ProductID
	})
	if topN > 0 && len(d.TopProducts) > topN {
		d.TopProducts = d.TopProducts[:topN]
	}
	return d
}

// DigestReport summarizes the orders and, when enabled, asks the model for a narrative.
// An AI failure is reported inside the response; the digest is always returned.
func (r *Reporter) DigestReport(ctx context.Context, orders []models.OrderView, currencySymbol string) *AIReportResponse {
	digest := Summarize(orders, 5)
	response := &AIReportResponse{
		Status:      "success",
		GeneratedAt: time.Now(),
		AIEnabled:   r.IsEnabled(),
		Data: ReportData{
			RawData: digest,
			Summary: "Order digest retrieved successfully",
		},
	}

	if !r.IsEnabled() {
		response.Data.Summary = "Raw order digest (AI insights unavailable)"
		return response
	}

	aiInsights, err := r.generateCompletion(ctx, OrderDigestSystemPrompt, formatDigestPrompt(digest, currencySymbol))
	if err != nil {
		response.Data.Error = "AI analysis failed"
		return response
	}
	response.Data.AIInsights = aiInsights
	response.Data.Summary = "AI-generated order digest"
	return response
}

package ai

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"greencart.dev/storefront/pkg/models"
)

func TestSummarize(t *testing.T) {
	apples := &models.Product{ID: bson.NewObjectID(), Name: "Apples", OfferPrice: 1.5}
	milk := &models.Product{ID: bson.NewObjectID(), Name: "Milk", OfferPrice: 2}

	orders := []models.OrderView{
		{PaymentType: models.PaymentCOD, Amount: 5.1, Items: []models.OrderItemView{{Product: apples, Quantity: 2}, {Product: milk, Quantity: 1}}},
		{PaymentType: models.PaymentOnline, IsPaid: true, Amount: 6.12, Items: []models.OrderItemView{{Product: apples, Quantity: 4}}},
		{PaymentType: models.PaymentCOD, Amount: 2.04, Items: []models.OrderItemView{{Product: nil, Quantity: 1}}},
	}

	d := Summarize(orders, 1)
	if d.OrderCount != 3 || d.Units != 8 {
		t.Fatalf("count = %d units = %d", d.OrderCount, d.Units)
	}
	if d.Revenue != 13.26 {
		t.Errorf("revenue = %v", d.Revenue)
	}
	if d.ByPaymentType["COD"] != 7.14 || d.ByPaymentType["Online"] != 6.12 {
		t.Errorf("by payment type = %v", d.ByPaymentType)
	}
	if d.PaidOnline != 1 || d.AwaitingCash != 2 {
		t.Errorf("paidOnline = %d awaitingCash = %d", d.PaidOnline, d.AwaitingCash)
	}
	if len(d.TopProducts) != 1 || d.TopProducts[0].Name != "Apples" || d.TopProducts[0].Units != 6 || d.TopProducts[0].Revenue != 9 {
		t.Errorf("top products = %+v", d.TopProducts)
	}
}

func TestDigestReportWithoutCredentials(t *testing.T) {
	r := NewReporter("", "", "")
	if r.IsEnabled() {
		t.Fatal("reporter without credentials must be disabled")
	}
	resp := r.DigestReport(context.Background(), nil, "$")
	if resp.AIEnabled || resp.Data.AIInsights != "" || !strings.Contains(resp.Data.Summary, "unavailable") {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Data.RawData.OrderCount != 0 {
		t.Fatalf("digest = %+v", resp.Data.RawData)
	}
}

func TestFormatDigestPrompt(t *testing.T) {
	prompt := formatDigestPrompt(OrderDigest{OrderCount: 2}, "€")
	if !strings.Contains(prompt, "Amounts are in €") || !strings.Contains(prompt, `"orderCount": 2`) {
		t.Fatalf("prompt = %s", prompt)
	}
}

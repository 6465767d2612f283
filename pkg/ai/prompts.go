package ai

import (
	"encoding/json"
	"fmt"
)

const OrderDigestSystemPrompt = `You are an operations assistant for an online grocery store.
Summarize the seller's order data in plain language. Cover:
- Order volume and revenue, split by cash on delivery and card payments
- Which products sell best
- Anything the seller should act on today
Keep it to two short paragraphs. Do not invent figures that are not in the data.`

func formatDigestPrompt(d OrderDigest, currencySymbol string) string {
	jsonData, _ := json.MarshalIndent(d, "", "  ")
	return fmt.Sprintf(`Amounts are in %s. Here is the order digest:

%s

Please provide:
1. A one sentence headline
2. Notable products or payment trends
3. Suggested next actions for the seller`, currencySymbol, string(jsonData))
}

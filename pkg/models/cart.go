package models

// CartItems maps a product id to a positive quantity. A key whose quantity drops to
// zero is removed, never stored as 0.
type CartItems map[string]int

// Add increments the quantity of productID, starting at 1.
func (c CartItems) Add(productID string) {
	c[productID]++
}

// Set stores exactly n. Callers validate n > 0.
func (c CartItems) Set(productID string, n int) {
	c[productID] = n
}

// Remove decrements by one and deletes the key at zero. Missing keys are ignored.
func (c CartItems) Remove(productID string) {
	qty, ok := c[productID]
	if !ok {
		return
	}
	if qty <= 1 {
		delete(c, productID)
		return
	}
	c[productID] = qty - 1
}

// Count is the total number of units in the cart.
func (c CartItems) Count() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

func (c CartItems) Clone() CartItems {
	out := make(CartItems, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Normalize returns a copy without zero quantities. The second return value lists
// product ids whose quantity is negative.
func (c CartItems) Normalize() (CartItems, []string) {
	out := make(CartItems, len(c))
	var negative []string
	for id, qty := range c {
		switch {
		case qty < 0:
			negative = append(negative, id)
		case qty > 0 && id != "":
			out[id] = qty
		}
	}
	return out, negative
}

type UpdateCartRequest struct {
	CartItems CartItems `json:"cartItems"`
	Version   *int64    `json:"version,omitempty"`
}

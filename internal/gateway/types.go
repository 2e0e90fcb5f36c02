package gateway

// Response carries an upstream response verbatim. The relay never interprets
// the provider's body; callers receive the exact status and bytes.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the provider accepted the request.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// SessionIntent describes a server-priced order for which a hosted payment
// session should be opened. Amounts are minor units and always computed
// server-side.
type SessionIntent struct {
	AmountMinor    int64
	Currency       string
	Quantity       int
	UnitPriceMinor int64
}

// Merchant holds the fixed metadata attached to every payment session.
// Everything here is injected configuration; nothing is hard-coded in source.
type Merchant struct {
	DisplayName    string
	BillingCountry string
	CustomerName   string
	CustomerEmail  string
	ItemName       string
	ItemReference  string
	SuccessURL     string
	FailureURL     string
}

type sessionPayload struct {
	Amount              int64         `json:"amount"`
	Currency            string        `json:"currency"`
	Reference           string        `json:"reference"`
	DisplayName         string        `json:"display_name"`
	PaymentType         string        `json:"payment_type"`
	Billing             billingInfo   `json:"billing"`
	Customer            customerInfo  `json:"customer"`
	Items               []sessionItem `json:"items"`
	Capture             bool          `json:"capture"`
	ProcessingChannelID string        `json:"processing_channel_id"`
	SuccessURL          string        `json:"success_url"`
	FailureURL          string        `json:"failure_url"`
}

type billingInfo struct {
	Address billingAddress `json:"address"`
}

type billingAddress struct {
	Country string `json:"country"`
}

type customerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionItem struct {
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type refundPayload struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

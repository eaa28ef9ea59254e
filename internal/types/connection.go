package types

// PaymentProvider identifies the external payment processor a connection
// belongs to
type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
)

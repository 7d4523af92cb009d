// Package dto holds the wire types of the public order API. Requests bind
// from form fields or JSON; payment widgets submit forms, server-to-server
// integrations usually send JSON.
package dto

// CreateOrderRequest is the request body for order creation.
type CreateOrderRequest struct {
	Amount          int64             `json:"amount" form:"amount" binding:"required"`
	Currency        string            `json:"currency" form:"currency"`
	BTCDenomination string            `json:"btc_denomination" form:"btc_denomination"`
	KeychainID      int64             `json:"keychain_id" form:"keychain_id"`
	Signature       string            `json:"signature" form:"signature"`
	CallbackData    string            `json:"callback_data" form:"callback_data"`
	Description     string            `json:"description" form:"description"`
	Data            map[string]string `json:"data" form:"-"`
}

// CancelOrderRequest is the request body for order cancellation.
type CancelOrderRequest struct {
	Signature string `json:"signature" form:"signature"`
}

// LastKeychainIDResponse is the response body of the keychain counter
// endpoint, consumed by stateless widgets to pick their next index.
type LastKeychainIDResponse struct {
	GatewayID      string `json:"gateway_id"`
	LastKeychainID int64  `json:"last_keychain_id"`
}

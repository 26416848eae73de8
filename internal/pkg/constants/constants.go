// Package constants holds the service names, HTTP paths and topics
// shared between services.
package constants

const (
	BankService  = "bank-service"
	ShopService  = "shop-service"
	NotifService = "notification-service"
	PushGateway  = "push-gateway"

	BankTransfersPath = "/api/transfers"
	BankAccountsPath  = "/api/accounts"

	OrderEventsTopic = "order-events"
)

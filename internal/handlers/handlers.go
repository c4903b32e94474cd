package handlers

import (
	"github.com/rebornapp/reborn-golang/internal/service"
)

// Handlers holds the service dependencies for all HTTP controllers.
type Handlers struct {
	Items        *service.ItemService
	Transactions *service.TransactionService
	Users        *service.UserService
}

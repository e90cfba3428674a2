package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrAlreadyPaid          = errors.New("payment is already paid")
	ErrProviderUnsupported  = errors.New("provider is not supported")
	ErrCallbackRejected     = errors.New("callback rejected")
	ErrNoSessionAssociated  = errors.New("no session associated")
	ErrSessionNotFound      = errors.New("table session not found")
	ErrSessionNotActive     = errors.New("table session is not active")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
)

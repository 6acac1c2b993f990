package notification

import "errors"

var (
	ErrSessionNotFound  = errors.New("exam session not found")
	ErrTemplateNotFound = errors.New("email template not found")
	ErrInvalidRecipient = errors.New("invalid recipient email address")
)

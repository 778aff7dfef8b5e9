package services

import "errors"

// Typed errors returned to the transport layer. Authorization failures on
// single entities surface as the entity's not-found error so a non-owner
// cannot probe for existence; the one exception is the cross-owner bulk
// notification read, which is an explicit bad request.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyContent         = errors.New("message content must not be empty")
	ErrNoRecipients         = errors.New("bulk notification requires at least one recipient")
	ErrNotOwner             = errors.New("notification does not belong to the requesting user")
)

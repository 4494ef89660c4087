package entity

import "errors"

var (
	ErrInvalidDeletionScope = errors.New("deletion scope must be \"me\" or \"everyone\"")
	ErrNotMessageSender     = errors.New("only the sender can delete a message for everyone")
	ErrDeletedByOtherParty  = errors.New("message already deleted by the other participant")
)

package events

import "errors"

var (
	// ErrFlushExhausted is returned when records are still unconfirmed after every
	// flush attempt. The record may still be delivered later.
	ErrFlushExhausted = errors.New("flush attempts exhausted")

	// ErrDeliveryFailed is returned when the broker reported the record as failed
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrInvalidSignature is returned by Consume when signature verification is on and
	// the message does not verify
	ErrInvalidSignature = errors.New("invalid message signature")

	// ErrNotSubscribed is returned by Consume before Subscribe
	ErrNotSubscribed = errors.New("consumer is not subscribed")

	// ErrNoTopics is returned when subscribing to an empty topic list
	ErrNoTopics = errors.New("no topics")
)

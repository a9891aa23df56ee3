package kafka

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors shared by the kafka-go and confluent implementations. Client
// specific errors are mapped onto them with TranslateError.
var (
	ErrConnectionFailed             = errors.New("connection failed")
	ErrConnectionLost               = errors.New("connection lost")
	ErrBrokerNotAvailable           = errors.New("broker not available")
	ErrAuthenticationFailed         = errors.New("authentication failed")
	ErrAuthorizationFailed          = errors.New("authorization failed")
	ErrTopicNotFound                = errors.New("topic not found")
	ErrGroupCoordinatorNotAvailable = errors.New("group coordinator not available")
	ErrNotGroupCoordinator          = errors.New("not group coordinator")
	ErrInvalidGroupID               = errors.New("invalid group id")
	ErrRebalanceInProgress          = errors.New("rebalance in progress")
	ErrOffsetOutOfRange             = errors.New("offset out of range")
	ErrMessageTooLarge              = errors.New("message too large")
	ErrInvalidMessage               = errors.New("invalid message")
	ErrLeaderNotAvailable           = errors.New("leader not available")
	ErrNotLeaderForPartition        = errors.New("not leader for partition")
	ErrRequestTimedOut              = errors.New("request timed out")
	ErrNetworkError                 = errors.New("network error")
	ErrProducerFenced               = errors.New("producer fenced")
	ErrOutOfOrderSequence           = errors.New("out of order sequence")
	ErrUnsupportedVersion           = errors.New("unsupported version")
	ErrInvalidConfig                = errors.New("invalid config")
	ErrContextCanceled              = errors.New("context canceled")
	ErrContextDeadlineExceeded      = errors.New("context deadline exceeded")

	// ErrWriterNotInitialized is returned when producing on a closed DeliveryQueue.
	ErrWriterNotInitialized = errors.New("writer not initialized")

	// ErrReaderNotInitialized is returned when polling a RecordSource before Subscribe
	// or after Close.
	ErrReaderNotInitialized = errors.New("reader not initialized")
)

// errorPatterns is checked in order against the lowercased error text; the first
// match wins, so more specific phrases come first.
var errorPatterns = []struct {
	target  error
	phrases []string
}{
	{ErrConnectionFailed, []string{"connection refused"}},
	{ErrConnectionLost, []string{"connection reset", "connection closed"}},
	{ErrBrokerNotAvailable, []string{"broker not available", "all brokers down"}},
	{ErrAuthenticationFailed, []string{"authentication failed"}},
	{ErrAuthorizationFailed, []string{"authorization failed", "not authorized"}},
	{ErrTopicNotFound, []string{"topic not found", "unknown topic"}},
	{ErrGroupCoordinatorNotAvailable, []string{"coordinator not available"}},
	{ErrNotGroupCoordinator, []string{"not coordinator for group", "not group coordinator"}},
	{ErrInvalidGroupID, []string{"invalid group id"}},
	{ErrRebalanceInProgress, []string{"rebalance in progress"}},
	{ErrOffsetOutOfRange, []string{"offset out of range"}},
	{ErrMessageTooLarge, []string{"message too large", "record too large", "message size too large"}},
	{ErrInvalidMessage, []string{"invalid message"}},
	{ErrLeaderNotAvailable, []string{"leader not available"}},
	{ErrNotLeaderForPartition, []string{"not leader for partition"}},
	{ErrProducerFenced, []string{"producer fenced"}},
	{ErrOutOfOrderSequence, []string{"out of order sequence"}},
	{ErrUnsupportedVersion, []string{"unsupported version"}},
	{ErrRequestTimedOut, []string{"timed out"}},
	{ErrNetworkError, []string{"i/o timeout", "network", "dial"}},
	{ErrContextCanceled, []string{"context canceled", "context cancelled"}},
}

// TranslateError maps err onto one of the sentinel errors above. Errors that match
// nothing are returned unchanged.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return ErrContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrContextDeadlineExceeded
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		for _, phrase := range p.phrases {
			if strings.Contains(text, phrase) {
				return p.target
			}
		}
	}
	return err
}

var (
	retryable = []error{
		ErrConnectionFailed, ErrConnectionLost, ErrBrokerNotAvailable,
		ErrLeaderNotAvailable, ErrNotLeaderForPartition, ErrRequestTimedOut,
		ErrNetworkError, ErrGroupCoordinatorNotAvailable, ErrNotGroupCoordinator,
		ErrRebalanceInProgress, ErrContextDeadlineExceeded,
	}
	permanent = []error{
		ErrAuthenticationFailed, ErrAuthorizationFailed, ErrTopicNotFound,
		ErrInvalidGroupID, ErrInvalidMessage, ErrMessageTooLarge, ErrInvalidConfig,
		ErrUnsupportedVersion, ErrProducerFenced, ErrContextCanceled,
	}
)

// IsRetryableError reports whether err is likely to go away on its own, like a
// leader election or a rebalance.
func IsRetryableError(err error) bool {
	return matchesAny(TranslateError(err), retryable)
}

// IsPermanentError reports whether retrying err is pointless.
func IsPermanentError(err error) bool {
	return matchesAny(TranslateError(err), permanent)
}

// IsAuthenticationError reports whether err is an authentication or authorization
// failure.
func IsAuthenticationError(err error) bool {
	return matchesAny(TranslateError(err), []error{ErrAuthenticationFailed, ErrAuthorizationFailed})
}

func matchesAny(err error, targets []error) bool {
	if err == nil {
		return false
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

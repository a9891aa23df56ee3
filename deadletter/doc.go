// Package deadletter archives messages that could not be delivered to Kafka in a
// MinIO/S3 bucket, one JSON object per message:
//
//	<prefix>/<topic>/<yyyy>/<mm>/<dd>/<uuid>.json
//
// The object holds the wire form of the message, the topic and the delivery error.
package deadletter

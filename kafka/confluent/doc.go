// Package confluent implements kafka.DeliveryQueue and kafka.RecordSource on top of
// confluent-kafka-go (librdkafka).
//
// The same kafka.Config drives both client libraries. Here every setting is passed to
// librdkafka under its native property name, see ConfigMap, ProducerConfigMap and
// ConsumerConfigMap.
//
// Building this package needs cgo; the bundled librdkafka is used by default.
package confluent

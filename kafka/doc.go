// Package kafka provides the broker side of event publication: an asynchronous
// producer with delivery reports and a consumer-group member.
//
// # Architecture
//
// Two interfaces describe what the events package needs from a broker client:
//   - DeliveryQueue: Produce enqueues, Poll collects delivery reports, Flush waits
//   - RecordSource: Subscribe, Poll with a timeout, Commit, Close
//
// This package implements both on top of segmentio/kafka-go:
//   - *AsyncProducer wraps an async kafka.Writer and turns its Completion callback
//     into DeliveryReports
//   - *GroupConsumer wraps a group kafka.Reader created on Subscribe
//
// The kafka/confluent subpackage implements the same interfaces with librdkafka.
//
// # Delivery reports
//
// Every OutboundRecord may carry an Opaque value. It comes back unchanged in the
// DeliveryReport for that record, which lets a caller find out which of its own
// records failed even when other callers share the producer:
//
//	producer, err := kafka.NewAsyncProducer(kafka.Config{Brokers: []string{"localhost:9092"}})
//	if err != nil {
//		return err
//	}
//	defer producer.Close()
//
//	token := new(int)
//	_ = producer.Produce(ctx, kafka.OutboundRecord{Topic: "member", Value: body, Opaque: token})
//	if left := producer.Flush(10 * time.Second); left > 0 {
//		// not confirmed yet, try again later
//	}
//	for _, report := range producer.Poll(0) {
//		if report.Opaque == token && report.Err != nil {
//			// delivery failed
//		}
//	}
//
// # Consuming
//
//	consumer, err := kafka.NewGroupConsumer(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		GroupID: "billing",
//	})
//	if err != nil {
//		return err
//	}
//	defer consumer.Close()
//
//	if err := consumer.Subscribe([]string{"member"}); err != nil {
//		return err
//	}
//	record, err := consumer.Poll(ctx, time.Second)
//	if err != nil {
//		return err
//	}
//	if record == nil {
//		// timeout
//	}
//	_ = consumer.Commit(ctx, record)
//
// With EnableAutoCommit and EnableAutoOffsetStore both set, offsets are committed when
// a record is read and Commit does nothing.
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		kafka.FXModule,
//		fx.Provide(func() kafka.Config {
//			return kafka.Config{Brokers: []string{"localhost:9092"}, GroupID: "billing"}
//		}),
//	)
//
// # Error Handling
//
// TranslateError maps broker client errors onto the sentinel errors of this package.
// IsRetryableError and IsPermanentError classify them.
//
// # Thread Safety
//
// AsyncProducer is safe for concurrent use. GroupConsumer serializes Subscribe and
// Close; Poll and Commit are meant to be called from one goroutine.
package kafka

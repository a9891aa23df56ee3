// Package events publishes signed messages to Kafka and reads them back.
//
// # Producing
//
// ProducerService.Produce encodes a message.Message for a topic and blocks until the
// broker confirmed it or the retry policy ran out:
//
//	producer := events.NewProducerService(queue, serializer, events.Config{
//		FlushTimeout: 10 * time.Second,
//		Retry:        events.RetryPolicy{Attempts: 3},
//	})
//
//	msg, err := message.NewBuilder().
//		Type("member").ID("2019").Source("mysql").Event("created").
//		PayloadJSON(member).Salt(salt).
//		Build()
//	if err != nil {
//		return err
//	}
//	if err := producer.Produce(ctx, "member", msg); err != nil {
//		switch {
//		case errors.Is(err, events.ErrFlushExhausted):
//			// still unconfirmed, the broker may deliver it later
//		case errors.Is(err, events.ErrDeliveryFailed):
//			// the broker rejected it
//		}
//	}
//
// A topic is written as Avro when a schema registry serializer is configured and the
// topic has a schema in Config.Schemas, or Config.UseEnvelopeSchema is set. The subject
// is "<topic>-value". Every other topic carries the JSON wire form.
//
// # Consuming
//
//	consumer, err := events.NewConsumerService(source, serializer, events.Config{}).
//		Subscribe([]string{"member"})
//	if err != nil {
//		return err
//	}
//	delivery, ok, err := consumer.Consume(ctx, time.Second)
//	switch {
//	case err != nil:
//		return err
//	case !ok:
//		// nothing within a second
//	default:
//		handle(delivery.Message)
//		_ = delivery.Commit(ctx)
//	}
//
// Records starting with the registry wire header are decoded with the writer schema;
// anything else is read as JSON.
package events

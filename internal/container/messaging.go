package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
	"go.uber.org/zap"
)

// visitsConsumerGroup is the Redis stream consumer group persisting visits.
const visitsConsumerGroup = "visits"

// MessagingPackage provides the publisher and subscriber of the configured bus.
// With the memory bus both sides share one in-process channel.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		opts := do.MustInvoke[*Options](i)

		return messaging.NewMemoryBus(int64(opts.VisitQueueSize), do.MustInvoke[watermill.LoggerAdapter](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Bus {
		case messaging.BusMemory:
			bus, err := do.Invoke[*gochannel.GoChannel](i)
			if err != nil {
				return nil, err
			}

			return messaging.NewPublisherGroup(bus), nil
		case messaging.BusRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			pub, err := messaging.NewRedisPublisher(client.Client, do.MustInvoke[watermill.LoggerAdapter](i))
			if err != nil {
				return nil, err
			}

			return messaging.NewPublisherGroup(pub), nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownBus, opts.Bus)
		}
	})

	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Bus {
		case messaging.BusMemory:
			bus, err := do.Invoke[*gochannel.GoChannel](i)
			if err != nil {
				return nil, err
			}

			return bus, nil
		case messaging.BusRedis:
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			return messaging.NewRedisSubscriber(client.Client, visitsConsumerGroup, do.MustInvoke[watermill.LoggerAdapter](i))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownBus, opts.Bus)
		}
	})
}

// VisitsPackage provides the *visits.Recorder publishing to the bus.
func VisitsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*visits.Recorder, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publishers, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		publish := messaging.NewPublishFunc[visits.Visit](publishers.Publisher(), visits.TopicVisitRegistered)

		return visits.NewRecorder(publish, logger, visits.RecorderOptions{
			QueueSize: opts.VisitQueueSize,
			Workers:   opts.VisitWorkers,
		})
	})
}

// ConsumerGroupPackage provides the *messaging.ConsumerGroup persisting visits.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := do.Invoke[message.Subscriber](i)
		if err != nil {
			return nil, err
		}

		visitStore, err := do.Invoke[visits.Store](i)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(
			messaging.NewConsumer(subscriber, visits.TopicVisitRegistered, visits.NewPersistHandler(visitStore), logger),
		)

		return group, nil
	})
}

// ShortenerPackage provides the *shortener.Service.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(repo, opts.PublicBaseURL(),
			shortener.WithMaxHashAttempts(opts.MaxHashAttempts),
			shortener.WithReservedHashes(reservedHashes...),
			shortener.WithLogger(logger),
		), nil
	})
}

package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/delivery/internal/messaging/kafka"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect order events published to Kafka",
	}

	var (
		brokers    string
		topic      string
		group      string
		fromOldest bool
		eventTypes []string
		orderID    string
	)
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print order events as they arrive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(brokers) != "" {
				cfg.KafkaBrokers = brokers
			}
			brokerList := cfg.KafkaBrokerList()
			if len(brokerList) == 0 {
				return fmt.Errorf("KAFKA_BROKERS (or --brokers) is required")
			}

			out := cmd.OutOrStdout()
			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:    brokerList,
				GroupID:    group,
				Topic:      topic,
				FromOldest: fromOldest,
				Filter: kafka.EventFilter{
					EventTypes: eventTypes,
					OrderID:    strings.TrimSpace(orderID),
				},
			}, printEnvelope(out))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return consumer.Run(ctx)
		},
	}
	tail.Flags().StringVar(&brokers, "brokers", "", "comma-separated Kafka brokers (fallback: KAFKA_BROKERS)")
	tail.Flags().StringVar(&topic, "topic", kafka.TopicOrderEvents, "topic to read")
	tail.Flags().StringVar(&group, "group", "deliveryctl-tail", "consumer group id")
	tail.Flags().StringSliceVar(&eventTypes, "type", nil, "only print these event types (repeatable)")
	tail.Flags().StringVar(&orderID, "order", "", "only print events of this order")
	tail.Flags().BoolVar(&fromOldest, "from-beginning", false, "read the topic from the oldest offset")

	cmd.AddCommand(tail)
	return cmd
}

// printEnvelope выводит одну строку на событие.
func printEnvelope(out io.Writer) kafka.EnvelopeHandler {
	return func(_ context.Context, envelope kafka.Envelope) error {
		_, err := fmt.Fprintf(out, "%s %s order=%s %s\n",
			envelope.PublishedAt.UTC().Format(time.RFC3339),
			envelope.EventType,
			envelope.AggregateID,
			string(envelope.Payload),
		)
		return err
	}
}

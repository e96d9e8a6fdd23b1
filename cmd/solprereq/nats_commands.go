package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/solprereq/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

// subscribeCommand streams submission events, optionally for one fee payer.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to confirmed submission events",
		ArgsUsage: "[fee_payer_address]",
		Description: `Stream submission events published to NATS JetStream.

Events are published to the subject: submissions.{fee_payer}
Without an address every submission is streamed.

Example:
  solprereq nats subscribe DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK --json`,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "solprereq-cli",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many events (0 streams until interrupted)",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.NATSURL == "" {
				return fmt.Errorf("NATS_URL or --nats-url is required")
			}

			subject := natspkg.StreamSubjects
			if c.NArg() > 0 {
				subject = natspkg.SubjectPrefix + c.Args().First()
			}
			return streamSubmissions(c, cfg.NATSURL, subject)
		},
	}
}

// streamSubmissions connects to NATS and renders submission events as they arrive.
func streamSubmissions(c *cli.Context, natsURL, subject string) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	durable := c.Bool("durable")
	consumerName := c.String("consumer-name")
	limit := c.Int("count")
	machine := c.Bool("json") || c.String("jq") != ""

	if !machine {
		fmt.Fprintf(os.Stderr, "📡 Subscribing to: %s\n", subject)
		fmt.Fprintf(os.Stderr, "   NATS: %s\n", natsURL)
		if durable {
			fmt.Fprintf(os.Stderr, "   Consumer: %s (durable)\n", consumerName)
		}
		fmt.Fprintf(os.Stderr, "\nWaiting for submissions... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable {
		consumerConfig.Durable = consumerName
		consumerConfig.Name = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(context.Background(), natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	msgChan := make(chan jetstream.Msg, 10)
	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer consumeCtx.Stop()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			var event natspkg.SubmissionEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
				msg.Ack()
				continue
			}
			count++

			err := render(c, event, func(w io.Writer) {
				fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
				fmt.Fprintf(w, "Submission #%d\n", count)
				fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
				fmt.Fprintf(w, "Kind:         %s\n", event.Kind)
				fmt.Fprintf(w, "Signature:    %s\n", event.Signature)
				fmt.Fprintf(w, "Fee Payer:    %s\n", event.FeePayer)
				if event.To != nil {
					fmt.Fprintf(w, "To:           %s\n", *event.To)
				}
				if event.Derived != nil {
					fmt.Fprintf(w, "Prereq:       %s\n", *event.Derived)
				}
				fmt.Fprintf(w, "Amount:       %d lamports\n", event.Amount)
				if event.Fee > 0 {
					fmt.Fprintf(w, "Fee:          %d lamports\n", event.Fee)
				}
				fmt.Fprintf(w, "Commitment:   %s\n", event.Commitment)
				fmt.Fprintf(w, "Explorer:     %s\n", event.ExplorerURL)
				fmt.Fprintf(w, "Published:    %s\n\n", event.PublishedAt.Format(time.RFC3339))
			})
			msg.Ack()
			if err != nil {
				return err
			}
			if limit > 0 && count >= limit {
				return nil
			}

		case <-sigChan:
			if !machine {
				fmt.Fprintf(os.Stderr, "\n\n✅ Received %d submissions\n", count)
			}
			return nil
		}
	}
}

// inspectStreamCommand shows information about the NATS JetStream stream.
func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Inspect the SUBMISSIONS JetStream stream",
		Description: `Show information about the JetStream stream including:
- Message count
- Consumers
- Storage usage
- Stream configuration

Example:
  solprereq nats inspect-stream`,
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.NATSURL == "" {
				return fmt.Errorf("NATS_URL or --nats-url is required")
			}

			nc, err := nats.Connect(cfg.NATSURL)
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			stream, err := js.Stream(context.Background(), natspkg.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream: %w", err)
			}

			info, err := stream.Info(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			return render(c, info, func(w io.Writer) {
				fmt.Fprintf(w, "Stream: %s\n", info.Config.Name)
				fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
				fmt.Fprintf(w, "Description:  %s\n", info.Config.Description)
				fmt.Fprintf(w, "Subjects:     %v\n", info.Config.Subjects)
				fmt.Fprintf(w, "Messages:     %d\n", info.State.Msgs)
				fmt.Fprintf(w, "Bytes:        %d\n", info.State.Bytes)
				fmt.Fprintf(w, "First Seq:    %d\n", info.State.FirstSeq)
				fmt.Fprintf(w, "Last Seq:     %d\n", info.State.LastSeq)
				fmt.Fprintf(w, "Consumers:    %d\n", info.State.Consumers)
				fmt.Fprintf(w, "Max Age:      %s\n", info.Config.MaxAge)
				fmt.Fprintf(w, "Storage:      %s\n", info.Config.Storage)
				fmt.Fprintf(w, "\n")
			})
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/mq"
)

// NewEventsCmd создаёт команду, печатающую события lifecycle из RabbitMQ.
func NewEventsCmd(opts *Options, loggerFn LoggerFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow lifecycle events published by other slicerun processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.RabbitMQURL == "" {
				return ErrEventsDisabled
			}
			logger := loggerFn()

			conn, err := mq.NewConnection(opts.RabbitMQURL, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return err
			}

			out := outputFn()
			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Handler: func(_ context.Context, msg *mq.Message) error {
					return printEvent(out, msg)
				},
			})

			err = consumer.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// printEvent печатает одно событие строкой или JSON-конвертом.
func printEvent(out *Output, msg *mq.Message) error {
	if out.JSONMode() {
		return out.JSON(msg)
	}

	ts := msg.Timestamp.Local().Format(time.TimeOnly)
	switch msg.Type {
	case mq.MessageTypeRunStarted:
		p, err := mq.ParsePayload[mq.RunStartedPayload](msg)
		if err != nil {
			return err
		}
		out.Line("%s  %-13s %s owner=%s run=%s", ts, msg.Type, p.SysTestName, p.Owner, p.RunID)
	case mq.MessageTypeStepFinished:
		p, err := mq.ParsePayload[mq.StepFinishedPayload](msg)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s  %-13s %s %s %s", ts, msg.Type, p.SysTestName, p.Step, p.Status)
		if p.Error != "" {
			line += ": " + p.Error
		}
		out.Line("%s", line)
	case mq.MessageTypeRunFinished:
		p, err := mq.ParsePayload[mq.RunFinishedPayload](msg)
		if err != nil {
			return err
		}
		out.Line("%s  %-13s %s %s state=%s warnings=%d", ts, msg.Type, p.SysTestName, p.Status, p.State, p.Warnings)
	default:
		out.Line("%s  %-13s %s", ts, msg.Type, string(msg.Payload))
	}
	return nil
}

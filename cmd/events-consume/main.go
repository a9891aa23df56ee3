// Command events-consume tails event topics and prints every message as one JSON line.
//
//	events-consume -config events.yaml -topics member,club -group debug-tail
//
// Records are committed for the consumer group after they were printed. Unreadable
// records are logged and skipped.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/aalemi-dev/stdlib-events/config"
)

func main() {
	var (
		path    string
		topics  string
		group   string
		timeout time.Duration
		limit   int
		envHelp bool
	)
	flag.StringVar(&path, "config", os.Getenv("EVENTS_CONFIG"), "YAML configuration file")
	flag.StringVar(&topics, "topics", "", "comma separated topics, overrides events.topics")
	flag.StringVar(&group, "group", "", "consumer group, overrides kafka.group_id")
	flag.DurationVar(&timeout, "poll-timeout", time.Second, "how long one poll waits for a record")
	flag.IntVar(&limit, "limit", 0, "stop after this many messages, 0 tails forever")
	flag.BoolVar(&envHelp, "help-env", false, "list the environment variables and exit")
	flag.Parse()

	if envHelp {
		usage, err := config.Usage()
		if err != nil {
			fail(err)
		}
		fmt.Println(usage)
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		fail(err)
	}
	if topics != "" {
		cfg.Events.Topics = strings.Split(topics, ",")
	}
	if group != "" {
		cfg.Kafka.GroupID = group
	}
	if len(cfg.Events.Topics) == 0 {
		fail(fmt.Errorf("no topics: set -topics or events.topics"))
	}

	app := fx.New(
		Options(cfg),
		fx.WithLogger(func(zl *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zl}
		}),
		fx.Supply(TailConfig{PollTimeout: timeout, Limit: limit}),
		fx.Invoke(RegisterTail),
	)
	app.Run()
	if err := app.Err(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "events-consume:", err)
	os.Exit(1)
}

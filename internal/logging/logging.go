// Package logging owns the shared logrus logger. In serve mode a broadcast
// hook mirrors every entry onto the websocket manager so browser clients see
// the same stream as the console.
package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	websocket "H2E/internal/ws"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// L returns the shared logger, creating it on first use.
func L() *logrus.Logger {
	once.Do(func() {
		log = logrus.New()
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	})
	return log
}

// EnableBroadcast mirrors log entries to connected websocket clients.
func EnableBroadcast() {
	L().AddHook(&broadcastHook{})
}

type broadcastHook struct{}

func (h *broadcastHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.DebugLevel,
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
	}
}

func (h *broadcastHook) Fire(entry *logrus.Entry) error {
	websocket.GetInstance().BroadcastMessage(entry.Level.String(), entry.Message)
	return nil
}

// Timestamp formats t the way log payloads sent to frontends expect.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

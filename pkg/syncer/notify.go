package syncer

import (
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a user visible sync outcome.
type Notification struct {
	Level   Level     `json:"level"`
	Op      Op        `json:"op"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger.
func LogNotifier(l *zap.Logger) Notifier {
	return NotifierFunc(func(n Notification) {
		fields := []zap.Field{zap.String("op", string(n.Op)), zap.String("kind", string(n.Kind))}
		switch n.Level {
		case LevelError:
			l.Error(n.Message, fields...)
		case LevelWarn:
			l.Warn(n.Message, fields...)
		default:
			l.Info(n.Message, fields...)
		}
	})
}

func notificationOf(res Result) Notification {
	n := Notification{Op: res.Op, Kind: res.Kind, Message: res.Message, At: res.At}
	switch {
	case res.OK:
		n.Level = LevelInfo
		n.Message = successMessage(res.Op)
	case res.Busy:
		n.Level = LevelWarn
	case res.Kind == KindNetwork:
		n.Level = LevelWarn
	default:
		n.Level = LevelError
	}
	return n
}

func successMessage(op Op) string {
	switch op {
	case OpPull:
		return "data loaded"
	case OpSave:
		return "data saved"
	default:
		return "synced"
	}
}

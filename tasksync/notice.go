package tasksync

import (
	"fmt"
	"io"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a message for the user about the outcome of an operation. It is
// never fatal.
type Notice struct {
	Level   Level
	Message string
}

func (n Notice) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

// Notifier receives notices. It is called synchronously and must not block.
type Notifier func(Notice)

// WriterNotifier prints each notice on its own line to w.
func WriterNotifier(w io.Writer) Notifier {
	return func(n Notice) {
		fmt.Fprintln(w, n)
	}
}

package billingclient

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Notifier shows dismissible messages to the owner.
type Notifier interface {
	Error(message string)
	Info(message string)
}

// Navigator performs a full navigation, in-app or to a hosted page.
type Navigator interface {
	Navigate(url string)
}

type ZapNotifier struct {
	logger *zap.Logger
}

func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	return &ZapNotifier{logger: logger}
}

func (n *ZapNotifier) Error(message string) { n.logger.Error(message) }
func (n *ZapNotifier) Info(message string)  { n.logger.Info(message) }

// WriterNavigator prints the destination for a terminal user to open.
type WriterNavigator struct {
	w io.Writer
}

func NewWriterNavigator(w io.Writer) *WriterNavigator {
	return &WriterNavigator{w: w}
}

func (n *WriterNavigator) Navigate(url string) {
	fmt.Fprintf(n.w, "Open: %s\n", url)
}

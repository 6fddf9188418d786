package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

type shoutrrrSender interface {
	Send(message string, params *stypes.Params) []error
}

// ShoutrrrNotifier fans alerts out to operator channels given as shoutrrr
// URLs (slack://, telegram://, discord:// ...)
type ShoutrrrNotifier struct {
	sender shoutrrrSender
}

var _ OpsNotifier = (*ShoutrrrNotifier)(nil)

// NewShoutrrrNotifier validates urls and builds one router for all of them
func NewShoutrrrNotifier(urls []string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one shoutrrr URL is required")
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid shoutrrr URL: %w", err)
	}
	if timeout > 0 {
		router.Timeout = timeout
	}
	router.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrNotifier{sender: router}, nil
}

// Notify sends to every configured URL and joins their errors
func (n *ShoutrrrNotifier) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	return errors.Join(n.sender.Send(body, &params)...)
}

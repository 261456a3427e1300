package engine

import (
	"context"
	"strings"

	"github.com/abrokecube/ravenfall-channelbot-sub000/internal/events"
)

// Characters some chat clients append to bypass duplicate-message
// detection. They carry no meaning and break command matching.
var textFilter = strings.NewReplacer(
	"\U000e0000", "",
	"͏", "",
)

// FilterMessageText strips invisible filler characters and surrounding
// whitespace from message text. Register it with Use before any
// text-sensitive dispatch.
func FilterMessageText(_ context.Context, ev events.Event) error {
	switch v := ev.(type) {
	case *events.Message:
		v.Text = strings.TrimSpace(textFilter.Replace(v.Text))
	case *events.Redemption:
		v.Text = strings.TrimSpace(textFilter.Replace(v.Text))
	}
	return nil
}

// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package pipedrive

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/validation"
)

// SubscribedActions are the deal events dealwatch listens to. Field updates
// arrive as "updated" and creations as "added".
var SubscribedActions = []string{"updated", "added"}

// Subscriptions builds one webhook request per subscribed action.
func Subscriptions(url, user, password string) []NewWebhook {
	subs := make([]NewWebhook, 0, len(SubscribedActions))
	for _, action := range SubscribedActions {
		subs = append(subs, NewWebhook{
			SubscriptionURL:  url,
			EventAction:      action,
			EventObject:      "deal",
			HTTPAuthUser:     user,
			HTTPAuthPassword: password,
		})
	}
	return subs
}

// Subscribe registers subs, skipping any already registered with the same
// URL, action and object. It stops at the first failure and returns the
// webhooks registered so far.
func Subscribe(ctx context.Context, api API, subs []NewWebhook) ([]Webhook, error) {
	for _, s := range subs {
		if verr := validation.ValidateStruct(s); verr != nil {
			return nil, fmt.Errorf("webhook %s.%s: %w", s.EventAction, s.EventObject, verr)
		}
	}

	existing, err := api.ListWebhooks(ctx)
	if err != nil {
		return nil, err
	}

	var registered []Webhook
	for _, s := range subs {
		if hasSubscription(existing, s) {
			logging.Info().
				Str("action", s.EventAction).
				Str("object", s.EventObject).
				Msg("Webhook already registered")
			continue
		}
		hook, err := api.RegisterWebhook(ctx, s)
		if err != nil {
			return registered, fmt.Errorf("register %s.%s: %w", s.EventAction, s.EventObject, err)
		}
		logging.Info().
			Int64("webhook_id", hook.ID).
			Str("action", s.EventAction).
			Str("object", s.EventObject).
			Msg("Webhook registered")
		registered = append(registered, *hook)
	}
	return registered, nil
}

func hasSubscription(existing []Webhook, s NewWebhook) bool {
	for _, w := range existing {
		if strings.EqualFold(w.SubscriptionURL, s.SubscriptionURL) &&
			strings.EqualFold(w.EventAction, s.EventAction) &&
			strings.EqualFold(w.EventObject, s.EventObject) {
			return true
		}
	}
	return false
}

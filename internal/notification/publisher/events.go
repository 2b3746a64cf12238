// internal/notification/publisher/events.go
package publisher

import (
	"context"

	"notification-service/internal/models"
)

// Convenience wrappers for the domain actions that fire notifications. Domain
// modules (image generation, billing) call these instead of building Inputs
// by hand.

func (p *Publisher) PublishImageReady(ctx context.Context, userID, generationID string) (*models.Notification, error) {
	text := "Your latest creation is ready! Tap to view."
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeImageReady,
		Text:       &text,
		EntityID:   &generationID,
	})
}

func (p *Publisher) PublishImageFailed(ctx context.Context, userID string) (*models.Notification, error) {
	text := "Image generation failed. Please try again."
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeImageFailed,
		Text:       &text,
	})
}

func (p *Publisher) PublishImageDownloaded(ctx context.Context, userID, generationID string) (*models.Notification, error) {
	text := "Your image has been downloaded successfully!"
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeImageDownloaded,
		Text:       &text,
		EntityID:   &generationID,
	})
}

func (p *Publisher) PublishSubscriptionSuccess(ctx context.Context, userID, productName, subscriptionID string) (*models.Notification, error) {
	text := "You have successfully subscribed to " + productName + "!"
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeSubscriptionSuccess,
		Text:       &text,
		EntityID:   &subscriptionID,
	})
}

func (p *Publisher) PublishSubscriptionFailed(ctx context.Context, userID string) (*models.Notification, error) {
	text := "Subscription failed. Please check your card details."
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeSubscriptionFailed,
		Text:       &text,
	})
}

func (p *Publisher) PublishSubscriptionCanceled(ctx context.Context, userID, subscriptionID string) (*models.Notification, error) {
	text := "Your subscription has been canceled."
	return p.Publish(ctx, &Input{
		ReceiverID: userID,
		Type:       models.TypeSubscriptionCanceled,
		Text:       &text,
		EntityID:   &subscriptionID,
	})
}

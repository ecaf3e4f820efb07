package messenger

import (
	"encoding/json"

	"github.com/ZilDuck/marketplace-indexer/internal/event"
	"go.uber.org/zap"
)

// Publisher bridges internal domain events onto AMQP. Delivery is at least
// once; consumers dedupe on the source event id carried in the payload.
type Publisher struct {
	messenger MessageService
}

func NewPublisher(messenger MessageService) Publisher {
	return Publisher{messenger}
}

func (p Publisher) Subscribe() {
	p.listen(event.ListingCreatedEvent, ListingCreated)
	p.listen(event.BidAcceptedEvent, BidAccepted)
	p.listen(event.OfferMadeEvent, OfferMade)
	p.listen(event.OfferAcceptedEvent, OfferAccepted)
	p.listen(event.PurchaseMadeEvent, PurchaseMade)
	p.listen(event.ListingFinalizedEvent, ListingFinalized)
	p.listen(event.ListingCancelledEvent, ListingCancelled)
	p.listen(event.ReconcileMismatchEvent, ReconcileMismatch)
}

func (p Publisher) listen(eventType event.Type, item Item) {
	event.AddEventListener(eventType, func(msg interface{}) {
		body, err := json.Marshal(msg)
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("type", string(eventType))).Error("[Queue] Failed to marshal event")
			return
		}

		if err := p.messenger.SendMessage(item, body, true); err != nil {
			zap.L().With(zap.Error(err), zap.String("type", string(eventType))).Error("[Queue] Failed to publish event")
		}
	})
}

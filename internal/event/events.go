package event

type Type string

const (
	ListingCreatedEvent    Type = "ListingCreatedEvent"
	BidAcceptedEvent       Type = "BidAcceptedEvent"
	OfferMadeEvent         Type = "OfferMadeEvent"
	OfferAcceptedEvent     Type = "OfferAcceptedEvent"
	PurchaseMadeEvent      Type = "PurchaseMadeEvent"
	ListingFinalizedEvent  Type = "ListingFinalizedEvent"
	ListingCancelledEvent  Type = "ListingCancelledEvent"
	ReconcileMismatchEvent Type = "ReconcileMismatchEvent"
)

package normalizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

// listingMerge buffers the three CreateListing parts that the contract emits
// in one transaction. Only a complete merge produces a ListingCreated.
type listingMerge struct {
	txHash    string
	listingId uint64

	base  *entity.MarketplaceEvent
	token *entity.ListingCreatedPayload
	fees  *entity.ListingFees
}

func (n normalizer) collectPart(merges map[string]*listingMerge, raw entity.RawLog) error {
	listingId, err := raw.Args.GetUint64("listingId")
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s-%d", raw.TxHash, listingId)
	merge, exists := merges[key]
	if !exists {
		merge = &listingMerge{txHash: raw.TxHash, listingId: listingId}
		merges[key] = merge
	}

	switch entity.EventName(raw.EventName) {
	case entity.MpCreateListingEvent:
		base, payload, err := decodeCreateListing(raw, listingId)
		if err != nil {
			return err
		}
		if merge.base == nil {
			merge.base = base
			merge.base.Created = payload
		}
	case entity.MpCreateListingTokenDetailsEvent:
		token, err := decodeTokenDetails(raw.Args)
		if err != nil {
			return err
		}
		merge.token = token
	case entity.MpCreateListingFeesEvent:
		fees, err := decodeFees(raw.Args)
		if err != nil {
			return err
		}
		merge.fees = fees
	}

	return nil
}

// event assembles the merged ListingCreated, anchored at the CreateListing
// log's stream position.
func (m listingMerge) event() (entity.MarketplaceEvent, error) {
	if m.base == nil || m.token == nil || m.fees == nil {
		return entity.MarketplaceEvent{}, fmt.Errorf("%w: tx %s listing %d (base=%t token=%t fees=%t)",
			ErrIncompleteMerge, m.txHash, m.listingId, m.base != nil, m.token != nil, m.fees != nil)
	}

	e := *m.base
	created := *e.Created
	created.TokenSpec = m.token.TokenSpec
	created.Lazy = m.token.Lazy
	created.TokenAddr = m.token.TokenAddr
	created.TokenId = m.token.TokenId
	created.Fees = *m.fees
	e.Created = &created
	e.Name = entity.ListingCreated

	return e, nil
}

func decodeCreateListing(raw entity.RawLog, listingId uint64) (*entity.MarketplaceEvent, *entity.ListingCreatedPayload, error) {
	seller, err := raw.Args.GetAddress("seller")
	if err != nil {
		return nil, nil, err
	}

	listingType, err := decodeListingType(raw.Args)
	if err != nil {
		return nil, nil, err
	}

	initialAmount, err := raw.Args.GetAmount("initialAmount")
	if err != nil {
		return nil, nil, err
	}

	totalAvailable, err := raw.Args.GetUint64("totalAvailable")
	if err != nil {
		return nil, nil, err
	}

	totalPerSale, err := raw.Args.GetUint64("totalPerSale")
	if err != nil {
		return nil, nil, err
	}

	startTime, err := raw.Args.GetUint64("startTime")
	if err != nil {
		return nil, nil, err
	}

	endTime, err := raw.Args.GetUint64("endTime")
	if err != nil {
		return nil, nil, err
	}

	extensionInterval, _ := raw.Args.GetUint64("extensionInterval")
	minIncrementBPS, _ := raw.Args.GetUint("minIncrementBps")
	erc20, _ := raw.Args.GetAddress("erc20")
	identityVerifier, _ := raw.Args.GetAddress("identityVerifier")
	priceCurve, _ := raw.Args.GetString("priceCurve")
	priceRateBPS, _ := raw.Args.GetUint64("priceRateBps")

	e := entity.MarketplaceEvent{
		Id:              raw.EventId(),
		Name:            entity.MpCreateListingEvent,
		MarketplaceAddr: strings.ToLower(raw.ContractAddr),
		ChainId:         raw.ChainId,
		ListingId:       listingId,
		BlockNum:        raw.BlockNum,
		LogIndex:        raw.LogIndex,
		TxHash:          raw.TxHash,
		Timestamp:       raw.Timestamp,
	}

	payload := entity.ListingCreatedPayload{
		ListingType:       listingType,
		Seller:            seller,
		InitialAmount:     initialAmount,
		TotalAvailable:    totalAvailable,
		TotalPerSale:      totalPerSale,
		ExtensionInterval: extensionInterval,
		MinIncrementBPS:   minIncrementBPS,
		Erc20:             erc20,
		IdentityVerifier:  identityVerifier,
		StartTime:         startTime,
		EndTime:           endTime,
		PriceCurve:        priceCurve,
		PriceRateBPS:      priceRateBPS,
	}

	return &e, &payload, nil
}

func decodeTokenDetails(args entity.Args) (*entity.ListingCreatedPayload, error) {
	tokenSpec, err := decodeTokenSpec(args)
	if err != nil {
		return nil, err
	}

	lazy, _ := args.GetBool("lazy")
	tokenAddr, _ := args.GetAddress("tokenAddr")
	tokenId, _ := args.GetString("tokenId")

	// Lazy mints have no token id until first sale.
	if lazy {
		tokenId = ""
	}

	return &entity.ListingCreatedPayload{
		TokenSpec: tokenSpec,
		Lazy:      lazy,
		TokenAddr: tokenAddr,
		TokenId:   tokenId,
	}, nil
}

func decodeFees(args entity.Args) (*entity.ListingFees, error) {
	marketplaceBPS, err := args.GetUint("marketplaceBps")
	if err != nil {
		return nil, err
	}

	referrerBPS, _ := args.GetUint("referrerBps")
	deliverBPS, _ := args.GetUint("deliverBps")
	deliverFixed, _ := args.GetAmount("deliverFixed")

	receivers, err := decodeReceivers(args["receivers"])
	if err != nil {
		return nil, err
	}

	return &entity.ListingFees{
		MarketplaceBPS: marketplaceBPS,
		ReferrerBPS:    referrerBPS,
		DeliverBPS:     deliverBPS,
		DeliverFixed:   deliverFixed,
		Receivers:      receivers,
	}, nil
}

// decodeReceivers parses the flattened "addr:bps|addr:bps" receiver list.
func decodeReceivers(encoded string) ([]entity.FeeReceiver, error) {
	receivers := make([]entity.FeeReceiver, 0)
	if encoded == "" {
		return receivers, nil
	}

	for _, part := range strings.Split(encoded, "|") {
		segments := strings.Split(part, ":")
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid receiver: %s", part)
		}
		bps, err := strconv.ParseUint(segments[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid receiver bps: %s", part)
		}
		receivers = append(receivers, entity.FeeReceiver{
			Receiver: strings.ToLower(segments[0]),
			BPS:      uint(bps),
		})
	}

	return receivers, nil
}

func decodeListingType(args entity.Args) (entity.ListingType, error) {
	value, err := args.GetString("listingType")
	if err != nil {
		return "", err
	}

	switch value {
	case "0", string(entity.IndividualAuction):
		return entity.IndividualAuction, nil
	case "1", string(entity.FixedPrice):
		return entity.FixedPrice, nil
	case "2", string(entity.DynamicPrice):
		return entity.DynamicPrice, nil
	case "3", string(entity.OffersOnly):
		return entity.OffersOnly, nil
	}

	return "", fmt.Errorf("unknown listing type: %s", value)
}

func decodeTokenSpec(args entity.Args) (entity.TokenSpec, error) {
	value, err := args.GetString("tokenSpec")
	if err != nil {
		return "", err
	}

	switch value {
	case "0", string(entity.Erc721):
		return entity.Erc721, nil
	case "1", string(entity.Erc1155):
		return entity.Erc1155, nil
	}

	return "", fmt.Errorf("unknown token spec: %s", value)
}

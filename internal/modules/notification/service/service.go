package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"clubdev.app/gamify/internal/model"
	"github.com/redis/go-redis/v9"
)

// GrantPublisher emits a GrantCreated signal per committed grant for
// downstream consumers (notification/UI). Delivery is best-effort: a failed
// publish never affects ledger commit durability.
type GrantPublisher interface {
	PublishGrantCreated(ctx context.Context, grant model.Grant)
}

type grantPublisher struct {
	redisClient *redis.Client
}

func NewGrantPublisher(redisClient *redis.Client) GrantPublisher {
	return &grantPublisher{redisClient: redisClient}
}

func (p *grantPublisher) PublishGrantCreated(ctx context.Context, grant model.Grant) {
	if p.redisClient == nil {
		return
	}

	channel := fmt.Sprintf("grant_created:%s", grant.UserID.String())

	payload, err := json.Marshal(grant)
	if err != nil {
		log.Printf("Failed to encode grant %s for publish: %v", grant.GrantID, err)
		return
	}

	if err := p.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("Failed to publish GrantCreated for grant %s: %v", grant.GrantID, err)
	}
}

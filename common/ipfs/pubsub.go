package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	iface "github.com/ipfs/boxo/coreiface"
	"github.com/ipfs/kubo/client/rpc"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/tradepost/go-mediation/models"
)

var _ models.EventPublisher = &PubsubPublisher{}

// PubsubPublisher announces transitions on IPFS pubsub so that anyone watching a request can refetch it. Each request
// has its own topic, <prefix>/<request id>.
type PubsubPublisher struct {
	core        iface.CoreAPI
	addrStr     string
	topicPrefix string
	logger      models.Logger
}

// createCoreApi accepts either a multiaddr (/ip4/127.0.0.1/tcp/5001) or an http URL for the kubo RPC endpoint.
func createCoreApi(addrStr string) (*rpc.HttpApi, error) {
	addr, err := ma.NewMultiaddr(addrStr)
	if err != nil {
		c := &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		}
		return rpc.NewURLApiWithClient(addrStr, c)
	}
	return rpc.NewApi(addr)
}

func NewPubsubPublisher(logger models.Logger, addrStr, topicPrefix string) (*PubsubPublisher, error) {
	coreApi, err := createCoreApi(addrStr)
	if err != nil {
		return nil, fmt.Errorf("ipfs: error creating client at %s: %w", addrStr, err)
	}
	return NewPubsubPublisherWithCore(logger, addrStr, topicPrefix, coreApi), nil
}

func NewPubsubPublisherWithCore(logger models.Logger, addrStr, topicPrefix string, coreApi iface.CoreAPI) *PubsubPublisher {
	return &PubsubPublisher{coreApi, addrStr, strings.TrimSuffix(topicPrefix, "/"), logger}
}

func (p *PubsubPublisher) Topic(requestId string) string {
	return p.topicPrefix + "/" + requestId
}

func (p *PubsubPublisher) Publish(ctx context.Context, event *models.TransitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic := p.Topic(event.RequestId)
	p.logger.Debugf("ipfs: publishing %s event for request %s on %s", event.Action, event.RequestId, topic)
	if err = p.core.PubSub().Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("ipfs: publishing to %s failed on ipfs instance at %s: %w", topic, p.addrStr, err)
	}
	return nil
}

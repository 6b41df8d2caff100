package relay

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/candorlabs/relaypay/types"
)

// ResolveFeeSponsor queries the relay's discovery endpoint and returns the
// first advertised fee-sponsoring address for the tenant. The address is
// provisional: the relay may assign a different signer once it has seen a
// draft, and that later assignment is authoritative. Sponsors rotate, so
// results are never cached across negotiations.
func (c *Client) ResolveFeeSponsor(ctx context.Context, tenantID string) (types.FeeSponsor, error) {
	endpoint := c.baseURL + "/supported"
	if tenantID != "" {
		endpoint += "?tenantId=" + url.QueryEscape(tenantID)
	}

	var supported types.SupportedResponse
	if err := c.getJSON(ctx, endpoint, &supported); err != nil {
		return types.FeeSponsor{}, types.WrapError(types.ErrSponsorUnavailable, "relay discovery failed", err)
	}

	for _, kind := range supported.Kinds {
		if kind.Scheme != "" && kind.Scheme != types.SchemeExact {
			continue
		}
		if feePayer := kind.FeePayer(); feePayer != "" {
			c.log.Debug("resolved fee sponsor",
				zap.String("tenant", tenantID),
				zap.String("sponsor", feePayer),
				zap.String("network", kind.Network))
			return types.FeeSponsor{Address: feePayer, TenantID: tenantID}, nil
		}
	}

	return types.FeeSponsor{}, types.NewError(types.ErrSponsorUnavailable, "relay advertises no fee sponsor for tenant "+tenantID)
}

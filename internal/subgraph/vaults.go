package subgraph

import (
	"context"

	"go.uber.org/zap"

	"liquidityBreakdown/internal/model"
)

const vaultsQuery = `
query getVaults($first: Int!, $lastID: ID!) {
  vaults(first: $first, orderBy: id, orderDirection: asc, where: { id_gt: $lastID }) {
    id
    owner {
      id
    }
  }
}`

type vaultData struct {
	ID    string    `json:"id"`
	Owner entityRef `json:"owner"`
}

type vaultsResponse struct {
	Vaults []vaultData `json:"vaults"`
}

// ResolveVaultOwners maps every known vault to the address that owns it.
func (c *Client) ResolveVaultOwners(ctx context.Context) (model.VaultOwnerMap, error) {
	vaults, err := FetchAll(ctx, c.points, Collection[vaultsResponse, vaultData]{
		Name:     "vaults",
		Document: vaultsQuery,
		Items:    func(resp vaultsResponse) []vaultData { return resp.Vaults },
		ID:       func(v vaultData) string { return v.ID },
	})
	if err != nil {
		return nil, err
	}

	owners := make(model.VaultOwnerMap, len(vaults))
	for _, v := range vaults {
		vault, err := parseEntityAddress(v.ID)
		if err != nil {
			return nil, &IndexerQueryError{Query: "vaults", Err: err}
		}
		owner, err := parseEntityAddress(v.Owner.ID)
		if err != nil {
			return nil, &IndexerQueryError{Query: "vaults", Err: err}
		}
		owners[vault] = owner
	}

	c.logger.Info("vaults resolved", zap.Int("vaults", len(owners)))
	return owners, nil
}

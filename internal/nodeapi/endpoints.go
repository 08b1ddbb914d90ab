package nodeapi

import (
	"net/url"

	"github.com/ArkEcosystemArchive/ark-cli/config"
)

// Endpoints names the paths a protocol generation serves.
type Endpoints struct {
	Peers        string
	NodeConfig   string
	NodeStatus   string
	Transactions string

	protocol config.Protocol
}

// EndpointsFor returns the endpoint set of protocol p.
func EndpointsFor(p config.Protocol) Endpoints {
	if p == config.ProtocolV1 {
		return Endpoints{
			Peers:        "/peer/list",
			NodeConfig:   "/api/loader/autoconfigure",
			NodeStatus:   "/api/loader/status/sync",
			Transactions: "/peer/transactions",
			protocol:     p,
		}
	}
	return Endpoints{
		Peers:        "/api/v2/peers",
		NodeConfig:   "/api/v2/node/configuration",
		NodeStatus:   "/api/v2/node/status",
		Transactions: "/api/v2/transactions",
		protocol:     config.ProtocolV2,
	}
}

// Wallet returns the path and query reading one account.
func (e Endpoints) Wallet(address string) (string, url.Values) {
	if e.protocol == config.ProtocolV1 {
		return "/api/accounts", url.Values{"address": {address}}
	}
	return "/api/v2/wallets/" + url.PathEscape(address), nil
}

// Delegate returns the path and query reading one delegate by username,
// address or public key.
func (e Endpoints) Delegate(id string) (string, url.Values) {
	if e.protocol == config.ProtocolV1 {
		if len(id) == 66 {
			return "/api/delegates/get", url.Values{"publicKey": {id}}
		}
		return "/api/delegates/get", url.Values{"username": {id}}
	}
	return "/api/v2/delegates/" + url.PathEscape(id), nil
}

// Votes returns the path and query listing an account's votes.
func (e Endpoints) Votes(address string) (string, url.Values) {
	if e.protocol == config.ProtocolV1 {
		return "/api/accounts/delegates", url.Values{"address": {address}}
	}
	return "/api/v2/wallets/" + url.PathEscape(address) + "/votes", nil
}

// Transaction returns the path and query reading one transaction.
func (e Endpoints) Transaction(id string) (string, url.Values) {
	if e.protocol == config.ProtocolV1 {
		return "/api/transactions/get", url.Values{"id": {id}}
	}
	return "/api/v2/transactions/" + url.PathEscape(id), nil
}

package nodeapi

import (
	"net/http"

	"github.com/ArkEcosystemArchive/ark-cli/config"
)

// Legacy protocol header values. Nodes only check that they are present
// and that the nethash matches their own.
const (
	LegacyVersion = "1.0.0"
	LegacyPort    = "1"
)

// Headers returns the protocol headers a node of the given network expects.
func Headers(def config.NetworkDefinition) http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	switch def.Protocol {
	case config.ProtocolV1:
		h.Set("nethash", def.Nethash)
		h.Set("version", LegacyVersion)
		h.Set("port", LegacyPort)
	default:
		h.Set("API-Version", "2")
	}
	return h
}

// Package ice builds the ICE server list handed to WebRTC clients,
// including ephemeral TURN credentials per the draft-uberti-behave-turn-rest
// "TURN REST API" scheme.
package ice

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/signalbrew/server/internal/config"
)

// turnCredentialLabel identifies this service in issued TURN usernames.
// The original source hardcoded "filecoffee" here; this implementation
// makes the TTL configurable but keeps a fixed label, since the label is
// not itself a secret and does not need to vary per deployment.
const turnCredentialLabel = "signal"

// Server is one entry in the iceServers array handed to the browser.
type Server struct {
	URLs       string `json:"urls"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// Config is the JSON document served at GET /api/ice-servers.
type Config struct {
	IceServers []Server `json:"iceServers"`
}

// Build returns the STUN baseline plus, if TURN is configured, an entry
// with HMAC-SHA1 ephemeral credentials valid for cfg.TURNCredentialTTL.
func Build(cfg config.Config) Config {
	servers := []Server{
		{URLs: "stun:stun.l.google.com:19302"},
	}

	if cfg.TURNConfigured() {
		expiry := time.Now().Add(cfg.TURNCredentialTTL).Unix()
		username := fmt.Sprintf("%d:%s", expiry, turnCredentialLabel)

		mac := hmac.New(sha1.New, []byte(cfg.TURNSecret))
		mac.Write([]byte(username))
		credential := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		servers = append(servers, Server{
			URLs:       cfg.TURNURL,
			Username:   username,
			Credential: credential,
		})
	}

	return Config{IceServers: servers}
}

package upstream

import "encoding/base64"

// AuthHeader turns a credential into the Basic authorization value the
// upstream expects: empty username, credential as password.
func AuthHeader(credential string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+credential))
}

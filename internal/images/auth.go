// SPDX-License-Identifier: MPL-2.0

package images

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dockerino/dockerino/internal/engineapi"
)

// RegistryAuthHeader carries encoded registry credentials on push.
const RegistryAuthHeader = "X-Registry-Auth"

// RegistryAuth is the credential document sent in RegistryAuthHeader.
// Push only fills ServerAddress; identity-bearing credentials are not used.
type RegistryAuth struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	ServerAddress string `json:"serveraddress"`
}

// EncodeRegistryAuth serializes auth to JSON and base64url-encodes it.
func EncodeRegistryAuth(auth RegistryAuth) (string, error) {
	data, err := json.Marshal(auth)
	if err != nil {
		return "", engineapi.NewError(engineapi.KindSerialization, "encode registry auth", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeRegistryAuth reverses EncodeRegistryAuth.
func DecodeRegistryAuth(encoded string) (RegistryAuth, error) {
	var auth RegistryAuth
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return auth, fmt.Errorf("decode registry auth: %w", err)
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return auth, fmt.Errorf("decode registry auth: %w", err)
	}
	return auth, nil
}

package xrhidentity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Header carries the base64 encoded identity of the caller
const Header = "x-rh-identity"

type XRHIdentity struct {
	Identity struct {
		Internal struct {
			AuthTime int    `json:"auth_time"`
			AuthType string `json:"auth_type"`
			OrgID    string `json:"org_id"`
		} `json:"internal"`
		AccountNumber string `json:"account_number"`
		User          struct {
			FirstName  string `json:"first_name"`
			IsActive   bool   `json:"is_active"`
			LastName   string `json:"last_name"`
			IsOrgAdmin bool   `json:"is_org_admin"`
			Username   string `json:"username"`
			Email      string `json:"email"`
		} `json:"user"`
		Type string `json:"type"`
	} `json:"identity"`
}

// GetXRHIdentity decodes the identity header value
func GetXRHIdentity(str string) (*XRHIdentity, error) {
	data, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("identity header is not base64: %w", err)
	}

	var xrh XRHIdentity
	if err := json.Unmarshal(data, &xrh); err != nil {
		return nil, fmt.Errorf("identity header is not valid json: %w", err)
	}
	return &xrh, nil
}

// Operator names the caller for audit logging, the username when present
// and otherwise the account
func (x *XRHIdentity) Operator() string {
	if x.Identity.User.Username != "" {
		return x.Identity.User.Username
	}
	if x.Identity.AccountNumber != "" {
		return "account:" + x.Identity.AccountNumber
	}
	return x.Identity.Internal.OrgID
}

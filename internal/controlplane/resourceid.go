package controlplane

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
)

// endpoint hosts look like ep-<words>-<digits>.<region>.<cloud>.<provider>.tech
var endpointHostRe = regexp.MustCompile(`ep-[a-z0-9-]+\.(?:[a-z0-9-]+\.){2}[a-z0-9-]+\.tech`)

// ResolveResourceID extracts a remote resource id from the endpoint host of a
// connection string. This is a fallback for tenants registered without a
// stored resource id and may be wrong for hosts that do not follow the
// endpoint naming scheme.
func ResolveResourceID(connectionString string) (string, error) {
	match := endpointHostRe.FindString(connectionString)
	if match == "" {
		return "", apperrors.ParseError("controlplane.ResolveResourceID",
			fmt.Errorf("could not extract a resource id from the connection string host"))
	}
	return strings.SplitN(match, ".", 2)[0], nil
}

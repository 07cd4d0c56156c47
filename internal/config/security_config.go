// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic     SecurityLevel = iota // No authentication
	SecurityStaff                           // Any desk staff token
	SecuritySupervisor                      // Staff token carrying the supervisor role
)

// EndpointSecurityConfig maps routes and gRPC methods to their required security level.
// HTTP routes are keyed by their mux route name.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Probes - Public
	"healthz":                      SecurityPublic,
	"metrics":                      SecurityPublic,
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,

	// Ledger - Staff
	"createTransaction": SecurityStaff,
	"getTransaction":    SecurityStaff,
	"listLegs":          SecurityStaff,
	"addLeg":            SecurityStaff,
	"validateLegs":      SecurityStaff,
	"processSwap":       SecurityStaff,
	"getInventory":      SecurityStaff,

	// Reflection - Staff
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityStaff,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityStaff,

	// Corrections - Supervisor
	"updateTransaction": SecuritySupervisor,
	"recordAdjustment":  SecuritySupervisor,
	"reconcile":         SecuritySupervisor,
}

// GetSecurityLevel returns the security level for a given route or method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecuritySupervisor
}

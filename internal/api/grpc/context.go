package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GetStaffFromContext returns the staff name the auth interceptor put in the
// incoming metadata.
func GetStaffFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	staff := md.Get("staff")
	if len(staff) == 0 || staff[0] == "" {
		return "", status.Errorf(codes.Unauthenticated, "staff is not provided in metadata")
	}
	return staff[0], nil
}

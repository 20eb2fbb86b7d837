// Package xauth implements the Credential Provider (C1), Token Cache
// (C2), and Auth Interceptor (C6): producing bearer tokens, caching
// and refreshing them with a single-slot exclusive renew guard, and
// injecting them into every outbound gRPC call.
package xauth

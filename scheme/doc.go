// Package scheme implements the scheme management façade (supplemented
// from the original implementation's scheme client, dropped by the
// distilled spec): directory and permission operations layered over
// plain unary gRPC calls through the Connection Pool and Auth
// Interceptor, the same way the original's table/session façade rides
// those same components.
package scheme

// Package coordination implements the Coordination Session (C12):
// semaphore acquire/release, lease lifetime, server pings, and node
// management, plus a Mutex convenience wrapper built on top of the
// semaphore primitive.
//
// Grounded on the teacher's pkg/distributed/xsemaphore (the Permit
// handle shape: unique-id-per-acquisition, Release/Extend/
// StartAutoExtend, no shared mutable state across acquisitions) and
// pkg/distributed/xdlock (the Factory/LockHandle split).
package coordination

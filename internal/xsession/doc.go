// Package xsession implements the Session Pool (C8): a semaphore-bounded
// pool of server-side sessions with a free list, bad-session eviction,
// and optional periodic keepalive probing. Grounded on the teacher's
// xpool worker pool for the panic-safe, exactly-once permit return
// discipline, generalized from "run a task" to "hand out a resource".
package xsession

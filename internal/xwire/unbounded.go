package xwire

// unbounded turns a pair of channels into an unbounded queue: sends on
// the returned in channel never block on a slow/absent reader. It is
// the standard goroutine-fed growable-buffer pattern, used by Stream
// Framing's outbound queue (spec §4.8) so a caller's send(msg) never
// stalls behind a stuck network write.
//
// The background goroutine exits once in is closed (draining whatever
// is left to out first) or done fires, whichever happens first.
func unbounded[T any](done <-chan struct{}) (in chan<- T, out <-chan T) {
	inCh := make(chan T)
	outCh := make(chan T)

	go func() {
		defer close(outCh)
		var queue []T
		for {
			if len(queue) == 0 {
				select {
				case v, ok := <-inCh:
					if !ok {
						return
					}
					queue = append(queue, v)
				case <-done:
					return
				}
				continue
			}

			select {
			case v, ok := <-inCh:
				if !ok {
					// Drain the rest before exiting so a flush() waiting on
					// the tail ticket still observes it popped (spec §4.9).
					for _, q := range queue {
						select {
						case outCh <- q:
						case <-done:
							return
						}
					}
					return
				}
				queue = append(queue, v)
			case outCh <- queue[0]:
				queue = queue[1:]
			case <-done:
				return
			}
		}
	}()

	return inCh, outCh
}

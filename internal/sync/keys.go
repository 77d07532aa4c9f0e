package sync

import (
	"context"

	"github.com/eiannone/keyboard"
)

// StopOnKey cancels the returned context when q or Esc is pressed.
// release restores the terminal and must be called once the push ends.
func StopOnKey(parent context.Context) (ctx context.Context, release func(), err error) {
	events, err := keyboard.GetKeys(4)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(parent)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Err == nil && (ev.Rune == 'q' || ev.Rune == 'Q' || ev.Key == keyboard.KeyEsc) {
					cancel()
					return
				}
			}
		}
	}()

	release = func() {
		close(done)
		cancel()
		keyboard.Close()
	}
	return ctx, release, nil
}

package nextion

import "time"

// DefaultTimeout bounds every wait inside the engine.
const DefaultTimeout = 100 * time.Millisecond

// DefaultPollInterval is the pause between two polls of a wait condition.
const DefaultPollInterval = 200 * time.Microsecond

// deadline is started at the beginning of a phase and is never shared
// between operations.
type deadline struct {
	end  time.Time
	poll time.Duration
}

func (n *Nex) deadline() deadline {
	return deadline{end: time.Now().Add(n.timeout()), poll: n.pollInterval()}
}

func (d deadline) expired() bool {
	return !time.Now().Before(d.end)
}

func (d deadline) pause() {
	if d.poll > 0 {
		time.Sleep(d.poll)
	}
}

// until polls cond until it's satisfied or the deadline expires.
func (d deadline) until(cond func() bool) bool {
	for {
		if cond() {
			return true
		}
		if d.expired() {
			return false
		}
		d.pause()
	}
}

// waitFor polls cond for at most the engine timeout.
func (n *Nex) waitFor(cond func() bool) bool {
	return n.deadline().until(cond)
}

// waitAvailable waits until at least count bytes are pending.
func (n *Nex) waitAvailable(count int) bool {
	return n.waitFor(func() bool {
		return n.Transport.Available() >= count
	})
}

// Package renewal coordinates credential renewal so that concurrent expiry failures
// share a single renewal call.
//
// # State machine
//
// A [Coordinator] is either Idle or Refreshing. The first caller that observes an
// expiry failure while Idle moves it to Refreshing and starts the renewal; every other
// caller joins the waiter list. When the renewal settles the coordinator returns to Idle,
// advances the credential generation, and notifies every waiter with the same [Outcome]
// over its own buffered channel. The waiter list only exists while Refreshing.
//
// The check-and-transition runs under one mutex. That is the whole single-flight
// guarantee: two callers can never both observe Idle and both start a renewal.
//
// # Generations
//
// Each settled renewal increments a generation counter. Callers record the generation
// before reading the credential they send; when they later report an expiry failure
// with a generation older than the current one, the credential has already been
// replaced and no new renewal is started.
//
// # Cancellation
//
// A waiter whose context is cancelled removes itself from the list and returns
// ctx.Err(). The renewal itself runs detached from any caller's cancellation so the
// remaining waiters are still resolved.
package renewal
